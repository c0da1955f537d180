package codec

import (
	"math"

	"github.com/Redux-Robotics/canandrepo-public/internal/canerr"
	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
)

// Values is the per-signal input to Encode, keyed by signal name. A Struct
// signal's value is itself a Values map for its sub-signals. Accepted leaf
// types: uint64 (UInt, Bitset), int64 (SInt), float64 (Float), bool (Bool),
// []byte (Buf), and for Enum either a string variant name or any integer
// type convertible to int (accepted without membership check, per spec).
type Values map[string]any

// EncodeMessage packs signals in declared order into a little-endian
// 64-bit payload, returning the payload and the frame's effective DLC
// (bytes). minLength/maxLength are the message's declared length bounds;
// DLC is minLength unless at least one trailing optional signal carries a
// non-nil value, in which case DLC is maxLength.
func EncodeMessage(signals []ir.Signal, minLength, maxLength int, values Values) (payload uint64, dlc int, err error) {
	offset := 0
	anyOptionalPresent := false

	for _, sig := range signals {
		v, present := values[sig.Name]

		if sig.Optional && (!present || v == nil) {
			offset += sig.DType.BitLength()
			continue
		}
		if sig.Optional {
			anyOptionalPresent = true
		}

		bits, encErr := encodeValue(sig.Name, sig.DType, v)
		if encErr != nil {
			return 0, 0, encErr
		}
		payload |= bits << uint(offset)
		offset += sig.DType.BitLength()
	}

	dlc = minLength
	if anyOptionalPresent {
		dlc = maxLength
	}
	return payload, dlc, nil
}

// encodeInline packs signals with no DLC bookkeeping; used for struct
// sub-signals, which are placed inline at the parent's current offset and
// never influence the outer message's DLC.
func encodeInline(signals []ir.Signal, values Values) (uint64, error) {
	payload, _, err := EncodeMessage(signals, 0, 0, values)
	return payload, err
}

func encodeValue(name string, dtype ir.DType, value any) (uint64, error) {
	switch d := dtype.(type) {
	case ir.Pad:
		return 0, nil

	case ir.Bool:
		b, ok := value.(bool)
		if !ok {
			return 0, canerr.New(canerr.KindOutOfRange, name+" expects a bool value", nil)
		}
		if b {
			return 1, nil
		}
		return 0, nil

	case ir.UInt:
		val, ok := asUint64(value)
		if !ok {
			return 0, canerr.New(canerr.KindOutOfRange, name+" expects an unsigned integer value", nil)
		}
		if !(d.Width == 64 && d.Min == 0 && d.Max == math.MaxUint64) {
			if val < d.Min || val > d.Max {
				return 0, canerr.OutOfRange(name, val, d.Min, d.Max)
			}
		}
		return val & mask(d.Width), nil

	case ir.SInt:
		val, ok := asInt64(value)
		if !ok {
			return 0, canerr.New(canerr.KindOutOfRange, name+" expects a signed integer value", nil)
		}
		if !isNativeSIntRange(d.Width, d.Min, d.Max) {
			if val < d.Min || val > d.Max {
				return 0, canerr.OutOfRange(name, val, d.Min, d.Max)
			}
		}
		return uint64(val) & mask(d.Width), nil

	case ir.Float:
		val, ok := asFloat64(value)
		if !ok {
			return 0, canerr.New(canerr.KindOutOfRange, name+" expects a float value", nil)
		}
		if !d.AllowNanInf && !isFinite(val) {
			return 0, canerr.NonFinite(name, val)
		}
		if d.HasMin && val < d.Min {
			return 0, canerr.OutOfRange(name, val, d.Min, "+inf")
		}
		if d.HasMax && val > d.Max {
			return 0, canerr.OutOfRange(name, val, "-inf", d.Max)
		}
		return encodeFloat(d.Width, val)

	case ir.Buf:
		buf, ok := value.([]byte)
		if !ok {
			return 0, canerr.New(canerr.KindOutOfRange, name+" expects a []byte value", nil)
		}
		maxLen := d.ByteLen()
		if len(buf) > maxLen {
			return 0, canerr.BufferTooLong(name, len(buf), maxLen)
		}
		var v uint64
		for i, b := range buf {
			v |= uint64(b) << uint(8*i)
		}
		return v, nil

	case ir.Bitset:
		val, ok := asUint64(value)
		if !ok {
			return 0, canerr.New(canerr.KindOutOfRange, name+" expects an unsigned integer value", nil)
		}
		if val > mask(d.Width) {
			return 0, canerr.OutOfRange(name, val, 0, mask(d.Width))
		}
		return val & mask(d.Width), nil

	case ir.Enum:
		idx, ok := encodeEnumIndex(d, value)
		if !ok {
			return 0, canerr.New(canerr.KindOutOfRange, name+" is not a valid enum value or index", nil)
		}
		return uint64(idx) & mask(d.Width), nil

	case ir.Struct:
		sub, ok := value.(Values)
		if !ok {
			m, isMap := value.(map[string]any)
			if !isMap {
				return 0, canerr.New(canerr.KindOutOfRange, name+" expects struct field values", nil)
			}
			sub = Values(m)
		}
		return encodeInline(d.Signals, sub)

	default:
		return 0, canerr.New(canerr.KindInvalidWidth, name+": unsupported dtype", nil)
	}
}

// encodeEnumIndex accepts either a named variant or its raw integer index;
// integer indices are accepted without membership validation so generated
// code can round-trip forward-compatible values.
func encodeEnumIndex(e ir.Enum, value any) (int, bool) {
	switch vv := value.(type) {
	case string:
		entry, ok := e.ValuesByName[vv]
		if !ok {
			return 0, false
		}
		return entry.Index, true
	default:
		if i, ok := asInt64(value); ok {
			return int(i), true
		}
		return 0, false
	}
}

func encodeFloat(width int, value float64) (uint64, error) {
	switch width {
	case 24:
		bits := math.Float32bits(float32(value))
		return uint64(bits >> 8), nil
	case 32:
		return uint64(math.Float32bits(float32(value))), nil
	case 64:
		return math.Float64bits(value), nil
	default:
		return 0, canerr.InvalidWidthf(width, "float width must be 24, 32, or 64, got %d", width)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// isNativeSIntRange reports whether [min,max] is exactly the native signed
// range for width, per the spec's tie-break: uint:64 and sint:{32,64} with
// exact native-range bounds skip bounds checks entirely.
func isNativeSIntRange(width int, min, max int64) bool {
	if width != 32 && width != 64 {
		return false
	}
	if width == 64 {
		return min == math.MinInt64 && max == math.MaxInt64
	}
	return min == -(1<<31) && max == (1<<31)-1
}

func asUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint:
		return int64(v), true
	case uint32:
		return int64(v), true
	default:
		return 0, false
	}
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		if i, ok := asInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}
