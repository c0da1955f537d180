package codec

import (
	"math"

	"github.com/Redux-Robotics/canandrepo-public/internal/canerr"
	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
)

// DecodeMessage unpacks a little-endian payload into a Values map keyed by
// signal name, dual to EncodeMessage. dlcBits is the known payload high-bit
// limit (dlc*8); a signal whose offset reaches or exceeds it is treated as
// absent. Optional signals tolerate absence silently; required signals
// either fail with canerr.KindShortPayload (strict) or decode to their
// DType's natural zero value (lenient).
func DecodeMessage(signals []ir.Signal, payload uint64, dlcBits int, strict bool) (Values, error) {
	return decodeSignals(signals, payload, dlcBits, strict)
}

func decodeSignals(signals []ir.Signal, payload uint64, limitBits int, strict bool) (Values, error) {
	result := make(Values, len(signals))
	offset := 0

	for _, sig := range signals {
		width := sig.DType.BitLength()
		if sig.IsPad() {
			offset += width
			continue
		}

		if offset >= limitBits {
			if sig.Optional {
				offset += width
				continue
			}
			if strict {
				return nil, canerr.ShortPayload(sig.Name, offset, limitBits)
			}
			result[sig.Name] = zeroValue(sig.DType)
			offset += width
			continue
		}

		val, err := decodeValue(sig.Name, sig.DType, payload, offset, limitBits, strict)
		if err != nil {
			return nil, err
		}
		result[sig.Name] = val
		offset += width
	}

	return result, nil
}

func decodeValue(name string, dtype ir.DType, payload uint64, offset, limitBits int, strict bool) (any, error) {
	shifted := payload >> uint(offset)

	switch d := dtype.(type) {
	case ir.Bool:
		return shifted&1 != 0, nil

	case ir.UInt:
		return shifted & mask(d.Width), nil

	case ir.SInt:
		raw := shifted & mask(d.Width)
		return signExtend(raw, d.Width), nil

	case ir.Float:
		return decodeFloat(d.Width, shifted&mask(d.Width))

	case ir.Buf:
		raw := shifted & mask(d.Width)
		n := (d.Width + 7) / 8
		buf := make([]byte, n)
		for i := 0; i < n; i++ {
			buf[i] = byte(raw >> uint(8*i))
		}
		return buf, nil

	case ir.Bitset:
		return shifted & mask(d.Width), nil

	case ir.Enum:
		return int(shifted & mask(d.Width)), nil

	case ir.Struct:
		innerLimit := limitBits - offset
		return decodeSignals(d.Signals, shifted, innerLimit, strict)

	default:
		return nil, canerr.New(canerr.KindInvalidWidth, name+": unsupported dtype", nil)
	}
}

func decodeFloat(width int, raw uint64) (float64, error) {
	switch width {
	case 24:
		bits := uint32(raw&0xFFFFFF) << 8
		return float64(math.Float32frombits(bits)), nil
	case 32:
		return float64(math.Float32frombits(uint32(raw))), nil
	case 64:
		return math.Float64frombits(raw), nil
	default:
		return 0, canerr.InvalidWidthf(width, "float width must be 24, 32, or 64, got %d", width)
	}
}

// zeroValue returns the natural zero/null for a DType when a signal's
// offset falls beyond the decodable payload in lenient mode.
func zeroValue(d ir.DType) any {
	switch v := d.(type) {
	case ir.UInt:
		return uint64(0)
	case ir.SInt:
		return int64(0)
	case ir.Bool:
		return false
	case ir.Float:
		return float64(0)
	case ir.Buf:
		return []byte{}
	case ir.Bitset:
		return uint64(0)
	case ir.Enum:
		return 0
	case ir.Struct:
		zeros := make(Values, len(v.Signals))
		for _, sig := range v.Signals {
			if sig.IsPad() {
				continue
			}
			zeros[sig.Name] = zeroValue(sig.DType)
		}
		return zeros
	default:
		return nil
	}
}
