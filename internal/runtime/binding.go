// Package runtime is the reflective host binding (component C7): it maps
// plain Go structs tagged `can:"signal_name"` onto codec.Values and back,
// and routes received frames to the message schema that describes them.
// This is the one package in the pipeline allowed to use reflect; the
// codec itself (internal/codec) stays on type switches, per the IR
// package's non-reflective design note.
//
// Grounded on pycanandmessage's BaseMessage.to_wrapper/from_wrapper, which
// walks typing.get_type_hints(..., include_extras=True) to find each
// field's Signal annotation; struct tags are this package's equivalent of
// that annotation walk.
package runtime

import (
	"fmt"
	"reflect"

	"github.com/Redux-Robotics/canandrepo-public/internal/addr"
	"github.com/Redux-Robotics/canandrepo-public/internal/canerr"
	"github.com/Redux-Robotics/canandrepo-public/internal/codec"
	"github.com/Redux-Robotics/canandrepo-public/internal/frame"
	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
)

// canTag is the struct tag key naming the signal a field binds to.
// Optional signals bind to a pointer field; a nil pointer means absent.
const canTag = "can"

// EncodeRecord packs record (a pointer to a tagged struct) into a Frame
// addressed to deviceID under devType, using msg's signal layout.
func EncodeRecord(msg ir.Message, devType, deviceID uint8, record any) (frame.Frame, error) {
	rv := reflect.ValueOf(record)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return frame.Frame{}, fmt.Errorf("runtime: EncodeRecord: record must be a struct or struct pointer, got %s", rv.Kind())
	}

	values, err := valuesFromStruct(msg.Signals, rv)
	if err != nil {
		return frame.Frame{}, err
	}

	payload, dlc, err := codec.EncodeMessage(msg.Signals, msg.MinLength, msg.MaxLength, values)
	if err != nil {
		return frame.Frame{}, err
	}

	arbID := addr.ComposeMessage(devType, deviceID, uint16(msg.ID))
	return frame.Frame{ArbID: arbID, DLC: dlc, Payload: payload}, nil
}

// DecodeRecord unpacks fr's payload into record (a pointer to a tagged
// struct), per msg's signal layout. strict mirrors codec.DecodeMessage's
// strict flag.
func DecodeRecord(msg ir.Message, fr frame.Frame, record any, strict bool) error {
	rv := reflect.ValueOf(record)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("runtime: DecodeRecord: record must be a struct pointer")
	}

	values, err := codec.DecodeMessage(msg.Signals, fr.Payload, fr.DLC*8, strict)
	if err != nil {
		return err
	}

	return applyValuesToStruct(msg.Signals, rv.Elem(), values)
}

// DecodeAny routes fr to whichever of dev's messages its arbitration id
// names, filtered to devType's broadcast-and-own-type namespace, and
// decodes its payload. It reports ok=false (never an error) for an id
// that doesn't match any known message, matching decode_msg_generic's
// "return None" on an unrecognized id.
func DecodeAny(dev *ir.Device, devType uint8, fr frame.Frame) (name string, values codec.Values, ok bool) {
	id := addr.Decompose(fr.ArbID)
	if id.VendorID != addr.VendorID {
		return "", nil, false
	}
	if id.DeviceType != devType && id.DeviceType != addr.BroadcastDeviceType {
		return "", nil, false
	}

	for msgName, msg := range dev.Messages {
		if uint16(msg.ID) != id.APIIndex {
			continue
		}
		v, err := codec.DecodeMessage(msg.Signals, fr.Payload, fr.DLC*8, false)
		if err != nil {
			return "", nil, false
		}
		return msgName, v, true
	}
	return "", nil, false
}

func valuesFromStruct(signals []ir.Signal, rv reflect.Value) (codec.Values, error) {
	fields := canFieldIndex(rv.Type())
	values := make(codec.Values, len(signals))

	for _, sig := range signals {
		if sig.IsPad() {
			continue
		}
		idx, found := fields[sig.Name]
		if !found {
			if sig.Optional {
				continue
			}
			return nil, fmt.Errorf("runtime: no field tagged can:%q on %s", sig.Name, rv.Type())
		}

		fv := rv.Field(idx)
		if sig.Optional {
			if fv.Kind() != reflect.Ptr {
				return nil, fmt.Errorf("runtime: optional signal %q must bind to a pointer field", sig.Name)
			}
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}

		val, err := valueFromField(sig.Name, sig.DType, fv)
		if err != nil {
			return nil, err
		}
		values[sig.Name] = val
	}
	return values, nil
}

func valueFromField(name string, dtype ir.DType, fv reflect.Value) (any, error) {
	if st, ok := dtype.(ir.Struct); ok {
		inner := fv
		if inner.Kind() == reflect.Ptr {
			if inner.IsNil() {
				return nil, fmt.Errorf("runtime: signal %q: nil struct field", name)
			}
			inner = inner.Elem()
		}
		return valuesFromStruct(st.Signals, inner)
	}
	return fv.Interface(), nil
}

func applyValuesToStruct(signals []ir.Signal, rv reflect.Value, values codec.Values) error {
	fields := canFieldIndex(rv.Type())

	for _, sig := range signals {
		if sig.IsPad() {
			continue
		}
		val, present := values[sig.Name]
		idx, found := fields[sig.Name]
		if !found {
			continue
		}
		fv := rv.Field(idx)

		if sig.Optional {
			if !present {
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
			if fv.Kind() != reflect.Ptr {
				return fmt.Errorf("runtime: optional signal %q must bind to a pointer field", sig.Name)
			}
			target := reflect.New(fv.Type().Elem())
			if err := setField(sig.Name, sig.DType, target.Elem(), val); err != nil {
				return err
			}
			fv.Set(target)
			continue
		}

		if !present {
			return canerr.ShortPayload(sig.Name, 0, 0)
		}
		if err := setField(sig.Name, sig.DType, fv, val); err != nil {
			return err
		}
	}
	return nil
}

func setField(name string, dtype ir.DType, fv reflect.Value, val any) error {
	if st, ok := dtype.(ir.Struct); ok {
		sub, ok := val.(codec.Values)
		if !ok {
			m, ok := val.(map[string]any)
			if !ok {
				return fmt.Errorf("runtime: signal %q: expected struct values, got %T", name, val)
			}
			sub = codec.Values(m)
		}
		target := fv
		if fv.Kind() == reflect.Ptr {
			target = reflect.New(fv.Type().Elem())
			fv.Set(target)
			target = target.Elem()
		}
		return applyValuesToStruct(st.Signals, target, sub)
	}

	rv := reflect.ValueOf(val)
	if !rv.Type().ConvertibleTo(fv.Type()) {
		return fmt.Errorf("runtime: signal %q: cannot assign %T to %s", name, val, fv.Type())
	}
	fv.Set(rv.Convert(fv.Type()))
	return nil
}

func canFieldIndex(rt reflect.Type) map[string]int {
	out := make(map[string]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get(canTag)
		if tag == "" || tag == "-" {
			continue
		}
		out[tag] = i
	}
	return out
}
