package runtime

import (
	"testing"

	"github.com/Redux-Robotics/canandrepo-public/internal/addr"
	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
)

type statusRecord struct {
	Faults uint64 `can:"faults"`
	Count  uint64 `can:"count"`
	Delta  int64  `can:"delta"`
	Flag   bool   `can:"flag"`
}

func statusMessage() ir.Message {
	return ir.Message{
		Name:      "Status",
		ID:        3,
		MinLength: 8,
		MaxLength: 8,
		Signals: []ir.Signal{
			{Name: "faults", DType: ir.Bitset{Width: 8}},
			{Name: "count", DType: ir.UInt{Width: 8, Max: 0xFF}},
			{Name: "delta", DType: ir.SInt{Width: 16, Min: -32768, Max: 32767}},
			{Name: "flag", DType: ir.Bool{}},
		},
	}
}

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	msg := statusMessage()
	in := statusRecord{Faults: 0x05, Count: 42, Delta: -100, Flag: true}

	fr, err := EncodeRecord(msg, 7, 3, &in)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if fr.DLC != 8 {
		t.Fatalf("DLC = %d, want 8", fr.DLC)
	}
	wantArb := addr.ComposeMessage(7, 3, 3)
	if fr.ArbID != wantArb {
		t.Fatalf("ArbID = 0x%08X, want 0x%08X", fr.ArbID, wantArb)
	}

	var out statusRecord
	if err := DecodeRecord(msg, fr, &out, true); err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

type optionalRecord struct {
	Control uint64  `can:"control_flag"`
	Index   *uint64 `can:"setting_index"`
}

func optionalMessage() ir.Message {
	return ir.Message{
		Name:      "SettingCommand",
		ID:        5,
		MinLength: 1,
		MaxLength: 8,
		Signals: []ir.Signal{
			{Name: "control_flag", DType: ir.UInt{Width: 8, Max: 0xFF}},
			{Name: "setting_index", DType: ir.UInt{Width: 8, Max: 0xFF}, Optional: true},
		},
	}
}

func TestEncodeRecordOptionalFieldAbsent(t *testing.T) {
	msg := optionalMessage()
	in := optionalRecord{Control: 2}
	fr, err := EncodeRecord(msg, 7, 3, &in)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if fr.DLC != 1 {
		t.Fatalf("DLC = %d, want 1", fr.DLC)
	}

	var out optionalRecord
	if err := DecodeRecord(msg, fr, &out, true); err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if out.Index != nil {
		t.Fatalf("expected Index to stay nil, got %v", *out.Index)
	}
}

func TestEncodeRecordOptionalFieldPresent(t *testing.T) {
	msg := optionalMessage()
	idx := uint64(6)
	in := optionalRecord{Control: 2, Index: &idx}
	fr, err := EncodeRecord(msg, 7, 3, &in)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if fr.DLC != 8 {
		t.Fatalf("DLC = %d, want 8", fr.DLC)
	}

	var out optionalRecord
	if err := DecodeRecord(msg, fr, &out, true); err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if out.Index == nil || *out.Index != 6 {
		t.Fatalf("Index = %v, want 6", out.Index)
	}
}

func TestDecodeAnyRoutesByArbID(t *testing.T) {
	msg := statusMessage()
	dev := &ir.Device{Messages: map[string]ir.Message{"Status": msg}}

	in := statusRecord{Faults: 1, Count: 2, Delta: 3, Flag: false}
	fr, err := EncodeRecord(msg, 7, 3, &in)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	name, values, ok := DecodeAny(dev, 7, fr)
	if !ok {
		t.Fatal("expected DecodeAny to match")
	}
	if name != "Status" {
		t.Fatalf("name = %q, want Status", name)
	}
	if values["count"].(uint64) != 2 {
		t.Fatalf("count = %v, want 2", values["count"])
	}

	if _, _, ok := DecodeAny(dev, 9, fr); ok {
		t.Fatal("expected DecodeAny to reject a mismatched device_type")
	}
}

func TestDecodeAnyAcceptsBroadcastDeviceType(t *testing.T) {
	msg := statusMessage()
	dev := &ir.Device{Messages: map[string]ir.Message{"Status": msg}}

	in := statusRecord{Faults: 1}
	fr, err := EncodeRecord(msg, addr.BroadcastDeviceType, 3, &in)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	if _, _, ok := DecodeAny(dev, 9, fr); !ok {
		t.Fatal("expected broadcast device_type to match any devType filter")
	}
}
