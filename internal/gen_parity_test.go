// Package internal_test is a cross-package golden test for component
// parity: it checks that the reflective runtime binding (C7) and the
// generated host binding (C13) stay bit-exact with the core bit codec
// (C5) they both derive from, per the "must remain bit-exact consistent"
// requirement on generated artefacts.
//
// C13 emits Go source text rather than an executable binding, so this
// test cannot literally compile and invoke the generated file; instead
// it pins the wire-format constant C13 would emit (the Buf byte count)
// against the value the codec itself actually consumes on decode, and
// checks C7's reflective path against the codec ground truth directly.
package internal_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Redux-Robotics/canandrepo-public/internal/codec"
	"github.com/Redux-Robotics/canandrepo-public/internal/genhost"
	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
	"github.com/Redux-Robotics/canandrepo-public/internal/runtime"
)

// Total signal width is 57 bits (8+8+32+9), staying within the 64-bit
// payload budget for an 8-byte message.
func parityMessage() ir.Message {
	return ir.Message{
		Name: "Status", ID: 1, Source: ir.SourceDevice, MinLength: 8, MaxLength: 8,
		Signals: []ir.Signal{
			{Name: "faults", DType: ir.Bitset{Width: 8}},
			{Name: "temperature", DType: ir.SInt{Width: 8, Min: -128, Max: 127}},
			{Name: "ratio", DType: ir.Float{Width: 32, AllowNanInf: true}},
			// Width 9 spills one bit past a byte boundary; the old integer
			// division (w+1)/8 gave 1 byte: it must decode to 2 bytes, not 1.
			{Name: "raw", DType: ir.Buf{Width: 9}},
		},
	}
}

type statusRecord struct {
	Faults      uint64  `can:"faults"`
	Temperature int64   `can:"temperature"`
	Ratio       float64 `can:"ratio"`
	Raw         []byte  `can:"raw"`
}

// TestRuntimeMatchesCodecGroundTruth confirms C7's reflective encode
// produces the identical payload codec.EncodeMessage produces directly,
// for a fixture that exercises a bitset, a signed integer, a float and a
// Buf whose width is not a whole number of bytes.
func TestRuntimeMatchesCodecGroundTruth(t *testing.T) {
	msg := parityMessage()
	// 0xFF, 0x01 is exactly nine set bits (0x1FF), the full width of the
	// raw signal, so masking to Width during decode is a no-op here.
	rec := statusRecord{Faults: 0x05, Temperature: -1, Ratio: 1.5, Raw: []byte{0xFF, 0x01}}

	fr, err := runtime.EncodeRecord(msg, 7, 3, &rec)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	values := codec.Values{
		"faults":      uint64(0x05),
		"temperature": int64(-1),
		"ratio":       1.5,
		"raw":         []byte{0xFF, 0x01},
	}
	wantPayload, wantDLC, err := codec.EncodeMessage(msg.Signals, msg.MinLength, msg.MaxLength, values)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	if fr.Payload != wantPayload {
		t.Fatalf("runtime payload = 0x%X, want 0x%X (codec ground truth)", fr.Payload, wantPayload)
	}
	if fr.DLC != wantDLC {
		t.Fatalf("runtime dlc = %d, want %d", fr.DLC, wantDLC)
	}

	var got statusRecord
	if err := runtime.DecodeRecord(msg, fr, &got, true); err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if len(got.Raw) != 2 {
		t.Fatalf("decoded Raw len = %d, want 2 (ceil(9/8) bytes)", len(got.Raw))
	}
	if got.Raw[0] != 0xFF || got.Raw[1] != 0x01 {
		t.Fatalf("decoded Raw = % X, want FF 01", got.Raw)
	}
}

// TestGenhostBufByteCountMatchesCodec pins the byte count C13's generated
// pack/unpack calls use for a Buf signal against the ceil(width/8) count
// the codec itself uses on decode. These must never diverge: a mismatch
// here previously meant C13's generated code decoded a different number
// of trailing Buf bytes than C7/C5 for the same wire payload.
func TestGenhostBufByteCountMatchesCodec(t *testing.T) {
	msg := parityMessage()
	dev := &ir.Device{Name: "ParityDevice", Messages: map[string]ir.Message{"Status": msg}}

	src, err := genhost.Generate(dev, "candevspec")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	values := codec.Values{
		"faults":      uint64(0),
		"temperature": int64(0),
		"ratio":       0.0,
		"raw":         []byte{0xFF, 0x01},
	}
	payload, _, err := codec.EncodeMessage(msg.Signals, msg.MinLength, msg.MaxLength, values)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	decoded, err := codec.DecodeMessage(msg.Signals, payload, msg.MaxLength*8, true)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	rawBuf, ok := decoded["raw"].([]byte)
	if !ok {
		t.Fatalf("decoded raw = %T, want []byte", decoded["raw"])
	}
	wantByteLen := len(rawBuf)

	// faults(8) + temperature(8) + ratio(32) = 48 bits before raw starts.
	packCall := fmt.Sprintf("canEncodeBuf(f.Raw, %d)", wantByteLen)
	unpackCall := fmt.Sprintf("canDecodeBuf((raw >> 48) & uint64(0x1ff), %d)", wantByteLen)
	if !strings.Contains(src, packCall) {
		t.Errorf("generated source missing %q (codec decodes Buf:9 to %d bytes)\n%s", packCall, wantByteLen, src)
	}
	if !strings.Contains(src, unpackCall) {
		t.Errorf("generated source missing %q\n%s", unpackCall, src)
	}
}
