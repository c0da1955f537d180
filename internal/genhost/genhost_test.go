package genhost

import (
	"strings"
	"testing"

	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
)

func deviceWithMessage() *ir.Device {
	return &ir.Device{
		Name: "StatusDevice",
		Messages: map[string]ir.Message{
			"Status": {
				Name:      "Status",
				ID:        1,
				MinLength: 4,
				MaxLength: 4,
				Signals: []ir.Signal{
					{Name: "faults", DType: ir.Bitset{Width: 8}},
					{Name: "pad", DType: ir.Pad{Width: 8}},
					{Name: "temperature", DType: ir.SInt{Width: 16, Min: -32768, Max: 32767}},
				},
			},
		},
	}
}

func TestGenerateEmitsPackageAndPrelude(t *testing.T) {
	src, err := Generate(deviceWithMessage(), "candevspec")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(src, "package candevspec") {
		t.Error("missing package clause")
	}
	if !strings.Contains(src, "func canBoolBit(") || !strings.Contains(src, "func canEncodeFloat(") {
		t.Error("missing support prelude helpers")
	}
	if !strings.Contains(src, "import \"math\"") {
		t.Error("missing math import")
	}
}

func TestGenerateEmitsConstructExtractPair(t *testing.T) {
	src, err := Generate(deviceWithMessage(), "candevspec")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{
		"type StatusFields struct {",
		"Faults uint64",
		"Temperature int64",
		"func ConstructStatus(devType, deviceID uint8, f StatusFields) (arbID uint32, dlc int, payload uint64)",
		"func ExtractStatus(payload uint64, dlc int) StatusFields",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("output missing %q", want)
		}
	}
	// Pad signals never become struct fields.
	if strings.Contains(src, "Pad uint64") {
		t.Error("pad signal leaked into generated struct fields")
	}
}

func TestGenerateDoesNotImportModulePackages(t *testing.T) {
	src, err := Generate(deviceWithMessage(), "candevspec")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(src, "canandrepo-public") {
		t.Error("generated output must not depend on this module's own packages")
	}
	if strings.Contains(src, "\"reflect\"") {
		t.Error("generated output must not use reflection")
	}
}

func TestGenerateSharedStructDeduplicated(t *testing.T) {
	flags := ir.Struct{
		Name: "SettingFlags",
		Signals: []ir.Signal{
			{Name: "ephemeral", DType: ir.Bool{}},
		},
	}
	dev := &ir.Device{
		Name: "D",
		Messages: map[string]ir.Message{
			"SetSetting": {
				Name: "SetSetting", ID: 1, MinLength: 1, MaxLength: 1,
				Signals: []ir.Signal{{Name: "flags", DType: flags}},
			},
			"ReportSetting": {
				Name: "ReportSetting", ID: 2, MinLength: 1, MaxLength: 1,
				Signals: []ir.Signal{{Name: "flags", DType: flags}},
			},
		},
	}
	src, err := Generate(dev, "candevspec")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n := strings.Count(src, "type SettingFlagsFields struct"); n != 1 {
		t.Fatalf("expected SettingFlagsFields emitted exactly once, got %d", n)
	}
	if n := strings.Count(src, "func packSettingFlagsFields("); n != 1 {
		t.Fatalf("expected packSettingFlagsFields emitted exactly once, got %d", n)
	}
}

func TestGenerateEmitsSettingConstantsAndDefaults(t *testing.T) {
	dev := &ir.Device{
		Name: "D",
		Settings: map[string]ir.Setting{
			"CAN_ID": {Name: "CAN_ID", ID: 0, DType: ir.UInt{Width: 8, Default: 5}},
		},
		SettingCommands: map[string]ir.SettingCommand{
			"FETCH": {Name: "FETCH", ID: 1},
		},
	}
	src, err := Generate(dev, "candevspec")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{
		"SettingCANID = 0",
		"var SettingDefaults = map[int]uint64{",
		"SettingCANID: 0x5,",
		"SettingCommandFETCH = 1",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("output missing %q\n%s", want, src)
		}
	}
}

func TestGoIdent(t *testing.T) {
	cases := map[string]string{
		"control_flag":  "ControlFlag",
		"setting-index": "SettingIndex",
		"faults":        "Faults",
	}
	for in, want := range cases {
		if got := goIdent(in); got != want {
			t.Errorf("goIdent(%q) = %q, want %q", in, got, want)
		}
	}
}
