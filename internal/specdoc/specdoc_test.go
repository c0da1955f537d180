package specdoc

import "testing"

const sampleTOML = `
name = "StatusDevice"
arch = "arm"
dev_type = 7
dev_class = 2

[msg.Status]
id = 1
min_length = 8
max_length = 8
source = "device"
comment = "status frame"

[[msg.Status.signals]]
name = "faults"
dtype = "bitset:Faults"

[settings.CAN_ID]
id = 0
dtype = "uint:8"

[types.Faults]
btype = "bitset"
bits = 8

[[types.Faults.bit_flags]]
name = "OVERTEMP"
comment = "overtemperature"
`

func TestParseBasicFields(t *testing.T) {
	spec, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Name != "StatusDevice" {
		t.Fatalf("Name = %q", spec.Name)
	}
	if spec.DevType != 7 {
		t.Fatalf("DevType = %d, want 7", spec.DevType)
	}
	msg, ok := spec.Msg["Status"]
	if !ok {
		t.Fatal("expected msg.Status to be present")
	}
	if msg.ID != 1 || len(msg.Signals) != 1 || msg.Signals[0].Name != "faults" {
		t.Fatalf("msg.Status = %+v", msg)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	spec, err := Parse([]byte(`name = "X"`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Msg == nil || spec.Settings == nil || spec.Types == nil || spec.Enums == nil || spec.SettingCommands == nil {
		t.Fatal("expected all map fields to be normalized to non-nil")
	}
	if spec.SchemaVersion != "0.0.0" {
		t.Fatalf("SchemaVersion = %q, want 0.0.0", spec.SchemaVersion)
	}
}

func TestTypeFactorDefault(t *testing.T) {
	spec, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ty := spec.Types["Faults"]
	if ty.Factor != [2]int64{1, 1} {
		t.Fatalf("Factor = %v, want [1 1]", ty.Factor)
	}
}

func TestBoolDefaultAccessors(t *testing.T) {
	msg := DeviceMessageSpec{}
	if !msg.IsPublicOrDefault() {
		t.Fatal("expected IsPublicOrDefault to default true")
	}
	f := false
	msg.IsPublic = &f
	if msg.IsPublicOrDefault() {
		t.Fatal("expected explicit false to override default")
	}

	setting := DeviceSettingSpec{}
	if !setting.ReadableOrDefault() || !setting.WritableOrDefault() || !setting.VdepSettingOrDefault() || !setting.ResetOnDefaultOrDefault() {
		t.Fatal("expected setting bool accessors to default true")
	}
}
