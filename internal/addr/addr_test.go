package addr

import "testing"

// S6 from the spec's scenario list.
func TestComposeScenarioS6(t *testing.T) {
	got := Compose(ID{DeviceType: 7, VendorID: 0x0E, APIIndex: 31, DeviceID: 3})
	const want = 0x070E07C3
	if got != want {
		t.Fatalf("Compose() = 0x%08X, want 0x%08X", got, want)
	}
}

func TestComposeMessageMatchesCompose(t *testing.T) {
	got := ComposeMessage(7, 3, 31)
	const want = 0x070E07C3
	if got != want {
		t.Fatalf("ComposeMessage() = 0x%08X, want 0x%08X", got, want)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	cases := []ID{
		{DeviceType: 7, VendorID: 0x0E, APIIndex: 31, DeviceID: 3},
		{DeviceType: 0, VendorID: 0x0E, APIIndex: 0, DeviceID: 0},
		{DeviceType: 0x1F, VendorID: 0xFF, APIIndex: 0x3FF, DeviceID: 0x3F},
	}
	for _, want := range cases {
		raw := Compose(want)
		got := Decompose(raw)
		if got != want {
			t.Errorf("Decompose(Compose(%+v)) = %+v", want, got)
		}
	}
}

func TestMasks(t *testing.T) {
	a := ComposeMessage(7, 3, 31)
	b := ComposeMessage(7, 5, 12)
	if a&MaskDeviceTypeVendor != b&MaskDeviceTypeVendor {
		t.Fatalf("expected same device_type/vendor partition for %08X and %08X", a, b)
	}
	if a&MaskAllButAPIIndex == b&MaskAllButAPIIndex {
		t.Fatalf("expected different device_id partition for %08X and %08X", a, b)
	}
}

func TestBroadcastDeviceType(t *testing.T) {
	if BroadcastDeviceType != 0 {
		t.Fatalf("BroadcastDeviceType = %d, want 0", BroadcastDeviceType)
	}
}
