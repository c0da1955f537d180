package resolve

import (
	"testing"

	"github.com/Redux-Robotics/canandrepo-public/internal/canerr"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

type mapLoader map[string]*specdoc.DeviceSpec

func (m mapLoader) LoadBase(name string) (*specdoc.DeviceSpec, error) {
	spec, ok := m[name]
	if !ok {
		return nil, canerr.Specf("no such base %q", name)
	}
	return spec, nil
}

func blankSpec(name string) *specdoc.DeviceSpec {
	s, _ := specdoc.Parse([]byte("name = \"" + name + "\"\n"))
	return s
}

// S5: SETTING["CAN_ID"].id = 0 must appear in the resolved IR regardless of
// the base spec's own original enum set.
func TestResolveSynthesizesSettingEnum(t *testing.T) {
	base := blankSpec("Base")
	base.Settings["CAN_ID"] = specdoc.DeviceSettingSpec{ID: 0, DType: "uint:8"}
	base.Enums["SOME_OTHER_ENUM"] = specdoc.EnumSpec{BType: "uint", Bits: 8}

	root := blankSpec("Derived")
	root.Base = []string{"Base"}

	resolved, err := Resolve(root, mapLoader{"Base": base})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	settingEnum, ok := resolved.Enums["SETTING"]
	if !ok {
		t.Fatal("expected synthesized SETTING enum")
	}
	entry, ok := settingEnum.Values["CAN_ID"]
	if !ok {
		t.Fatal("expected SETTING.CAN_ID entry")
	}
	if entry.ID != 0 {
		t.Fatalf("SETTING.CAN_ID.id = %d, want 0", entry.ID)
	}
	if _, ok := resolved.Enums["SOME_OTHER_ENUM"]; !ok {
		t.Fatal("expected base enum to survive the merge")
	}
}

func TestResolveUpperOverridesBaseOnCollision(t *testing.T) {
	base := blankSpec("Base")
	base.Msg["Status"] = specdoc.DeviceMessageSpec{ID: 1, Comment: "base version"}

	root := blankSpec("Derived")
	root.Base = []string{"Base"}
	root.Msg["Status"] = specdoc.DeviceMessageSpec{ID: 1, Comment: "derived version"}

	resolved, err := Resolve(root, mapLoader{"Base": base})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Msg["Status"].Comment != "derived version" {
		t.Fatalf("Status.Comment = %q, want 'derived version'", resolved.Msg["Status"].Comment)
	}
}

func TestResolveIdentityFieldsComeFromUpper(t *testing.T) {
	base := blankSpec("Base")
	base.Arch = "base-arch"
	base.DevType = 1

	root := blankSpec("Derived")
	root.Base = []string{"Base"}
	root.Arch = "derived-arch"
	root.DevType = 9

	resolved, err := Resolve(root, mapLoader{"Base": base})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Arch != "derived-arch" || resolved.DevType != 9 {
		t.Fatalf("identity fields = %q/%d, want derived-arch/9", resolved.Arch, resolved.DevType)
	}
}

func TestResolveCyclicBaseFails(t *testing.T) {
	// A base name repeated in the same device's declared base list is
	// treated as a cycle, since Resolve only walks root's own base chain
	// (not a base's further bases) and relies on a simple visited-set.
	root := blankSpec("Derived")
	root.Base = []string{"Base", "Base"}

	_, err := Resolve(root, mapLoader{"Base": blankSpec("Base")})
	if !canerr.Is(err, canerr.KindSpecInvalid) {
		t.Fatalf("err = %v, want KindSpecInvalid", err)
	}
}

func TestResolveMissingBaseFails(t *testing.T) {
	root := blankSpec("Derived")
	root.Base = []string{"Nonexistent"}

	_, err := Resolve(root, mapLoader{})
	if err == nil {
		t.Fatal("expected error for missing base")
	}
}
