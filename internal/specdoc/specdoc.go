// Package specdoc is the raw, unresolved representation of one device
// specification file (component C1). It knows nothing about inheritance,
// type resolution, or bit layout — only how to parse a TOML document into
// a tree of Go structs whose field names mirror the spec's keys.
package specdoc

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// VendordepSpec names the per-target namespace a generator should use.
type VendordepSpec struct {
	JavaPackage  string `toml:"java_package"`
	CppNamespace string `toml:"cpp_namespace"`
}

// MessageSignalSpec is one signal entry inside a message or struct type.
type MessageSignalSpec struct {
	Name         string `toml:"name"`
	Comment      string `toml:"comment"`
	DType        string `toml:"dtype"`
	Optional     bool   `toml:"optional"`
	DefaultValue any    `toml:"default_value"`
	Mux          bool   `toml:"mux"`
	MuxedBy      string `toml:"muxed_by"`
	MuxedMatch   any    `toml:"muxed_match"`
}

// DeviceMessageSpec is one [msg.X] table.
type DeviceMessageSpec struct {
	ID                 int                  `toml:"id"`
	MinLength          *int                 `toml:"min_length"`
	MaxLength          *int                 `toml:"max_length"`
	Length             *int                 `toml:"length"`
	FramePeriodSetting string               `toml:"frame_period_setting"`
	Source             string               `toml:"source"`
	IsPublic           *bool                `toml:"is_public"`
	Vendordep          *bool                `toml:"vendordep"`
	Comment            string               `toml:"comment"`
	Signals            []MessageSignalSpec  `toml:"signals"`
}

// DeviceSettingSpec is one [settings.X] table.
type DeviceSettingSpec struct {
	ID             int      `toml:"id"`
	Comment        string   `toml:"comment"`
	DType          string   `toml:"dtype"`
	DefaultValue   any      `toml:"default_value"`
	IsPublic       *bool    `toml:"is_public"`
	Vendordep      *bool    `toml:"vendordep"`
	VdepSetting    *bool    `toml:"vdep_setting"`
	Readable       *bool    `toml:"readable"`
	Writable       *bool    `toml:"writable"`
	ResetOnDefault *bool    `toml:"reset_on_default"`
	SpecialFlags   []string `toml:"special_flags"`
}

// BitsetFlagSpec names one bit inside a bitset type.
type BitsetFlagSpec struct {
	Name    string `toml:"name"`
	Comment string `toml:"comment"`
}

// TypeSpec is one [types.X] table: a named DType definition shared by
// reference across signals. Its Signals field is populated for struct
// types; BitFlags for bitset types.
type TypeSpec struct {
	BType       string               `toml:"btype"`
	Comment     string               `toml:"comment"`
	Unit        string               `toml:"unit"`
	UType       string               `toml:"utype"`
	Bits        int                  `toml:"bits"`
	Min         any                  `toml:"min"`
	Max         any                  `toml:"max"`
	AllowNanInf *bool                `toml:"allow_nan_inf"`
	DefaultValue any                 `toml:"default_value"`
	Factor      [2]int64             `toml:"factor"`
	Offset      any                  `toml:"offset"`
	Signals     []MessageSignalSpec  `toml:"signals"`
	BitFlags    []BitsetFlagSpec     `toml:"bit_flags"`
}

// SettingCommandSpec is one [setting_commands.X] table.
type SettingCommandSpec struct {
	ID        int    `toml:"id"`
	Vendordep *bool  `toml:"vendordep"`
	Comment   string `toml:"comment"`
}

// EnumEntrySpec is one named variant of an EnumSpec.
type EnumEntrySpec struct {
	ID      int    `toml:"id"`
	Comment string `toml:"comment"`
}

// EnumSpec is one [enums.X] table.
type EnumSpec struct {
	Comment      string                   `toml:"comment"`
	BType        string                   `toml:"btype"`
	Bits         int                      `toml:"bits"`
	IsPublic     *bool                    `toml:"is_public"`
	DefaultValue string                   `toml:"default_value"`
	Values       map[string]EnumEntrySpec `toml:"values"`
}

// DeviceSpec is the raw, top-level parse of one spec file, before
// inheritance resolution (internal/resolve) and lowering (internal/lower).
type DeviceSpec struct {
	Name            string                         `toml:"name"`
	Base            []string                       `toml:"base"`
	Arch            string                         `toml:"arch"`
	IsPublic        *bool                          `toml:"is_public"`
	DevType         int                            `toml:"dev_type"`
	DevClass        int                            `toml:"dev_class"`
	Msg             map[string]DeviceMessageSpec   `toml:"msg"`
	Settings        map[string]DeviceSettingSpec   `toml:"settings"`
	Types           map[string]TypeSpec            `toml:"types"`
	Enums           map[string]EnumSpec            `toml:"enums"`
	SettingCommands map[string]SettingCommandSpec  `toml:"setting_commands"`
	Vendordep       *VendordepSpec                 `toml:"vendordep"`
	SchemaVersion   string                         `toml:"schema_version"`
}

// Parse decodes raw TOML bytes into a DeviceSpec and normalizes its empty
// maps, schema_version and type factors, matching the defaults the
// original Serde layer applies at construction time. Default-true
// booleans stay nil here and are resolved by the ...OrDefault accessors.
func Parse(data []byte) (*DeviceSpec, error) {
	var d DeviceSpec
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("specdoc: parse: %w", err)
	}
	d.normalize()
	return &d, nil
}

// Load reads and parses a spec file from disk.
func Load(path string) (*DeviceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("specdoc: load %s: %w", path, err)
	}
	return Parse(data)
}

func boolDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (d *DeviceSpec) normalize() {
	if d.Msg == nil {
		d.Msg = map[string]DeviceMessageSpec{}
	}
	if d.Settings == nil {
		d.Settings = map[string]DeviceSettingSpec{}
	}
	if d.Types == nil {
		d.Types = map[string]TypeSpec{}
	}
	if d.Enums == nil {
		d.Enums = map[string]EnumSpec{}
	}
	if d.SettingCommands == nil {
		d.SettingCommands = map[string]SettingCommandSpec{}
	}
	if d.SchemaVersion == "" {
		d.SchemaVersion = "0.0.0"
	}
	for name, t := range d.Types {
		if t.Factor == [2]int64{0, 0} {
			t.Factor = [2]int64{1, 1}
		}
		d.Types[name] = t
	}
}

// IsPublicOrDefault resolves the default-true is_public flag of a message.
func (m DeviceMessageSpec) IsPublicOrDefault() bool { return boolDefault(m.IsPublic, true) }

// VendordepOrDefault resolves the default-true vendordep flag of a message.
func (m DeviceMessageSpec) VendordepOrDefault() bool { return boolDefault(m.Vendordep, true) }

// IsPublicOrDefault resolves the default-true is_public flag of a setting.
func (s DeviceSettingSpec) IsPublicOrDefault() bool { return boolDefault(s.IsPublic, true) }

// VendordepOrDefault resolves the default-true vendordep flag of a setting.
func (s DeviceSettingSpec) VendordepOrDefault() bool { return boolDefault(s.Vendordep, true) }

// VdepSettingOrDefault resolves the default-true vdep_setting flag.
func (s DeviceSettingSpec) VdepSettingOrDefault() bool { return boolDefault(s.VdepSetting, true) }

// ReadableOrDefault resolves the default-true readable flag.
func (s DeviceSettingSpec) ReadableOrDefault() bool { return boolDefault(s.Readable, true) }

// WritableOrDefault resolves the default-true writable flag.
func (s DeviceSettingSpec) WritableOrDefault() bool { return boolDefault(s.Writable, true) }

// ResetOnDefaultOrDefault resolves the default-true reset_on_default flag.
func (s DeviceSettingSpec) ResetOnDefaultOrDefault() bool {
	return boolDefault(s.ResetOnDefault, true)
}

// IsPublicOrDefault resolves the default-true is_public flag of an enum.
func (e EnumSpec) IsPublicOrDefault() bool { return boolDefault(e.IsPublic, true) }

// AllowNanInfOrDefault resolves the default-true allow_nan_inf flag.
func (t TypeSpec) AllowNanInfOrDefault() bool { return boolDefault(t.AllowNanInf, true) }

// VendordepOrDefault resolves the default-true vendordep flag of a
// setting command.
func (c SettingCommandSpec) VendordepOrDefault() bool { return boolDefault(c.Vendordep, true) }
