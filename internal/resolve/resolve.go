// Package resolve implements the inheritance resolver (component C2): it
// merges a device spec with the bases it declares into one resolved
// specdoc.DeviceSpec and synthesizes the SETTING and SETTING_COMMAND
// sentinel enums. It never mutates its inputs — each merge step returns a
// fresh value, per the "no global mutable state" design note.
package resolve

import (
	"strings"

	"github.com/Redux-Robotics/canandrepo-public/internal/canerr"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

// Resolve walks root's declared base chain (in order, exactly as declared
// on root — a base's own further bases are not transitively re-walked,
// matching the original loader) and returns the fully merged spec with the
// SETTING/SETTING_COMMAND enums synthesized in.
func Resolve(root *specdoc.DeviceSpec, loader BaseLoader) (*specdoc.DeviceSpec, error) {
	upper := cloneSpec(root)

	visited := map[string]bool{}
	baseNames := append([]string(nil), root.Base...)

	for _, name := range baseNames {
		lower := strings.ToLower(name)
		if visited[lower] {
			return nil, canerr.Specf("cyclic base reference at %q", name)
		}
		visited[lower] = true

		base, err := loader.LoadBase(name)
		if err != nil {
			return nil, err
		}

		upper = mergeBase(base, upper)
	}

	synthesizeImplicitEnums(upper)
	return upper, nil
}

// mergeBase folds upper's overrides onto base, per §4.1 step 2: identity
// fields (arch, dev_class, dev_type, name, vendordep) come from upper; the
// base chain is extended with any of upper's base names it doesn't already
// carry; and every map of substance (enums, types, msg, settings,
// setting_commands) is merged with upper's entries taking priority on key
// collision.
func mergeBase(base, upper *specdoc.DeviceSpec) *specdoc.DeviceSpec {
	out := cloneSpec(base)

	out.Arch = upper.Arch
	out.DevClass = upper.DevClass
	out.DevType = upper.DevType
	out.Name = upper.Name
	out.Vendordep = upper.Vendordep

	existing := map[string]bool{}
	for _, n := range out.Base {
		existing[strings.ToLower(n)] = true
	}
	for _, n := range upper.Base {
		if !existing[strings.ToLower(n)] {
			out.Base = append(out.Base, n)
			existing[strings.ToLower(n)] = true
		}
	}

	out.Enums = mergeMaps(out.Enums, upper.Enums)
	out.Types = mergeMaps(out.Types, upper.Types)
	out.Msg = mergeMaps(out.Msg, upper.Msg)
	out.Settings = mergeMaps(out.Settings, upper.Settings)
	out.SettingCommands = mergeMaps(out.SettingCommands, upper.SettingCommands)

	return out
}

func mergeMaps[K comparable, V any](base, upper map[K]V) map[K]V {
	out := make(map[K]V, len(base)+len(upper))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range upper {
		out[k] = v
	}
	return out
}

func cloneSpec(s *specdoc.DeviceSpec) *specdoc.DeviceSpec {
	c := *s
	c.Base = append([]string(nil), s.Base...)
	return &c
}

func boolPtr(b bool) *bool { return &b }

// synthesizeImplicitEnums adds the SETTING and SETTING_COMMAND sentinel
// enums to d, one entry per setting/setting-command, both uint:8,
// is_public, with an empty (and therefore unvalidated) default name.
func synthesizeImplicitEnums(d *specdoc.DeviceSpec) {
	d.Enums = mergeMaps(d.Enums, map[string]specdoc.EnumSpec{})

	settingValues := make(map[string]specdoc.EnumEntrySpec, len(d.Settings))
	for name, stg := range d.Settings {
		settingValues[name] = specdoc.EnumEntrySpec{ID: stg.ID, Comment: stg.Comment}
	}

	commandValues := make(map[string]specdoc.EnumEntrySpec, len(d.SettingCommands))
	for name, cmd := range d.SettingCommands {
		commandValues[name] = specdoc.EnumEntrySpec{ID: cmd.ID, Comment: cmd.Comment}
	}

	d.Enums["SETTING"] = specdoc.EnumSpec{
		BType:       "uint",
		Bits:        8,
		IsPublic:    boolPtr(true),
		DefaultValue: "",
		Values:      settingValues,
	}
	d.Enums["SETTING_COMMAND"] = specdoc.EnumSpec{
		BType:       "uint",
		Bits:        8,
		IsPublic:    boolPtr(true),
		DefaultValue: "",
		Values:      commandValues,
	}
}
