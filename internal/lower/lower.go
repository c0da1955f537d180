// Package lower turns a resolved specdoc.DeviceSpec into the IR
// (component C4): it resolves every signal's textual type reference,
// applies defaults, normalizes numeric bounds, and expands named structs
// and bitsets.
package lower

import (
	"strconv"
	"strings"

	"github.com/Redux-Robotics/canandrepo-public/internal/canerr"
	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

const maxTypeDepth = 32

// Lower builds the IR Device for a resolved spec. spec must already have
// had its base chain merged and its SETTING/SETTING_COMMAND enums
// synthesized (internal/resolve.Resolve).
func Lower(spec *specdoc.DeviceSpec) (*ir.Device, error) {
	dev := &ir.Device{
		Name:            spec.Name,
		Arch:            spec.Arch,
		DevType:         spec.DevType,
		DevClass:        spec.DevClass,
		Messages:        map[string]ir.Message{},
		Settings:        map[string]ir.Setting{},
		SettingCommands: map[string]ir.SettingCommand{},
		Enums:           map[string]ir.Enum{},
		Structs:         map[string]ir.Struct{},
		Bitsets:         map[string]ir.Bitset{},
	}

	if spec.Vendordep != nil {
		dev.JavaPackage = spec.Vendordep.JavaPackage
		dev.CppNamespace = spec.Vendordep.CppNamespace
	}

	for name, msg := range spec.Msg {
		m, err := messageFromSpec(name, msg, spec)
		if err != nil {
			return nil, err
		}
		dev.Messages[name] = m
	}

	for name, stg := range spec.Settings {
		s, err := settingFromSpec(name, stg, spec)
		if err != nil {
			return nil, err
		}
		dev.Settings[name] = s
	}

	for name, cmd := range spec.SettingCommands {
		dev.SettingCommands[name] = ir.SettingCommand{
			Name:      name,
			ID:        cmd.ID,
			Comment:   cmd.Comment,
			Vendordep: cmd.VendordepOrDefault(),
		}
	}

	for name, entry := range spec.Enums {
		e, err := buildEnum(name, entry, "")
		if err != nil {
			return nil, err
		}
		dev.Enums[name] = e
	}

	for name, t := range spec.Types {
		switch t.BType {
		case "bitset":
			dev.Bitsets[name] = bitsetFromTypeDef(name, t)
		case "struct":
			s, err := structFromTypeDef(name, t, spec)
			if err != nil {
				return nil, err
			}
			dev.Structs[name] = s
		}
	}

	return dev, nil
}

func messageFromSpec(name string, dm specdoc.DeviceMessageSpec, dev *specdoc.DeviceSpec) (ir.Message, error) {
	minLen, maxLen := 0, 8
	if dm.Length != nil {
		minLen, maxLen = *dm.Length, *dm.Length
	} else {
		if dm.MinLength != nil {
			minLen = *dm.MinLength
		}
		if dm.MaxLength != nil {
			maxLen = *dm.MaxLength
		}
	}

	signals := make([]ir.Signal, 0, len(dm.Signals))
	for _, s := range dm.Signals {
		sig, err := signalFromSpec(dev, s, 0)
		if err != nil {
			return ir.Message{}, err
		}
		signals = append(signals, sig)
	}

	source, err := ir.ParseSource(dm.Source)
	if err != nil {
		return ir.Message{}, canerr.Specf("message %s: %v", name, err)
	}

	return ir.Message{
		Name:      name,
		ID:        dm.ID,
		Comment:   dm.Comment,
		MinLength: minLen,
		MaxLength: maxLen,
		Source:    source,
		IsPublic:  dm.IsPublicOrDefault(),
		Signals:   signals,
	}, nil
}

func settingFromSpec(name string, stg specdoc.DeviceSettingSpec, dev *specdoc.DeviceSpec) (ir.Setting, error) {
	dtype, err := dtypeFromSignalRef(dev, stg.DType, stg.DefaultValue, 0)
	if err != nil {
		if ce, ok := err.(*canerr.Error); ok {
			return ir.Setting{}, canerr.New(ce.Kind, "setting "+name+": "+ce.Message, ce.Context)
		}
		return ir.Setting{}, canerr.Specf("setting %s: %v", name, err)
	}
	if dtype.BitLength() > 48 {
		return ir.Setting{}, canerr.Specf("setting %s: %d-bit payload exceeds 48 bits", name, dtype.BitLength())
	}

	return ir.Setting{
		Name:           name,
		ID:             stg.ID,
		Comment:        stg.Comment,
		DType:          dtype,
		Readable:       stg.ReadableOrDefault(),
		Writable:       stg.WritableOrDefault(),
		ResetOnDefault: stg.ResetOnDefaultOrDefault(),
		Vendordep:      stg.VendordepOrDefault(),
		VdepSetting:    stg.VdepSettingOrDefault(),
		SpecialFlags:   append([]string(nil), stg.SpecialFlags...),
	}, nil
}

func signalFromSpec(dev *specdoc.DeviceSpec, sig specdoc.MessageSignalSpec, depth int) (ir.Signal, error) {
	dtype, err := dtypeFromSignalRef(dev, sig.DType, sig.DefaultValue, depth)
	if err != nil {
		if ce, ok := err.(*canerr.Error); ok {
			return ir.Signal{}, canerr.New(ce.Kind, "signal "+sig.Name+": "+ce.Message, ce.Context)
		}
		return ir.Signal{}, canerr.Specf("signal %s: %v", sig.Name, err)
	}
	return ir.Signal{Name: sig.Name, Comment: sig.Comment, DType: dtype, Optional: sig.Optional}, nil
}

// dtypeFromSignalRef resolves a signal's textual dtype reference
// (uint:N, sint:N, float:N, pad:N, buf:N, bool, bit, enum:Name,
// setting_data, or a bare name looked up in dev.Types), per §4.2.
func dtypeFromSignalRef(dev *specdoc.DeviceSpec, dtypeName string, defaultValue any, depth int) (ir.DType, error) {
	if depth > maxTypeDepth {
		return nil, canerr.Specf("type reference depth exceeded resolving %q (cyclic types?)", dtypeName)
	}

	prefix, rest, hasColon := strings.Cut(dtypeName, ":")

	switch prefix {
	case "buf":
		width, err := parseWidth(rest)
		if err != nil {
			return nil, err
		}
		return ir.Buf{Width: width, Default: anyToUint64(defaultValue, 0)}, nil

	case "uint":
		if !hasColon {
			break
		}
		width, err := parseWidth(rest)
		if err != nil {
			return nil, err
		}
		return ir.UInt{
			Width: width, Min: 0, Max: defaultUintMax(width),
			Default: anyToUint64(defaultValue, 0), FactorNum: 1, FactorDen: 1,
		}, nil

	case "sint":
		if !hasColon {
			break
		}
		width, err := parseWidth(rest)
		if err != nil {
			return nil, err
		}
		return ir.SInt{
			Width: width, Min: defaultSIntMin(width), Max: defaultSIntMax(width),
			Default: anyToInt64(defaultValue, 0), FactorNum: 1, FactorDen: 1,
		}, nil

	case "float":
		if !hasColon {
			break
		}
		width, err := parseFloatWidth(rest)
		if err != nil {
			return nil, err
		}
		return ir.Float{
			Width: width, Default: anyToFloat64(defaultValue, 0),
			AllowNanInf: true, FactorNum: 1, FactorDen: 1,
		}, nil

	case "pad":
		width, err := parseWidth(rest)
		if err != nil {
			return nil, err
		}
		return ir.Pad{Width: width}, nil

	case "bool", "bit":
		return ir.Bool{Default: anyToBool(defaultValue)}, nil

	case "setting_data":
		return ir.Buf{Width: 48, Default: 0}, nil

	case "enum":
		entry, ok := dev.Enums[rest]
		if !ok {
			return nil, canerr.Specf("unknown enum %q", rest)
		}
		return buildEnum(rest, entry, asString(defaultValue))
	}

	// Bare name: look up a user-defined type and descend recursively.
	typeDef, ok := dev.Types[dtypeName]
	if !ok {
		return nil, canerr.Specf("unknown type reference %q", dtypeName)
	}
	return dtypeFromTypeDef(dtypeName, typeDef, defaultValue, dev, depth+1)
}

// dtypeFromTypeDef resolves a [types.X] entry, per §4.2's recursive
// lowering rule: a named type may itself be any primitive variant, a
// bitset, a struct, or a reference to yet another named type.
func dtypeFromTypeDef(typeName string, def specdoc.TypeSpec, defaultValue any, dev *specdoc.DeviceSpec, depth int) (ir.DType, error) {
	if depth > maxTypeDepth {
		return nil, canerr.Specf("type reference depth exceeded resolving %q (cyclic types?)", typeName)
	}
	if defaultValue == nil {
		defaultValue = def.DefaultValue
	}
	width := def.Bits

	switch def.BType {
	case "uint":
		if err := validateScalarWidth(width); err != nil {
			return nil, err
		}
		return ir.UInt{
			Width:     width,
			Min:       anyToUint64(def.Min, 0),
			Max:       anyToUint64(def.Max, defaultUintMax(width)),
			Default:   anyToUint64(defaultValue, 0),
			FactorNum: def.Factor[0],
			FactorDen: def.Factor[1],
		}, nil

	case "sint":
		if err := validateScalarWidth(width); err != nil {
			return nil, err
		}
		return ir.SInt{
			Width:     width,
			Min:       anyToInt64(def.Min, defaultSIntMin(width)),
			Max:       anyToInt64(def.Max, defaultSIntMax(width)),
			Default:   anyToInt64(defaultValue, 0),
			FactorNum: def.Factor[0],
			FactorDen: def.Factor[1],
		}, nil

	case "buf":
		if err := validateScalarWidth(width); err != nil {
			return nil, err
		}
		return ir.Buf{Width: width, Default: anyToUint64(defaultValue, 0)}, nil

	case "float":
		if err := validateFloatWidth(width); err != nil {
			return nil, err
		}
		minV, hasMin := anyToFloat64Opt(def.Min)
		maxV, hasMax := anyToFloat64Opt(def.Max)
		return ir.Float{
			Width: width, HasMin: hasMin, Min: minV, HasMax: hasMax, Max: maxV,
			Default: anyToFloat64(defaultValue, 0), AllowNanInf: def.AllowNanInfOrDefault(),
			FactorNum: def.Factor[0], FactorDen: def.Factor[1],
		}, nil

	case "bitset":
		if err := validateScalarWidth(width); err != nil {
			return nil, err
		}
		return bitsetFromTypeDef(typeName, def), nil

	case "pad":
		if err := validateScalarWidth(width); err != nil {
			return nil, err
		}
		return ir.Pad{Width: width}, nil

	case "bool":
		return ir.Bool{Default: anyToBool(defaultValue)}, nil

	case "struct":
		return structFromTypeDef(typeName, def, dev)

	default:
		nested, ok := dev.Types[def.BType]
		if !ok {
			return nil, canerr.Specf("unknown type reference %q", def.BType)
		}
		return dtypeFromTypeDef(def.BType, nested, defaultValue, dev, depth+1)
	}
}

func bitsetFromTypeDef(name string, def specdoc.TypeSpec) ir.Bitset {
	defaultValue := anyToUint64(def.DefaultValue, 0)
	flags := make([]ir.BitsetFlag, len(def.BitFlags))
	for i, bf := range def.BitFlags {
		flags[i] = ir.BitsetFlag{
			BitIdx:  i,
			Default: (defaultValue>>uint(i))&1 != 0,
			Name:    bf.Name,
			Comment: bf.Comment,
		}
	}
	return ir.Bitset{Name: name, Width: def.Bits, Flags: flags}
}

func structFromTypeDef(name string, def specdoc.TypeSpec, dev *specdoc.DeviceSpec) (ir.Struct, error) {
	signals := make([]ir.Signal, 0, len(def.Signals))
	for _, s := range def.Signals {
		sig, err := signalFromSpec(dev, s, 0)
		if err != nil {
			return ir.Struct{}, err
		}
		signals = append(signals, sig)
	}
	return ir.Struct{Name: name, Signals: signals}, nil
}

// buildEnum constructs an ir.Enum from a spec entry. overrideDefaultName,
// when non-empty, takes priority over the entry's own default_value
// (matching a signal's local override of an otherwise shared enum type).
// SETTING and SETTING_COMMAND tolerate a default name absent from Values.
func buildEnum(name string, entry specdoc.EnumSpec, overrideDefaultName string) (ir.Enum, error) {
	defaultName := entry.DefaultValue
	if overrideDefaultName != "" {
		defaultName = overrideDefaultName
	}

	values := make(map[int]ir.EnumEntry, len(entry.Values))
	byName := make(map[string]ir.EnumEntry, len(entry.Values))
	for entName, ent := range entry.Values {
		e := ir.EnumEntry{Name: entName, Comment: ent.Comment, Index: ent.ID}
		values[ent.ID] = e
		byName[entName] = e
	}

	defaultIdx := 0
	if found, ok := byName[defaultName]; ok {
		defaultIdx = found.Index
	} else if defaultName != "" {
		if name != "SETTING" && name != "SETTING_COMMAND" {
			return ir.Enum{}, canerr.Specf("invalid enum default value %s::%s", name, defaultName)
		}
		defaultName = ""
	}

	return ir.Enum{
		Name:         name,
		Width:        entry.Bits,
		DefaultName:  defaultName,
		DefaultIdx:   defaultIdx,
		IsPublic:     entry.IsPublicOrDefault(),
		Values:       values,
		ValuesByName: byName,
	}, nil
}

func parseWidth(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, canerr.InvalidWidthf(n, "invalid width %q", s)
	}
	if err := validateScalarWidth(n); err != nil {
		return 0, err
	}
	return n, nil
}

func parseFloatWidth(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, canerr.InvalidWidthf(n, "invalid width %q", s)
	}
	if err := validateFloatWidth(n); err != nil {
		return 0, err
	}
	return n, nil
}

// validateScalarWidth enforces §7's InvalidWidth rule for non-float
// scalars: width=0 or >64 is fatal at lowering.
func validateScalarWidth(width int) error {
	if width <= 0 || width > 64 {
		return canerr.InvalidWidthf(width, "invalid width %d: scalar width must be 1..64", width)
	}
	return nil
}

// validateFloatWidth enforces §7's InvalidWidth rule for Float: only 24,
// 32, and 64 are representable IEEE-754 encodings.
func validateFloatWidth(width int) error {
	switch width {
	case 24, 32, 64:
		return nil
	default:
		return canerr.InvalidWidthf(width, "invalid float width %d: must be 24, 32, or 64", width)
	}
}

func defaultUintMax(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func defaultSIntMin(width int) int64 { return -(int64(1) << uint(width-1)) }
func defaultSIntMax(width int) int64 { return (int64(1) << uint(width-1)) - 1 }

func anyToUint64(v any, def uint64) uint64 {
	switch t := v.(type) {
	case uint64:
		return t
	case int64:
		if t < 0 {
			return def
		}
		return uint64(t)
	case int:
		if t < 0 {
			return def
		}
		return uint64(t)
	case float64:
		if t < 0 {
			return def
		}
		return uint64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return def
	}
}

func anyToInt64(v any, def int64) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return def
	}
}

func anyToFloat64(v any, def float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return def
	}
}

func anyToFloat64Opt(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

func anyToBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
