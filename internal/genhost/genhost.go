// Package genhost generates standalone Go source for a resolved device's
// message bindings (component C13): one flat struct and a Construct/
// Extract function pair per message, with no dependency on this module's
// codec or reflect — generated code is meant to be dropped into a host
// repository that only wants typed accessors.
//
// It is intentionally reflection-free, mirroring internal/codec's bit
// math by hand per field rather than calling back into this module.
// internal/gen_parity_test.go checks internal/runtime's payload against
// internal/codec directly, and checks that the generated source slices a
// Buf signal to the byte count the codec uses; it does not compile or run
// the generated code.
package genhost

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Redux-Robotics/canandrepo-public/internal/ir"
)

// Generate renders dev's messages as a single standalone Go source file
// in package pkgName.
func Generate(dev *ir.Device, pkgName string) (string, error) {
	var buf strings.Builder

	fmt.Fprintf(&buf, "// Code generated from device spec %q; DO NOT EDIT.\n", dev.Name)
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)
	buf.WriteString("import \"math\"\n\n")

	buf.WriteString(supportPrelude)

	structs := collectStructs(dev)
	structNames := sortedStructNames(structs)
	for _, name := range structNames {
		if err := genStruct(&buf, name, structs[name]); err != nil {
			return "", err
		}
	}

	msgNames := sortedKeys(dev.Messages)
	for _, name := range msgNames {
		if err := genMessage(&buf, name, dev.Messages[name]); err != nil {
			return "", err
		}
	}

	if len(dev.Settings) > 0 {
		genSettingConstants(&buf, dev)
		genSettingDefaults(&buf, dev)
	}
	if len(dev.SettingCommands) > 0 {
		genSettingCommandConstants(&buf, dev)
	}

	return buf.String(), nil
}

// genSettingConstants emits one named integer constant per setting index,
// the "constant identifiers for... setting indices" surface.
func genSettingConstants(buf *strings.Builder, dev *ir.Device) {
	buf.WriteString("const (\n")
	for _, name := range sortedKeys(dev.Settings) {
		fmt.Fprintf(buf, "\tSetting%s = %d\n", goIdent(name), dev.Settings[name].ID)
	}
	buf.WriteString(")\n\n")
}

// genSettingDefaults emits the setting defaults table keyed by setting
// index, packed the same way DefaultValueBits would pack it on the wire.
func genSettingDefaults(buf *strings.Builder, dev *ir.Device) {
	buf.WriteString("var SettingDefaults = map[int]uint64{\n")
	for _, name := range sortedKeys(dev.Settings) {
		s := dev.Settings[name]
		fmt.Fprintf(buf, "\tSetting%s: %#x, // %s\n", goIdent(name), ir.DefaultValueBits(s.DType), name)
	}
	buf.WriteString("}\n\n")
}

// genSettingCommandConstants emits one named integer constant per
// bootstrap setting-command index.
func genSettingCommandConstants(buf *strings.Builder, dev *ir.Device) {
	buf.WriteString("const (\n")
	for _, name := range sortedKeys(dev.SettingCommands) {
		fmt.Fprintf(buf, "\tSettingCommand%s = %d\n", goIdent(name), dev.SettingCommands[name].ID)
	}
	buf.WriteString(")\n\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStructNames(m map[string][]ir.Signal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// collectStructs walks every message's and struct's signal tree and
// returns the distinct named struct layouts it finds, keyed by struct
// name (struct names are unique within one resolved device).
func collectStructs(dev *ir.Device) map[string][]ir.Signal {
	out := map[string][]ir.Signal{}
	var walk func(signals []ir.Signal)
	walk = func(signals []ir.Signal) {
		for _, sig := range signals {
			if st, ok := sig.DType.(ir.Struct); ok {
				if _, seen := out[st.Name]; !seen {
					out[st.Name] = st.Signals
					walk(st.Signals)
				}
			}
		}
	}
	for _, msg := range dev.Messages {
		walk(msg.Signals)
	}
	for _, s := range dev.Structs {
		walk(s.Signals)
	}
	return out
}

func goIdent(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}

func fieldGoType(d ir.DType) string {
	switch v := d.(type) {
	case ir.UInt:
		return "uint64"
	case ir.SInt:
		return "int64"
	case ir.Bool:
		return "bool"
	case ir.Float:
		return "float64"
	case ir.Buf:
		return "[]byte"
	case ir.Bitset:
		return "uint64"
	case ir.Enum:
		return "int"
	case ir.Struct:
		return goIdent(v.Name) + "Fields"
	default:
		return "uint64"
	}
}

func structTypeName(name string) string { return goIdent(name) + "Fields" }

// genStruct emits the Go struct type and its pack/unpack helpers for one
// named struct layout.
func genStruct(buf *strings.Builder, name string, signals []ir.Signal) error {
	typeName := structTypeName(name)

	fmt.Fprintf(buf, "type %s struct {\n", typeName)
	for _, sig := range signals {
		if sig.IsPad() {
			continue
		}
		goType := fieldGoType(sig.DType)
		if sig.Optional {
			goType = "*" + goType
		}
		fmt.Fprintf(buf, "\t%s %s\n", goIdent(sig.Name), goType)
	}
	buf.WriteString("}\n\n")

	fmt.Fprintf(buf, "func pack%s(v %s) uint64 {\n\tvar payload uint64\n", typeName, typeName)
	if err := genPackBody(buf, signals, "v."); err != nil {
		return err
	}
	buf.WriteString("\treturn payload\n}\n\n")

	fmt.Fprintf(buf, "func unpack%s(raw uint64) %s {\n\tvar v %s\n", typeName, typeName, typeName)
	if err := genUnpackBody(buf, signals, "v."); err != nil {
		return err
	}
	buf.WriteString("\treturn v\n}\n\n")
	return nil
}

func genMessage(buf *strings.Builder, name string, msg ir.Message) error {
	typeName := goIdent(name) + "Fields"

	fmt.Fprintf(buf, "type %s struct {\n", typeName)
	for _, sig := range msg.Signals {
		if sig.IsPad() {
			continue
		}
		goType := fieldGoType(sig.DType)
		if sig.Optional {
			goType = "*" + goType
		}
		fmt.Fprintf(buf, "\t%s %s\n", goIdent(sig.Name), goType)
	}
	buf.WriteString("}\n\n")

	fmt.Fprintf(buf, "// Construct%s packs f into a frame addressed to deviceID under devType.\n", goIdent(name))
	fmt.Fprintf(buf, "func Construct%s(devType, deviceID uint8, f %s) (arbID uint32, dlc int, payload uint64) {\n", goIdent(name), typeName)
	fmt.Fprintf(buf, "\tdlc = %d\n", msg.MinLength)
	buf.WriteString("\tvar anyOptional bool\n")
	if err := genPackBody(buf, msg.Signals, "f."); err != nil {
		return err
	}
	fmt.Fprintf(buf, "\tif anyOptional {\n\t\tdlc = %d\n\t}\n", msg.MaxLength)
	fmt.Fprintf(buf, "\tarbID = (uint32(devType)&0x1F)<<24 | (0x0E)<<16 | (uint32(%d)&0x3FF)<<6 | (uint32(deviceID)&0x3F)\n", msg.ID)
	buf.WriteString("\treturn arbID, dlc, payload\n}\n\n")

	fmt.Fprintf(buf, "// Extract%s unpacks a frame payload of dlc bytes into its typed fields.\n", goIdent(name))
	fmt.Fprintf(buf, "func Extract%s(payload uint64, dlc int) %s {\n\tvar f %s\n\traw := payload\n\t_ = raw\n\tlimitBits := dlc * 8\n\t_ = limitBits\n", goIdent(name), typeName, typeName)
	if err := genUnpackBody(buf, msg.Signals, "f."); err != nil {
		return err
	}
	buf.WriteString("\treturn f\n}\n\n")
	return nil
}

// genPackBody emits "payload |= (...) << offset" statements for each
// non-pad signal, tracking offset as it walks. recordExpr is the Go
// expression prefix for the containing struct/fields value ("f." or "v.").
func genPackBody(buf *strings.Builder, signals []ir.Signal, recordExpr string) error {
	offset := 0
	for _, sig := range signals {
		width := sig.DType.BitLength()
		if sig.IsPad() {
			offset += width
			continue
		}
		fieldExpr := recordExpr + goIdent(sig.Name)

		if sig.Optional {
			fmt.Fprintf(buf, "\tif %s != nil {\n", fieldExpr)
			buf.WriteString("\t\tanyOptional = true\n")
			expr, err := packExpr(sig.DType, "(*"+fieldExpr+")")
			if err != nil {
				return err
			}
			fmt.Fprintf(buf, "\t\tpayload |= (%s) << %d\n\t}\n", expr, offset)
		} else {
			expr, err := packExpr(sig.DType, fieldExpr)
			if err != nil {
				return err
			}
			fmt.Fprintf(buf, "\tpayload |= (%s) << %d\n", expr, offset)
		}
		offset += width
	}
	return nil
}

func genUnpackBody(buf *strings.Builder, signals []ir.Signal, recordExpr string) error {
	offset := 0
	for _, sig := range signals {
		width := sig.DType.BitLength()
		if sig.IsPad() {
			offset += width
			continue
		}
		fieldExpr := recordExpr + goIdent(sig.Name)
		expr, err := unpackExpr(sig.DType, offset)
		if err != nil {
			return err
		}
		if sig.Optional {
			fmt.Fprintf(buf, "\tif limitBits > %d {\n\t\ttmp := %s\n\t\t%s = &tmp\n\t}\n", offset, expr, fieldExpr)
		} else {
			fmt.Fprintf(buf, "\t%s = %s\n", fieldExpr, expr)
		}
		offset += width
	}
	return nil
}

// packExpr returns a Go expression evaluating to the unshifted bit
// pattern for valueExpr, per dtype.
func packExpr(d ir.DType, valueExpr string) (string, error) {
	switch v := d.(type) {
	case ir.UInt:
		return fmt.Sprintf("uint64(%s) & %s", valueExpr, maskLit(v.Width)), nil
	case ir.SInt:
		return fmt.Sprintf("uint64(%s) & %s", valueExpr, maskLit(v.Width)), nil
	case ir.Bool:
		return fmt.Sprintf("canBoolBit(%s)", valueExpr), nil
	case ir.Float:
		return fmt.Sprintf("canEncodeFloat(%d, %s)", v.Width, valueExpr), nil
	case ir.Buf:
		return fmt.Sprintf("canEncodeBuf(%s, %d)", valueExpr, v.ByteLen()), nil
	case ir.Bitset:
		return fmt.Sprintf("uint64(%s) & %s", valueExpr, maskLit(v.Width)), nil
	case ir.Enum:
		return fmt.Sprintf("uint64(%s) & %s", valueExpr, maskLit(v.Width)), nil
	case ir.Struct:
		return fmt.Sprintf("pack%s(%s)", structTypeName(v.Name), valueExpr), nil
	default:
		return "", fmt.Errorf("genhost: unsupported dtype %T", d)
	}
}

func unpackExpr(d ir.DType, offset int) (string, error) {
	shifted := fmt.Sprintf("(raw >> %d)", offset)
	switch v := d.(type) {
	case ir.UInt:
		return fmt.Sprintf("%s & %s", shifted, maskLit(v.Width)), nil
	case ir.SInt:
		return fmt.Sprintf("canSignExtend(%s & %s, %d)", shifted, maskLit(v.Width), v.Width), nil
	case ir.Bool:
		return fmt.Sprintf("%s&1 != 0", shifted), nil
	case ir.Float:
		return fmt.Sprintf("canDecodeFloat(%d, %s & %s)", v.Width, shifted, maskLit(v.Width)), nil
	case ir.Buf:
		return fmt.Sprintf("canDecodeBuf(%s & %s, %d)", shifted, maskLit(v.Width), v.ByteLen()), nil
	case ir.Bitset:
		return fmt.Sprintf("%s & %s", shifted, maskLit(v.Width)), nil
	case ir.Enum:
		return fmt.Sprintf("int(%s & %s)", shifted, maskLit(v.Width)), nil
	case ir.Struct:
		return fmt.Sprintf("unpack%s(%s)", structTypeName(v.Name), shifted), nil
	default:
		return "", fmt.Errorf("genhost: unsupported dtype %T", d)
	}
}

func maskLit(width int) string {
	if width >= 64 {
		return "uint64(0xFFFFFFFFFFFFFFFF)"
	}
	return fmt.Sprintf("uint64(%#x)", (uint64(1)<<uint(width))-1)
}

// supportPrelude is the fixed set of bit-math helpers every generated
// file needs; it mirrors internal/codec's bits.go/pack.go/unpack.go
// float and buffer bit layout, duplicated here so generated output has no
// dependency on this module. Unlike the codec, canEncodeBuf silently
// truncates a buffer longer than maxLen instead of reporting an error.
const supportPrelude = `func canBoolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func canSignExtend(raw uint64, width int) int64 {
	if width >= 64 {
		return int64(raw)
	}
	signBit := uint64(1) << uint(width-1)
	if raw&signBit != 0 {
		return int64(raw) - int64(uint64(1)<<uint(width))
	}
	return int64(raw)
}

func canEncodeFloat(width int, value float64) uint64 {
	switch width {
	case 24:
		return uint64(math.Float32bits(float32(value))) >> 8
	case 32:
		return uint64(math.Float32bits(float32(value)))
	case 64:
		return math.Float64bits(value)
	default:
		return 0
	}
}

func canDecodeFloat(width int, raw uint64) float64 {
	switch width {
	case 24:
		return float64(math.Float32frombits(uint32(raw&0xFFFFFF) << 8))
	case 32:
		return float64(math.Float32frombits(uint32(raw)))
	case 64:
		return math.Float64frombits(raw)
	default:
		return 0
	}
}

func canEncodeBuf(b []byte, maxLen int) uint64 {
	var v uint64
	n := len(b)
	if n > maxLen {
		n = maxLen
	}
	for i := 0; i < n; i++ {
		v |= uint64(b[i]) << uint(8*i)
	}
	return v
}

func canDecodeBuf(raw uint64, n int) []byte {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = byte(raw >> uint(8*i))
	}
	return buf
}

`
