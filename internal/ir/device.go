package ir

import "fmt"

// Source identifies which side of the bus originates a message.
type Source int

const (
	SourceDevice Source = iota
	SourceHost
	SourceBoth
)

// ParseSource maps the spec's source strings (device/host/bidir/both) to a
// Source value.
func ParseSource(s string) (Source, error) {
	switch s {
	case "device":
		return SourceDevice, nil
	case "host":
		return SourceHost, nil
	case "bidir", "both":
		return SourceBoth, nil
	default:
		return 0, fmt.Errorf("unknown message source %q", s)
	}
}

func (s Source) String() string {
	switch s {
	case SourceDevice:
		return "Device"
	case SourceHost:
		return "Host"
	case SourceBoth:
		return "Both"
	default:
		return "Unknown"
	}
}

// Message is a fully lowered CAN message: an id local to the device
// namespace, a length range in bytes, and an ordered signal list.
type Message struct {
	Name       string
	ID         int
	Comment    string
	MinLength  int
	MaxLength  int
	Source     Source
	IsPublic   bool
	Signals    []Signal
}

// SettingFlags is the standard trailing struct signal carried by every
// SetSetting/ReportSetting message: an ephemeral flag, a synch-hold flag,
// two pad bits, and a 4-bit synch message counter.
func SettingFlagsStruct() Struct {
	return Struct{
		Name: "SettingFlags",
		Signals: []Signal{
			{Name: "ephemeral", DType: Bool{Default: false}},
			{Name: "synch_hold", DType: Bool{Default: false}},
			{Name: "pad", DType: Pad{Width: 2}},
			{Name: "synch_msg_count", DType: UInt{Width: 4, Max: 0xF, FactorNum: 1, FactorDen: 1}},
		},
	}
}

// Setting is a device-resident configuration value. Its wire payload is
// always at most 48 bits (DType.BitLength() <= 48).
type Setting struct {
	Name           string
	ID             int
	Comment        string
	DType          DType
	Readable       bool
	Writable       bool
	ResetOnDefault bool
	Vendordep      bool
	VdepSetting    bool
	SpecialFlags   []string
}

// SettingCommand is the companion sum to Setting: a bootstrap-level
// operation (fetch/set/report) addressed by its own 8-bit id space.
type SettingCommand struct {
	Name      string
	ID        int
	Comment   string
	Vendordep bool
}

// Device is the resolved, immutable IR for one device specification. It is
// built once by lowering (internal/lower) and is safe to share across
// goroutines thereafter: nothing in this package mutates a Device after
// construction.
type Device struct {
	Name      string
	Arch      string
	DevType   int
	DevClass  int

	JavaPackage  string
	CppNamespace string

	Messages        map[string]Message
	Settings        map[string]Setting
	SettingCommands map[string]SettingCommand
	Enums           map[string]Enum
	Structs         map[string]Struct
	Bitsets         map[string]Bitset
}

// DefaultValueBits returns the default value of a DType as it would be
// packed into a payload: the same recursive walk as the original's
// default_value_as_bits, re-expressed as a Go type switch.
func DefaultValueBits(d DType) uint64 {
	switch v := d.(type) {
	case UInt:
		return v.Default
	case SInt:
		return uint64(v.Default) & mask(v.Width)
	case Float:
		return encodeFloatDefault(v)
	case Bool:
		if v.Default {
			return 1
		}
		return 0
	case Pad:
		return 0
	case Struct:
		var value uint64
		var shift uint
		for _, sig := range v.Signals {
			value |= DefaultValueBits(sig.DType) << shift
			shift += uint(sig.DType.BitLength())
		}
		return value
	case Bitset:
		return v.DefaultValue()
	case Buf:
		return v.Default
	case Enum:
		if v.DefaultName != "" {
			return uint64(v.DefaultIdx)
		}
		return 0
	default:
		return 0
	}
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}
