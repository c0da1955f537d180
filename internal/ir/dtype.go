// Package ir defines the intermediate representation consumed by the bit
// codec, the runtime binding, and both generators: a closed sum of data
// types (DType) plus the Device structure that holds a resolved device's
// messages, settings, enums, structs, and bitsets.
//
// DType is modeled as a Go interface with one unexported marker method per
// variant, the same idiom the teacher uses for HIRStatement/HIRExpression/
// HIRType in its own IR. Dispatch over variants is always a type switch;
// nothing here uses reflection.
package ir

import "fmt"

// DType is the closed sum of primitive and composite data types. Every
// concrete type in this file implements it.
type DType interface {
	// BitLength returns the number of bits this DType occupies in a
	// packed payload.
	BitLength() int
	// CanonicalName returns the textual spelling used in spec type
	// references (uint:8, sint:16, float:32, bool, pad:N, buf:N,
	// struct:Name, bitset:N, enum:Name).
	CanonicalName() string
	dtypeNode()
}

// UInt is an unsigned integer of 1..=64 bits with optional scaling.
type UInt struct {
	Width      int
	Min        uint64
	Max        uint64
	Default    uint64
	FactorNum  int64
	FactorDen  int64
	Offset     float64
}

func (u UInt) BitLength() int        { return u.Width }
func (u UInt) CanonicalName() string { return fmt.Sprintf("uint:%d", u.Width) }
func (UInt) dtypeNode()              {}

// SInt is a two's-complement signed integer of 1..=64 bits.
type SInt struct {
	Width     int
	Min       int64
	Max       int64
	Default   int64
	FactorNum int64
	FactorDen int64
	Offset    float64
}

func (s SInt) BitLength() int        { return s.Width }
func (s SInt) CanonicalName() string { return fmt.Sprintf("sint:%d", s.Width) }
func (SInt) dtypeNode()              {}

// Float is an IEEE-754 little-endian float of width 24, 32, or 64 bits.
// Width 24 stores the upper 24 bits of a binary32 representation.
type Float struct {
	Width       int
	HasMin      bool
	Min         float64
	HasMax      bool
	Max         float64
	Default     float64
	AllowNanInf bool
	FactorNum   int64
	FactorDen   int64
	Offset      float64
}

func (f Float) BitLength() int        { return f.Width }
func (f Float) CanonicalName() string { return fmt.Sprintf("float:%d", f.Width) }
func (Float) dtypeNode()              {}

// Bool is a single-bit boolean.
type Bool struct {
	Default bool
}

func (Bool) BitLength() int        { return 1 }
func (Bool) CanonicalName() string { return "bool" }
func (Bool) dtypeNode()            {}

// Pad contributes Width bits to the running offset but carries no value on
// either encode or decode.
type Pad struct {
	Width int
}

func (p Pad) BitLength() int        { return p.Width }
func (p Pad) CanonicalName() string { return fmt.Sprintf("pad:%d", p.Width) }
func (Pad) dtypeNode()              {}

// Buf is a little-endian byte buffer of Width bits, occupying
// ceil(Width/8) bytes of storage capacity.
type Buf struct {
	Width   int
	Default uint64
}

func (b Buf) BitLength() int        { return b.Width }
func (b Buf) CanonicalName() string { return fmt.Sprintf("buf:%d", b.Width) }
func (Buf) dtypeNode()              {}

// ByteLen returns the maximum number of bytes this buffer may carry:
// ceil(Width/8).
func (b Buf) ByteLen() int { return (b.Width + 7) / 8 }

// BitsetFlag names a single bit within a Bitset.
type BitsetFlag struct {
	BitIdx  int
	Default bool
	Name    string
	Comment string
}

// Bitset is a named collection of independent bit flags.
type Bitset struct {
	Name  string
	Width int
	Flags []BitsetFlag
}

func (b Bitset) BitLength() int        { return b.Width }
func (b Bitset) CanonicalName() string { return fmt.Sprintf("bitset:%d", b.Width) }
func (Bitset) dtypeNode()              {}

// DefaultValue returns the bitwise OR of each flag's (default << bitIdx).
func (b Bitset) DefaultValue() uint64 {
	var v uint64
	for _, f := range b.Flags {
		if f.Default {
			v |= 1 << uint(f.BitIdx)
		}
	}
	return v
}

// EnumEntry names one integer-valued variant of an Enum.
type EnumEntry struct {
	Name    string
	Comment string
	Index   int
}

// Enum is an integer-valued named-variant type. Values is keyed by index,
// not name, matching the IR's lookup-by-wire-value access pattern.
type Enum struct {
	Name           string
	Width          int
	DefaultName    string
	DefaultIdx     int
	IsPublic       bool
	Values         map[int]EnumEntry
	ValuesByName   map[string]EnumEntry
}

func (e Enum) BitLength() int        { return e.Width }
func (e Enum) CanonicalName() string { return fmt.Sprintf("enum:%s", e.Name) }
func (Enum) dtypeNode()              {}

// Struct is a composite DType whose Signals are laid out inline at the
// parent's current bit offset; it has no alignment of its own.
type Struct struct {
	Name    string
	Signals []Signal
}

func (s Struct) BitLength() int {
	total := 0
	for _, sig := range s.Signals {
		total += sig.DType.BitLength()
	}
	return total
}
func (s Struct) CanonicalName() string { return fmt.Sprintf("struct:%s", s.Name) }
func (Struct) dtypeNode()              {}

// Signal is a named, typed field occupying a contiguous bit range of a
// message or struct. Optional signals are trailing; their presence depends
// on the wire frame's DLC.
type Signal struct {
	Name     string
	Comment  string
	DType    DType
	Optional bool
}

// IsPad reports whether this signal contributes bits but no I/O.
func (s Signal) IsPad() bool {
	_, ok := s.DType.(Pad)
	return ok
}
