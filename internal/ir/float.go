package ir

import "math"

// encodeFloatDefault packs a Float DType's default value the same way the
// codec packs any Float value: binary32 for widths 24 and 32 (24 keeping
// only the upper 24 bits), binary64 for width 64.
func encodeFloatDefault(f Float) uint64 {
	switch f.Width {
	case 24:
		bits := math.Float32bits(float32(f.Default))
		return uint64(bits >> 8)
	case 32:
		return uint64(math.Float32bits(float32(f.Default)))
	case 64:
		return math.Float64bits(f.Default)
	default:
		return 0
	}
}
