// Package frame defines the wire-level CAN frame shape shared by the
// runtime binding and the bus transport.
package frame

import "time"

// Frame is one CAN frame: a 29-bit extended arbitration id, a data length
// code, and its payload packed little-endian into a uint64. Timestamp is
// the zero time for frames that were never actually received off a bus
// (e.g. ones built purely for encoding).
type Frame struct {
	ArbID     uint32
	DLC       int
	Payload   uint64
	Timestamp time.Time
}

// Bytes returns the frame's payload as its DLC-length little-endian byte
// slice.
func (f Frame) Bytes() []byte {
	b := make([]byte, f.DLC)
	for i := 0; i < f.DLC && i < 8; i++ {
		b[i] = byte(f.Payload >> uint(i*8))
	}
	return b
}

// FromBytes builds a Frame from a little-endian payload slice, clamped to
// 8 bytes (the maximum classic-CAN DLC).
func FromBytes(arbID uint32, data []byte, ts time.Time) Frame {
	var payload uint64
	n := len(data)
	if n > 8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		payload |= uint64(data[i]) << uint(i*8)
	}
	return Frame{ArbID: arbID, DLC: n, Payload: payload, Timestamp: ts}
}
