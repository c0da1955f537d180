//go:build linux

package bus

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Redux-Robotics/canandrepo-public/internal/frame"
)

// frameSize is sizeof(struct can_frame): can_id(4) + can_dlc(1) + pad(3) +
// data(8).
const frameSize = 16

// SocketCAN is a Conn backed by a Linux SocketCAN raw socket
// (AF_CAN/SOCK_RAW/CAN_RAW). Grounded on the teacher's
// asyncio.SpliceConnToConn: raw syscalls behind a build tag. A context
// deadline becomes an SO_RCVTIMEO/SO_SNDTIMEO socket timeout; cancelling
// a context that has no deadline does not interrupt a Send or Recv that
// is already blocked.
type SocketCAN struct {
	fd   int
	file *timeoutFD
}

// Open binds a SocketCAN raw socket to the named interface (e.g. "can0").
func Open(ifaceName string) (*SocketCAN, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("bus: socket: %w", err)
	}

	iface, err := netInterfaceByName(ifaceName)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	addr := &unix.SockaddrCAN{Ifindex: iface}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bus: bind %s: %w", ifaceName, err)
	}

	return &SocketCAN{fd: fd, file: newTimeoutFD(fd)}, nil
}

// Send implements Conn.
func (c *SocketCAN) Send(ctx context.Context, fr frame.Frame) error {
	buf := encodeCanFrame(fr)
	return c.file.withDeadline(ctx, func() error {
		_, err := unix.Write(c.fd, buf)
		return err
	})
}

// Recv implements Conn.
func (c *SocketCAN) Recv(ctx context.Context) (frame.Frame, error) {
	buf := make([]byte, frameSize)
	var n int
	err := c.file.withDeadline(ctx, func() error {
		var rerr error
		n, rerr = unix.Read(c.fd, buf)
		return rerr
	})
	if err != nil {
		return frame.Frame{}, err
	}
	if n < frameSize {
		return frame.Frame{}, fmt.Errorf("bus: short read: %d bytes", n)
	}
	return decodeCanFrame(buf), nil
}

// Close implements Conn.
func (c *SocketCAN) Close() error { return unix.Close(c.fd) }

// encodeCanFrame packs fr into the 16-byte struct can_frame wire layout.
// can_id carries the extended-frame bit (CAN_EFF_FLAG) since every
// arbitration id in this family is 29-bit extended.
func encodeCanFrame(fr frame.Frame) []byte {
	buf := make([]byte, frameSize)
	binary.LittleEndian.PutUint32(buf[0:4], fr.ArbID|unix.CAN_EFF_FLAG)
	buf[4] = byte(fr.DLC)
	data := fr.Bytes()
	copy(buf[8:8+len(data)], data)
	return buf
}

func decodeCanFrame(buf []byte) frame.Frame {
	id := binary.LittleEndian.Uint32(buf[0:4]) &^ unix.CAN_EFF_FLAG
	dlc := int(buf[4])
	if dlc > 8 {
		dlc = 8
	}
	return frame.FromBytes(id, buf[8:8+dlc], time.Now())
}
