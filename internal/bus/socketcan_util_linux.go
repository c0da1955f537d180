//go:build linux

package bus

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

func remaining(dl time.Time) time.Duration {
	d := time.Until(dl)
	if d < 0 {
		return 0
	}
	return d
}

func netInterfaceByName(name string) (int, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0, fmt.Errorf("bus: interface %s: %w", name, err)
	}
	return iface.Index, nil
}

// timeoutFD translates a context deadline into SO_RCVTIMEO/SO_SNDTIMEO on
// the underlying socket before each blocking syscall; a context that's
// already done is rejected up front without touching the socket.
type timeoutFD struct {
	fd int
}

func newTimeoutFD(fd int) *timeoutFD { return &timeoutFD{fd: fd} }

func (t *timeoutFD) withDeadline(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dl, ok := ctx.Deadline(); ok {
		tv := unix.NsecToTimeval(int64(remaining(dl)))
		_ = unix.SetsockoptTimeval(t.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
		_ = unix.SetsockoptTimeval(t.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
	}

	return fn()
}
