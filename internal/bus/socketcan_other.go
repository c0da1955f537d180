//go:build !linux

package bus

import (
	"context"
	"errors"

	"github.com/Redux-Robotics/canandrepo-public/internal/frame"
)

// ErrUnsupported is returned by Open on platforms without SocketCAN.
var ErrUnsupported = errors.New("bus: SocketCAN is only available on linux")

// SocketCAN is an unusable stand-in on non-Linux platforms so the package
// still builds; Open always fails.
type SocketCAN struct{}

// Open always fails off Linux.
func Open(ifaceName string) (*SocketCAN, error) { return nil, ErrUnsupported }

func (c *SocketCAN) Send(ctx context.Context, fr frame.Frame) error { return ErrUnsupported }
func (c *SocketCAN) Recv(ctx context.Context) (frame.Frame, error)  { return frame.Frame{}, ErrUnsupported }
func (c *SocketCAN) Close() error                                   { return nil }
