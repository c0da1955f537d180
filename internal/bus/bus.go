// Package bus is the live CAN transport (component C11): a minimal
// Conn interface plus a Linux SocketCAN implementation, so a resolved
// device schema can be driven against a real bus rather than only
// encoded/decoded in memory.
package bus

import (
	"context"

	"github.com/Redux-Robotics/canandrepo-public/internal/frame"
)

// Conn is a bidirectional, context-cancellable CAN bus connection.
type Conn interface {
	// Send transmits fr, blocking until accepted by the kernel or ctx is
	// done.
	Send(ctx context.Context, fr frame.Frame) error
	// Recv blocks until a frame arrives or ctx is done.
	Recv(ctx context.Context) (frame.Frame, error)
	Close() error
}
