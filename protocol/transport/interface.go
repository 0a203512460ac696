package transport

import (
	"time"

	"github.com/3103lab/sbdp/protocol/common"
)

// IMessageConn is the interface for a framed message connection. It wraps
// exactly one connected byte-stream transport and delimits whole messages
// on it.
//
// A connection supports at most one sending and one receiving goroutine at
// a time; Shutdown is the only operation that may be called concurrently
// with an in-flight Send or Recv.
type IMessageConn interface {
	// SendMessage encodes msg and writes the complete frame, looping on
	// partial writes. It returns nil only once every byte was accepted by
	// the local transport.
	SendMessage(msg common.Message) error

	// RecvMessage reads exactly one frame and decodes it. A timeout of
	// zero blocks until the peer sends or the connection fails; a positive
	// timeout bounds each underlying read (the timeout is re-armed per
	// read, not applied as one absolute deadline).
	RecvMessage(timeout time.Duration) (common.Message, error)

	// Shutdown flips the connection's cancellation flag and wakes any
	// blocked read or write. All in-flight and future Send/Recv calls fail
	// with ErrCancelled. It does not release the connection; call Close.
	Shutdown()

	// Close releases the underlying transport. It is idempotent.
	Close() error

	// PeerAddress returns the remote address in printable form.
	PeerAddress() string
}
