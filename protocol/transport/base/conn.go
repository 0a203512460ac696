package base

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("sbdp/transport")

var (
	messagesSent     = metrics.NewCounter("sbdp_messages_sent_total")
	bytesSent        = metrics.NewCounter("sbdp_bytes_sent_total")
	messagesReceived = metrics.NewCounter("sbdp_messages_received_total")
	bytesReceived    = metrics.NewCounter("sbdp_bytes_received_total")
	recvTimeouts     = metrics.NewCounter("sbdp_recv_timeouts_total")
	decodeFailures   = metrics.NewCounter("sbdp_decode_failures_total")
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the given endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, sock common.SocketConf, tcpConf common.TCPConf) error
}

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener on the given endpoint and returns it
	Listen(endpoint string) (net.Listener, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, sock common.SocketConf, tcpConf common.TCPConf) error
}

// -----------------------------------------------------------
// Framed Message Connection
// -----------------------------------------------------------

// messageConn implements transport.IMessageConn over one net.Conn.
// It exclusively owns the conn; Close releases it exactly once.
type messageConn struct {
	conn      net.Conn
	codec     codec.ICodec
	config    common.ConnConfig
	cancelled atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewMessageConn wraps an already-connected net.Conn in a framed message
// connection. Ownership of conn transfers to the returned value.
func NewMessageConn(conn net.Conn, c codec.ICodec, config common.ConnConfig) transport.IMessageConn {
	return &messageConn{
		conn:   conn,
		codec:  c,
		config: config,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IMessageConn)
// --------------------------------------------------------------------------

func (c *messageConn) SendMessage(msg common.Message) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}

	// Loop until the full frame is on the wire
	total := 0
	for total < len(data) {
		if c.cancelled.Load() {
			return transport.ErrCancelled
		}

		if c.config.WriteTimeoutSecond > 0 {
			deadline := time.Now().Add(time.Duration(c.config.WriteTimeoutSecond) * time.Second)
			if err := c.conn.SetWriteDeadline(deadline); err != nil {
				return fmt.Errorf("%w: %v", transport.ErrConnClosed, err)
			}
			// Re-check after arming: a Shutdown between the check above and
			// the SetWriteDeadline would have its wake-up deadline
			// overwritten by the re-arm.
			if c.cancelled.Load() {
				return transport.ErrCancelled
			}
		}

		n, err := c.conn.Write(data[total:])
		total += n
		if err != nil {
			if c.cancelled.Load() {
				return transport.ErrCancelled
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return fmt.Errorf("%w: %v", transport.ErrTimedOut, err)
			}
			return fmt.Errorf("%w: %v", transport.ErrConnClosed, err)
		}
	}

	messagesSent.Inc()
	bytesSent.Add(len(data))
	return nil
}

func (c *messageConn) RecvMessage(timeout time.Duration) (common.Message, error) {
	var header [codec.FrameHeaderSize]byte
	if err := c.recvAll(header[:], timeout); err != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrHeaderReception, err)
	}

	payloadLen := int(binary.BigEndian.Uint32(header[:]))

	// Enforce the payload cap before allocating or reading anything: the
	// length field is attacker-controlled.
	if limit := c.config.EffectiveMaxPayload(); limit > 0 && payloadLen > limit {
		return nil, fmt.Errorf("%w: peer declared %d bytes (limit %d)", transport.ErrFrameTooLarge, payloadLen, limit)
	}

	buf := make([]byte, codec.FrameHeaderSize+payloadLen)
	copy(buf, header[:])

	if err := c.recvAll(buf[codec.FrameHeaderSize:], timeout); err != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrPayloadReception, err)
	}

	msg, err := c.codec.Decode(buf)
	if err != nil {
		decodeFailures.Inc()
		return nil, err
	}

	messagesReceived.Inc()
	bytesReceived.Add(len(buf))
	return msg, nil
}

func (c *messageConn) Shutdown() {
	c.cancelled.Store(true)

	// Move the deadline into the past so blocked reads and writes wake
	// immediately and observe the flag.
	_ = c.conn.SetDeadline(time.Now())
}

func (c *messageConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *messageConn) PeerAddress() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "[unknown]"
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// recvAll reads exactly len(buf) bytes. With a positive timeout the read
// deadline is re-armed before every underlying read, so the timeout bounds
// each read rather than the whole transfer; a slow but steady sender never
// times out mid-frame. The cancellation flag is checked at every iteration
// boundary, and partially read bytes are never surfaced to the caller.
func (c *messageConn) recvAll(buf []byte, timeout time.Duration) error {
	received := 0
	for received < len(buf) {
		if c.cancelled.Load() {
			return transport.ErrCancelled
		}

		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return fmt.Errorf("%w: %v", transport.ErrConnClosed, err)
		}
		// Re-check after arming: a Shutdown between the check above and the
		// SetReadDeadline would have its wake-up deadline overwritten by the
		// re-arm, and with a zero deadline the read would block forever.
		if c.cancelled.Load() {
			return transport.ErrCancelled
		}

		n, err := c.conn.Read(buf[received:])
		received += n
		if err != nil {
			if c.cancelled.Load() {
				return transport.ErrCancelled
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				recvTimeouts.Inc()
				return transport.ErrTimedOut
			}
			return fmt.Errorf("%w: %v", transport.ErrConnClosed, err)
		}
	}
	return nil
}
