package client

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport"
	"github.com/3103lab/sbdp/protocol/transport/base"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("sbdp/client")

// Client owns one framed message connection to a server.
//
// Usage:
//
//	c, err := client.Dial(config, tcp.NewClientConnector(), codec.NewBinaryCodec())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	reply, err := c.Call(msg)
type Client struct {
	config common.ClientConfig
	conn   transport.IMessageConn
}

// Dial connects to the configured endpoint, retrying with exponential
// backoff and jitter, and returns a connected Client.
func Dial(config common.ClientConfig, connector base.IClientConnector, c codec.ICodec) (*Client, error) {
	if config.Transport.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint provided")
	}

	maxRetries := config.Transport.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	backoffMs := 50

	for i := 0; i < maxRetries; i++ {
		conn, err := connector.Connect(config.Transport.Endpoint)
		if err == nil {
			if err := connector.UpgradeConnection(conn, config.Transport.SocketConf, config.Transport.TCPConf); err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to upgrade connection to %s: %v", config.Transport.Endpoint, err)
			}

			Logger.Infof("Connected to %s using %s transport", config.Transport.Endpoint, connector.GetName())
			return &Client{
				config: config,
				conn:   base.NewMessageConn(conn, c, config.Conn),
			}, nil
		}

		lastErr = err
		Logger.Debugf("Connect attempt %d/%d to %s failed: %v", i+1, maxRetries, config.Transport.Endpoint, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to %s after %d attempts: %v", config.Transport.Endpoint, maxRetries, lastErr)
}

// --------------------------------------------------------------------------
// Client Methods
// --------------------------------------------------------------------------

// Send transmits one message
func (c *Client) Send(msg common.Message) error {
	return c.conn.SendMessage(msg)
}

// Recv receives one message, bounded by the given timeout (zero blocks)
func (c *Client) Recv(timeout time.Duration) (common.Message, error) {
	return c.conn.RecvMessage(timeout)
}

// Call sends a message and waits for the reply, bounded by the configured
// client timeout
func (c *Client) Call(msg common.Message) (common.Message, error) {
	if err := c.conn.SendMessage(msg); err != nil {
		return nil, err
	}
	return c.conn.RecvMessage(time.Duration(c.config.TimeoutSecond) * time.Second)
}

// Shutdown cancels any in-flight send or receive. The connection is
// unusable afterwards; call Close to release it.
func (c *Client) Shutdown() {
	c.conn.Shutdown()
}

// Close releases the connection. Idempotent.
func (c *Client) Close() error {
	return c.conn.Close()
}

// PeerAddress returns the server's remote address
func (c *Client) PeerAddress() string {
	return c.conn.PeerAddress()
}
