package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport/base"
)

// --------------------------------------------------------------------------
// Client Connector
// --------------------------------------------------------------------------

// clientConnector implements the base.IClientConnector interface for TCP sockets
type clientConnector struct{}

// NewClientConnector creates a new TCP client connector
func NewClientConnector() base.IClientConnector {
	return &clientConnector{}
}

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, sock common.SocketConf, tcpConf common.TCPConf) error {
	return upgradeConnection(conn, sock, tcpConf)
}

// --------------------------------------------------------------------------
// Server Connector
// --------------------------------------------------------------------------

// serverConnector implements the base.IServerConnector interface for TCP sockets
type serverConnector struct{}

// NewServerConnector creates a new TCP server connector
func NewServerConnector() base.IServerConnector {
	return &serverConnector{}
}

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(endpoint string) (net.Listener, error) {
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create TCP listener: %v", err)
	}
	return listener, nil
}

func (c *serverConnector) UpgradeConnection(conn net.Conn, sock common.SocketConf, tcpConf common.TCPConf) error {
	return upgradeConnection(conn, sock, tcpConf)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// upgradeConnection applies socket tuning to an established TCP connection
func upgradeConnection(conn net.Conn, sock common.SocketConf, tcpConf common.TCPConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm if configured
	if err := tcpConn.SetNoDelay(tcpConf.TCPNoDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if sock.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(sock.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if sock.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(sock.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if tcpConf.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(tcpConf.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// Set linger option if configured
	if tcpConf.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(tcpConf.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
