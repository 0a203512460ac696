package client

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport/base"
	"github.com/3103lab/sbdp/protocol/transport/tcp"
)

func testConfig(endpoint string) common.ClientConfig {
	return common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoint:   endpoint,
			RetryCount: 2,
		},
	}
}

// startEchoListener accepts a single connection and echoes every message
// back to the sender
func startEchoListener(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		mc := base.NewMessageConn(conn, codec.NewBinaryCodec(), common.ConnConfig{})
		defer mc.Close()

		for {
			msg, err := mc.RecvMessage(time.Second)
			if err != nil {
				return
			}
			if err := mc.SendMessage(msg); err != nil {
				return
			}
		}
	}()

	return listener.Addr().String()
}

// TestDialAndCall tests connecting and a full call against an echo peer
func TestDialAndCall(t *testing.T) {
	addr := startEchoListener(t)

	c, err := Dial(testConfig(addr), tcp.NewClientConnector(), codec.NewBinaryCodec())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	msg := common.NewMessage()
	msg.SetString("greeting", "hello")
	msg.SetFloat64("pi", 3.14159)

	reply, err := c.Call(msg)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !msg.Equal(reply) {
		t.Errorf("Echo reply doesn't match:\nSent: %+v\nGot:  %+v", msg, reply)
	}
}

// TestDialNoEndpoint tests that an empty endpoint is rejected up front
func TestDialNoEndpoint(t *testing.T) {
	_, err := Dial(testConfig(""), tcp.NewClientConnector(), codec.NewBinaryCodec())
	if err == nil {
		t.Fatal("Dial must fail without an endpoint")
	}
}

// TestDialRetriesExhausted tests that Dial gives up after the configured
// number of attempts against an unreachable endpoint
func TestDialRetriesExhausted(t *testing.T) {
	// Bind and immediately close to get a port that refuses connections
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	_, err = Dial(testConfig(addr), tcp.NewClientConnector(), codec.NewBinaryCodec())
	if err == nil {
		t.Fatal("Dial must fail against a closed endpoint")
	}
	if !strings.Contains(err.Error(), "2 attempts") {
		t.Errorf("Error must report the attempt count, got: %v", err)
	}
}

// TestSendRecvSplit tests the one-directional Send and Recv paths
func TestSendRecvSplit(t *testing.T) {
	addr := startEchoListener(t)

	c, err := Dial(testConfig(addr), tcp.NewClientConnector(), codec.NewBinaryCodec())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	msg := common.NewMessage()
	msg.SetUint64("id", 42)

	if err := c.Send(msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	reply, err := c.Recv(time.Second)
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if !msg.Equal(reply) {
		t.Errorf("Reply doesn't match: %+v", reply)
	}
}

// TestPeerAddress tests that the client reports the server address
func TestPeerAddress(t *testing.T) {
	addr := startEchoListener(t)

	c, err := Dial(testConfig(addr), tcp.NewClientConnector(), codec.NewBinaryCodec())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	if got := c.PeerAddress(); got != addr {
		t.Errorf("Expected peer address %s, got %s", addr, got)
	}
}
