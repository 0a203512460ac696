package base

import (
	"encoding/binary"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport"
)

// newConnPair creates two framed connections joined by an in-memory pipe
func newConnPair(t *testing.T, config common.ConnConfig) (transport.IMessageConn, transport.IMessageConn) {
	t.Helper()
	p1, p2 := net.Pipe()
	c := codec.NewBinaryCodec()
	c1 := NewMessageConn(p1, c, config)
	c2 := NewMessageConn(p2, c, config)
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	return c1, c2
}

func testMessage() common.Message {
	msg := common.NewMessage()
	msg.SetString("name", "test")
	msg.SetInt64("count", -3)
	msg.SetBinary("data", []byte{0xCA, 0xFE})
	return msg
}

// TestSendRecvRoundTrip tests that a message travels intact across the pipe
func TestSendRecvRoundTrip(t *testing.T) {
	sender, receiver := newConnPair(t, common.ConnConfig{})

	msg := testMessage()
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- sender.SendMessage(msg)
	}()

	got, err := receiver.RecvMessage(time.Second)
	if err != nil {
		t.Fatalf("RecvMessage failed: %v", err)
	}
	if err := <-sendErr; err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if !msg.Equal(got) {
		t.Errorf("Message doesn't match after transfer:\nSent: %+v\nGot:  %+v", msg, got)
	}
}

// TestRecvTimeout tests that a receive against a silent peer times out
// within the stated bound
func TestRecvTimeout(t *testing.T) {
	_, receiver := newConnPair(t, common.ConnConfig{})

	timeout := 100 * time.Millisecond
	start := time.Now()
	_, err := receiver.RecvMessage(timeout)
	elapsed := time.Since(start)

	if !errors.Is(err, transport.ErrTimedOut) {
		t.Fatalf("Expected ErrTimedOut, got %v", err)
	}
	if !errors.Is(err, transport.ErrHeaderReception) {
		t.Errorf("Timeout while reading the header must carry ErrHeaderReception, got %v", err)
	}
	if elapsed < timeout {
		t.Errorf("Timed out after %v, before the %v timeout", elapsed, timeout)
	}
	if elapsed > timeout+time.Second {
		t.Errorf("Timed out after %v, far beyond the %v timeout", elapsed, timeout)
	}
}

// TestShutdownUnblocksRecv tests that cancellation from another goroutine
// wakes a blocked receive promptly
func TestShutdownUnblocksRecv(t *testing.T) {
	_, receiver := newConnPair(t, common.ConnConfig{})

	go func() {
		time.Sleep(50 * time.Millisecond)
		receiver.Shutdown()
	}()

	start := time.Now()
	_, err := receiver.RecvMessage(0) // would block forever without cancellation
	elapsed := time.Since(start)

	if !errors.Is(err, transport.ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("Cancellation took %v to unblock the receive", elapsed)
	}
}

// TestShutdownDiscardsPartialFrame tests that cancellation mid-frame never
// surfaces partially read bytes
func TestShutdownDiscardsPartialFrame(t *testing.T) {
	p1, p2 := net.Pipe()
	receiver := NewMessageConn(p2, codec.NewBinaryCodec(), common.ConnConfig{})
	t.Cleanup(func() {
		p1.Close()
		receiver.Close()
	})

	// Feed two of the four header bytes, then cancel
	go func() {
		p1.Write([]byte{0, 0})
		time.Sleep(50 * time.Millisecond)
		receiver.Shutdown()
	}()

	msg, err := receiver.RecvMessage(0)
	if !errors.Is(err, transport.ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if msg != nil {
		t.Errorf("No partial message may be returned, got %+v", msg)
	}
}

// slowArmConn delays the first deadline re-arm, widening the window in
// which a concurrent Shutdown lands between the cancellation check and the
// re-arm so its wake-up deadline gets overwritten
type slowArmConn struct {
	net.Conn
	delay time.Duration
	once  sync.Once
}

func (c *slowArmConn) SetReadDeadline(t time.Time) error {
	c.once.Do(func() { time.Sleep(c.delay) })
	return c.Conn.SetReadDeadline(t)
}

func (c *slowArmConn) SetWriteDeadline(t time.Time) error {
	c.once.Do(func() { time.Sleep(c.delay) })
	return c.Conn.SetWriteDeadline(t)
}

// TestShutdownRacingDeadlineRearm tests that a Shutdown landing while a
// blocked receive is re-arming its read deadline still unblocks it: the
// cancellation flag must be observed after the re-arm, otherwise the
// overwritten zero deadline blocks the read forever
func TestShutdownRacingDeadlineRearm(t *testing.T) {
	p1, p2 := net.Pipe()
	slow := &slowArmConn{Conn: p2, delay: 100 * time.Millisecond}
	receiver := NewMessageConn(slow, codec.NewBinaryCodec(), common.ConnConfig{})
	t.Cleanup(func() {
		p1.Close()
		receiver.Close()
	})

	// Shutdown fires while the first SetReadDeadline is still in flight,
	// so the past deadline it sets is overwritten by the zero re-arm
	go func() {
		time.Sleep(20 * time.Millisecond)
		receiver.Shutdown()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := receiver.RecvMessage(0)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, transport.ErrCancelled) {
			t.Fatalf("Expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RecvMessage did not return after Shutdown")
	}
}

// TestShutdownRacingWriteDeadlineRearm tests the same race on the send
// path: with a long write timeout configured, a Shutdown overwritten by
// the deadline re-arm would stall the send for the full timeout
func TestShutdownRacingWriteDeadlineRearm(t *testing.T) {
	p1, p2 := net.Pipe()
	slow := &slowArmConn{Conn: p2, delay: 100 * time.Millisecond}
	sender := NewMessageConn(slow, codec.NewBinaryCodec(), common.ConnConfig{WriteTimeoutSecond: 3600})
	t.Cleanup(func() {
		p1.Close()
		sender.Close()
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		sender.Shutdown()
	}()

	done := make(chan error, 1)
	go func() {
		done <- sender.SendMessage(testMessage()) // nobody reads p1, the write would block
	}()

	select {
	case err := <-done:
		if !errors.Is(err, transport.ErrCancelled) {
			t.Fatalf("Expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SendMessage did not return after Shutdown")
	}
}

// TestRecvTrickledFrame tests the per-read timeout semantics: a sender that
// trickles one byte at a time must not trip the timeout as long as each
// byte arrives within it
func TestRecvTrickledFrame(t *testing.T) {
	p1, p2 := net.Pipe()
	c := codec.NewBinaryCodec()
	receiver := NewMessageConn(p2, c, common.ConnConfig{})
	t.Cleanup(func() {
		p1.Close()
		receiver.Close()
	})

	msg := testMessage()
	frame, err := c.Encode(msg)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	perReadTimeout := 200 * time.Millisecond
	gap := 20 * time.Millisecond

	go func() {
		for _, b := range frame {
			p1.Write([]byte{b})
			time.Sleep(gap)
		}
	}()

	// The whole transfer takes longer than one timeout, but every single
	// read completes well within it.
	if len(frame)*int(gap) <= int(perReadTimeout) {
		t.Fatal("test frame too small to exercise timeout re-arming")
	}

	got, err := receiver.RecvMessage(perReadTimeout)
	if err != nil {
		t.Fatalf("RecvMessage failed on trickled frame: %v", err)
	}
	if !msg.Equal(got) {
		t.Errorf("Trickled message doesn't match: %+v", got)
	}
}

// TestRecvFrameTooLarge tests that an oversized declared length is rejected
// before any payload is read
func TestRecvFrameTooLarge(t *testing.T) {
	p1, p2 := net.Pipe()
	receiver := NewMessageConn(p2, codec.NewBinaryCodec(), common.ConnConfig{MaxPayloadBytes: 16})
	t.Cleanup(func() {
		p1.Close()
		receiver.Close()
	})

	go func() {
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], 1000)
		p1.Write(header[:])
	}()

	_, err := receiver.RecvMessage(time.Second)
	if !errors.Is(err, transport.ErrFrameTooLarge) {
		t.Fatalf("Expected ErrFrameTooLarge, got %v", err)
	}
}

// TestRecvPayloadReception tests that a peer closing mid-payload is
// reported as a payload reception failure
func TestRecvPayloadReception(t *testing.T) {
	p1, p2 := net.Pipe()
	receiver := NewMessageConn(p2, codec.NewBinaryCodec(), common.ConnConfig{})
	t.Cleanup(func() {
		receiver.Close()
	})

	go func() {
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], 10)
		p1.Write(header[:])
		p1.Write([]byte{1, 2, 3}) // 3 of the declared 10 bytes
		p1.Close()
	}()

	_, err := receiver.RecvMessage(time.Second)
	if !errors.Is(err, transport.ErrPayloadReception) {
		t.Fatalf("Expected ErrPayloadReception, got %v", err)
	}
	if !errors.Is(err, transport.ErrConnClosed) {
		t.Errorf("Peer closure must carry ErrConnClosed, got %v", err)
	}
}

// TestSendAfterShutdown tests that sends observe the cancellation flag
func TestSendAfterShutdown(t *testing.T) {
	sender, _ := newConnPair(t, common.ConnConfig{})

	sender.Shutdown()
	if err := sender.SendMessage(testMessage()); !errors.Is(err, transport.ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
}

// TestRecvDecodePropagation tests that codec errors from a well-framed but
// corrupt payload propagate unchanged
func TestRecvDecodePropagation(t *testing.T) {
	p1, p2 := net.Pipe()
	receiver := NewMessageConn(p2, codec.NewBinaryCodec(), common.ConnConfig{})
	t.Cleanup(func() {
		p1.Close()
		receiver.Close()
	})

	go func() {
		// Entry with unknown type tag 9
		payload := []byte{0, 1, 'a', 9, 0, 0, 0, 0, 0, 0, 0, 0}
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
		p1.Write(header[:])
		p1.Write(payload)
	}()

	_, err := receiver.RecvMessage(time.Second)
	if !errors.Is(err, codec.ErrUnknownType) {
		t.Fatalf("Expected ErrUnknownType, got %v", err)
	}
}

// TestCloseIdempotent tests that Close releases the conn exactly once
func TestCloseIdempotent(t *testing.T) {
	p1, p2 := net.Pipe()
	defer p2.Close()

	conn := NewMessageConn(p1, codec.NewBinaryCodec(), common.ConnConfig{})
	first := conn.Close()
	second := conn.Close()

	if first != nil {
		t.Errorf("First close failed: %v", first)
	}
	if second != first {
		t.Errorf("Second close must repeat the first result, got %v", second)
	}
}

// TestPeerAddress tests the printable peer address
func TestPeerAddress(t *testing.T) {
	c1, _ := newConnPair(t, common.ConnConfig{})
	if addr := c1.PeerAddress(); addr == "" {
		t.Error("PeerAddress must not be empty")
	}
}
