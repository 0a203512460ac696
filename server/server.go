package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/3103lab/sbdp/protocol/codec"
	"github.com/3103lab/sbdp/protocol/common"
	"github.com/3103lab/sbdp/protocol/transport"
	"github.com/3103lab/sbdp/protocol/transport/base"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	_ "net/http/pprof"
)

var Logger = logger.GetLogger("sbdp/server")

var (
	activeConnections = metrics.NewCounter("sbdp_server_active_connections")
	handlerFailures   = metrics.NewCounter("sbdp_server_handler_failures_total")
)

// HandleFunc processes one received message and returns the reply to send
// back on the same connection. peer is the remote address in printable form.
// A returned error is reported to the peer as an error message; the
// connection stays open.
type HandleFunc func(peer string, msg common.Message) (common.Message, error)

// Server accepts connections and drives one receive loop per connection.
//
// Usage:
//
//	s := server.NewServer(
//		config,
//		tcp.NewServerConnector(),
//		codec.NewBinaryCodec(),
//	)
//	s.RegisterHandler(handler)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
type Server struct {
	config    common.ServerConfig
	connector base.IServerConnector
	codec     codec.ICodec
	handler   HandleFunc

	mu       sync.Mutex
	listener net.Listener

	conns      *xsync.MapOf[uint64, transport.IMessageConn]
	nextConnID uint64
	stopping   atomic.Bool
}

// NewServer creates a new message server
func NewServer(config common.ServerConfig, connector base.IServerConnector, c codec.ICodec) *Server {
	return &Server{
		config:    config,
		connector: connector,
		codec:     c,
		conns:     xsync.NewMapOf[uint64, transport.IMessageConn](),
	}
}

// RegisterHandler registers the handler invoked for every received message.
// Must be called before Serve.
func (s *Server) RegisterHandler(handler HandleFunc) {
	s.handler = handler
}

// Serve listens on the configured endpoint and accepts connections until
// Stop is called. It blocks for the lifetime of the server.
func (s *Server) Serve() error {
	if s.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	listener, err := s.connector.Listen(s.config.Transport.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	Logger.Infof("Starting %s server on %s", s.connector.GetName(), listener.Addr())

	if s.config.MetricsEndpoint != "" {
		go s.serveMetrics()
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.stopping.Load() {
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := s.connector.UpgradeConnection(conn, s.config.Transport.SocketConf, s.config.Transport.TCPConf); err != nil {
			Logger.Errorf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		id := atomic.AddUint64(&s.nextConnID, 1)
		mc := base.NewMessageConn(conn, s.codec, s.config.Conn)
		s.conns.Store(id, mc)
		activeConnections.Inc()

		go s.handleConnection(id, mc)
	}
}

// Addr returns the listener address once Serve has bound it, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and shuts down every active connection. Blocked
// receives observe the cancellation promptly; their goroutines close the
// connections on the way out.
func (s *Server) Stop() {
	s.stopping.Store(true)

	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	s.conns.Range(func(_ uint64, mc transport.IMessageConn) bool {
		mc.Shutdown()
		return true
	})
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection receives messages in a loop and replies with the
// handler's response
func (s *Server) handleConnection(id uint64, mc transport.IMessageConn) {
	peer := mc.PeerAddress()
	Logger.Infof("Connection from %s", peer)

	defer func() {
		s.conns.Delete(id)
		activeConnections.Dec()
		mc.Close()
	}()

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	for {
		msg, err := mc.RecvMessage(timeout)

		// Case shutdown or peer closed: normal end of the connection
		if errors.Is(err, transport.ErrCancelled) {
			Logger.Infof("Connection to %s cancelled", peer)
			return
		}
		if errors.Is(err, transport.ErrConnClosed) {
			Logger.Infof("Connection closed by %s", peer)
			return
		}

		// Case error: the stream may be desynced, close the connection
		if err != nil {
			Logger.Errorf("Error receiving from %s: %v", peer, err)
			return
		}

		start := time.Now()
		resp, err := s.handler(peer, msg)
		if err != nil {
			handlerFailures.Inc()
			Logger.Warningf("Handler failed for %s: %v", peer, err)
			resp = common.Message{"error": common.StringValue(err.Error())}
		}
		Logger.Debugf("Handled message from %s (%d entries) in %s", peer, len(msg), time.Since(start))

		if err := mc.SendMessage(resp); err != nil {
			Logger.Errorf("Failed to send response to %s: %v", peer, err)
			return
		}
	}
}

// serveMetrics exposes prometheus-format metrics and pprof on the
// configured endpoint
func (s *Server) serveMetrics() {
	// Private mux so several servers in one process can each expose an
	// endpoint without clashing on the default mux
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	Logger.Infof("Metrics listening on %s", s.config.MetricsEndpoint)
	if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil {
		Logger.Errorf("Metrics listener failed: %v", err)
	}
}
