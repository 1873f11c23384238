package quic

import (
	"io"

	"github.com/goburrow/quic/transport"
)

// Server is a QUIC endpoint that accepts inbound connections.
type Server struct {
	endpoint *endpoint
}

// NewServer creates a Server using config for every accepted connection.
// config.ListenKeys should be set so the server can issue stateless reset
// tokens and survive restarts without breaking existing connections'
// ability to detect loss of state.
func NewServer(config *transport.Config) *Server {
	return &Server{endpoint: newEndpoint(config, true)}
}

// SetHandler sets the callback invoked with each connection's events.
func (s *Server) SetHandler(h Handler) {
	s.endpoint.setHandler(h)
}

// SetLogger configures verbose logging to w at the given level.
func (s *Server) SetLogger(level int, w io.Writer) {
	s.endpoint.logger.setWriter(logLevel(level), w)
}

// ListenAndServe opens a UDP socket on addr and starts accepting connections.
func (s *Server) ListenAndServe(addr string) error {
	return s.endpoint.listenAndServe(addr)
}

// Close shuts down every connection and the server's socket.
func (s *Server) Close() error {
	return s.endpoint.close()
}
