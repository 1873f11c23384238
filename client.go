package quic

import (
	"io"
	"net"

	"github.com/pkg/errors"

	"github.com/goburrow/quic/transport"
)

// Client is a QUIC endpoint that dials outbound connections.
type Client struct {
	endpoint *endpoint
}

// NewClient creates a Client using config for every connection it dials.
func NewClient(config *transport.Config) *Client {
	return &Client{endpoint: newEndpoint(config, false)}
}

// SetHandler sets the callback invoked with each connection's events.
func (c *Client) SetHandler(h Handler) {
	c.endpoint.setHandler(h)
}

// SetLogger configures verbose logging to w at the given level.
func (c *Client) SetLogger(level int, w io.Writer) {
	c.endpoint.logger.setWriter(logLevel(level), w)
}

// ListenAndServe opens a UDP socket on addr and starts the receive loop.
// addr may be ":0" to pick an ephemeral local port.
func (c *Client) ListenAndServe(addr string) error {
	return c.endpoint.listenAndServe(addr)
}

// Connect dials a new connection to addr, which must be a "host:port" UDP
// address. The handshake runs asynchronously; EventConnAccept fires on
// completion.
func (c *Client) Connect(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return errors.Wrap(err, "quic: resolve")
	}
	return c.endpoint.connect(udpAddr)
}

// Close shuts down every connection and the client's socket.
func (c *Client) Close() error {
	return c.endpoint.close()
}
