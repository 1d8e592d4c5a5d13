package sftp

import "time"

// defaultHandshakeTimeout is the 15-second deadline spec.md places on the
// INIT/VERSION exchange.
const defaultHandshakeTimeout = 15 * time.Second

// defaultMaxPacketSize bounds the payload of a single READ/WRITE request,
// independent of maxFrameSize which bounds any inbound frame.
const defaultMaxPacketSize = 32 * 1024

type clientConfig struct {
	log              Logger
	handshakeTimeout time.Duration
	maxPacketSize    uint32
	maxFrameSize     uint32
	extensions       []extensionPair
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		log:              defaultLogger(),
		handshakeTimeout: defaultHandshakeTimeout,
		maxPacketSize:    defaultMaxPacketSize,
		maxFrameSize:     defaultMaxFrameSize,
	}
}

// ClientOption configures a Client at construction time.
type ClientOption func(*clientConfig)

// WithLogger sets the Logger the Client reports handshake, dispatch, and
// close events through. The default is logrus.StandardLogger() at Info
// level; pass nopLogger{} to discard all log output.
func WithLogger(log Logger) ClientOption {
	return func(c *clientConfig) { c.log = log }
}

// WithHandshakeTimeout overrides the 15-second default deadline for the
// INIT/VERSION exchange.
func WithHandshakeTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.handshakeTimeout = d }
}

// WithMaxPacketSize caps the number of bytes the Client requests in a
// single READ, and the number of bytes it will send in a single WRITE.
func WithMaxPacketSize(n uint32) ClientOption {
	return func(c *clientConfig) { c.maxPacketSize = n }
}

// WithMaxFrameSize overrides the 16MiB default ceiling on a single
// inbound frame. A server that sends a longer frame causes the session
// to fail with a ProtocolError.
func WithMaxFrameSize(n uint32) ClientOption {
	return func(c *clientConfig) { c.maxFrameSize = n }
}

// WithExtension advertises a named extension pair on the client's INIT
// packet, e.g. WithExtension("posix-rename@openssh.com", "1"). May be
// given more than once to advertise several extensions.
func WithExtension(name, data string) ClientOption {
	return func(c *clientConfig) {
		c.extensions = append(c.extensions, extensionPair{Name: name, Data: data})
	}
}
