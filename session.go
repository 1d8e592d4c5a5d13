package sftp

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

type sessionState int32

const (
	stateHandshaking sessionState = iota
	stateReady
	stateClosed
)

// Client is an SFTP v3 client session layered on top of an already
// established, already authenticated byte stream (typically the channel
// returned by requesting the "sftp" subsystem on an SSH session; see
// cmd/sftpc for a worked example using golang.org/x/crypto/ssh).
//
// A Client moves through exactly three states, in one direction:
// Handshaking, then Ready, then Closed. NewClient returns a Client only
// once the handshake has brought it to Ready; every operation on a Closed
// Client fails immediately with a ConnectionClosedError.
type Client struct {
	cfg *clientConfig

	conn io.ReadWriteCloser
	fr   *frameReader
	fw   *frameWriter
	mux  *mux

	state sessionState // atomic

	serverVersion    uint32
	serverExtensions []extensionPair

	closeOnce sync.Once
	closeErr  error
}

// NewClient performs the SSH_FXP_INIT/SSH_FXP_VERSION handshake over rw
// and, on success, starts the background dispatch loop and returns a
// Client in the Ready state. If the handshake does not complete within
// the configured timeout (15 seconds by default, see WithHandshakeTimeout)
// or the server offers an unsupported version, rw is closed and an error
// is returned.
func NewClient(rw io.ReadWriteCloser, opts ...ClientOption) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Client{
		cfg:   cfg,
		conn:  rw,
		fr:    newFrameReader(rw, cfg.maxFrameSize),
		fw:    newFrameWriter(rw),
		mux:   newMux(cfg.log),
		state: stateHandshaking,
	}

	if err := c.handshake(); err != nil {
		c.fail(err)
		return nil, err
	}

	atomic.StoreInt32((*int32)(&c.state), int32(stateReady))
	c.cfg.log.Infof("sftp: session ready, server version %d", c.serverVersion)
	go c.dispatchLoop()
	return c, nil
}

func (c *Client) handshake() error {
	c.cfg.log.Debugf("sftp: sending SSH_FXP_INIT version %d", ProtocolVersion)
	if err := c.fw.write(&initPkt{Version: ProtocolVersion, Extensions: c.cfg.extensions}); err != nil {
		return errors.Wrap(err, "sftp: sending init packet")
	}

	type frame struct {
		pktType byte
		data    []byte
		err     error
	}
	ch := make(chan frame, 1)
	go func() {
		pktType, data, err := c.fr.next()
		ch <- frame{pktType, data, err}
	}()

	timer := time.NewTimer(c.cfg.handshakeTimeout)
	defer timer.Stop()

	select {
	case f := <-ch:
		if f.err != nil {
			return errors.Wrap(f.err, "sftp: reading version packet")
		}
		if f.pktType != fxpVersion {
			return &InvalidResponseError{Op: "handshake", WantKind: fxp(fxpVersion).String(), GotKind: fxp(f.pktType).String()}
		}
		var v versionPkt
		if err := v.UnmarshalBinary(f.data); err != nil {
			return errors.Wrap(err, "sftp: decoding version packet")
		}
		if v.Version < ProtocolVersion {
			return &UnsupportedVersionError{ServerVersion: v.Version}
		}
		c.serverVersion = v.Version
		c.serverExtensions = v.Extensions
		return nil
	case <-timer.C:
		return &HandshakeTimeoutError{}
	}
}

// dispatchLoop reads frames until the transport fails, decoding each one
// as a response packet and routing it to the pending request it answers.
func (c *Client) dispatchLoop() {
	for {
		pktType, data, err := c.fr.next()
		if err != nil {
			c.fail(err)
			return
		}

		id, rest := peekID(data)
		pkt, err := decodeResponse(pktType, data)
		if err != nil {
			c.cfg.log.Warnf("sftp: %v", err)
			c.fail(err)
			return
		}
		_ = rest

		if !c.mux.route(id, pkt) {
			c.cfg.log.Warnf("sftp: response for unknown request id %d (type %s)", id, fxp(pktType))
		}
	}
}

// peekID extracts the leading request-ID field common to every response
// packet without fully decoding the packet; dispatchLoop routes the
// decoded packet by it.
func peekID(data []byte) (uint32, []byte) {
	id, rest, err := takeU32(data)
	if err != nil {
		return 0, data
	}
	return id, rest
}

// fail transitions the session to Closed because of a transport or
// protocol error (or nil, for an explicit Close), sweeping every pending
// request via the multiplexer's closeSweep. It is idempotent.
func (c *Client) fail(cause error) {
	c.closeOnce.Do(func() {
		atomic.StoreInt32((*int32)(&c.state), int32(stateClosed))
		c.closeErr = cause
		c.mux.closeSweep(cause)
		c.conn.Close()
		if cause != nil {
			c.cfg.log.Warnf("sftp: session closed: %v", cause)
		}
	})
}

// Close terminates the session: the underlying transport is closed and
// every in-flight request fails with a ConnectionClosedError. Close is
// idempotent and safe to call from any goroutine, including one currently
// blocked in another Client method.
func (c *Client) Close() error {
	c.fail(nil)
	return nil
}

// Ready reports whether the Client has completed its handshake and has
// not yet been closed.
func (c *Client) Ready() bool {
	return sessionState(atomic.LoadInt32((*int32)(&c.state))) == stateReady
}

// ServerExtensions returns the (name, data) extension pairs the server
// advertised in its SSH_FXP_VERSION reply.
func (c *Client) ServerExtensions() []extensionPair {
	return append([]extensionPair(nil), c.serverExtensions...)
}

// roundTrip submits req, writes it, and blocks for the matching response
// or for the session to close. The returned incomingPacket is exactly
// whatever the server sent; callers are responsible for validating its
// concrete type against the response-shape table for their operation.
func (c *Client) roundTrip(req outgoingPacket) (incomingPacket, error) {
	if !c.Ready() && sessionState(atomic.LoadInt32((*int32)(&c.state))) == stateClosed {
		return nil, &ConnectionClosedError{Cause: c.closeErr}
	}

	id, slot, err := c.mux.submit()
	if err != nil {
		return nil, err
	}
	setRequestID(req, id)

	if err := c.fw.write(req); err != nil {
		c.fail(err)
		return nil, &ConnectionClosedError{Cause: err}
	}

	select {
	case resp := <-slot.resp:
		return resp, nil
	case err := <-slot.err:
		return nil, err
	}
}

// setRequestID assigns the multiplexer-issued ID to req. Every request
// packet type carries its ID as the first marshaled field and exposes it
// through id(), so this is done via a small type switch rather than
// reflection.
func setRequestID(req outgoingPacket, id uint32) {
	switch p := req.(type) {
	case *openPkt:
		p.ID = id
	case *closePkt:
		p.ID = id
	case *readPkt:
		p.ID = id
	case *writePkt:
		p.ID = id
	case *lstatPkt:
		p.ID = id
	case *statPkt:
		p.ID = id
	case *fstatPkt:
		p.ID = id
	case *setstatPkt:
		p.ID = id
	case *fsetstatPkt:
		p.ID = id
	case *opendirPkt:
		p.ID = id
	case *readdirPkt:
		p.ID = id
	case *removePkt:
		p.ID = id
	case *mkdirPkt:
		p.ID = id
	case *rmdirPkt:
		p.ID = id
	case *realpathPkt:
		p.ID = id
	case *renamePkt:
		p.ID = id
	case *readlinkPkt:
		p.ID = id
	case *symlinkPkt:
		p.ID = id
	case *extendedPkt:
		p.ID = id
	default:
		panic("sftp: setRequestID: unhandled request packet type")
	}
}
