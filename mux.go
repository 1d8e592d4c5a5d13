package sftp

import "sync"

// pendingSlot is a one-shot completion slot for a single in-flight
// request. The dispatch loop fills it exactly once, either with the
// decoded response packet or with an error (a protocol violation, or the
// session closing out from under it).
type pendingSlot struct {
	resp chan incomingPacket
	err  chan error
}

func newPendingSlot() *pendingSlot {
	return &pendingSlot{
		resp: make(chan incomingPacket, 1),
		err:  make(chan error, 1),
	}
}

func (s *pendingSlot) fulfill(p incomingPacket) { s.resp <- p }
func (s *pendingSlot) fail(err error)           { s.err <- err }

// mux allocates request IDs and routes inbound response packets back to
// the goroutine that issued the matching request. IDs are a monotonically
// incrementing uint32 that wraps; per spec.md this core does not guard
// against a wrapped ID colliding with one still in flight (any real
// session completes requests long before 2^32 of them are outstanding) but
// it does log a warning if that ever happens, rather than silently
// overwriting the older request's slot.
type mux struct {
	log Logger

	mu      sync.Mutex
	nextID  uint32
	pending map[uint32]*pendingSlot
	closed  bool
	closeErr error
}

func newMux(log Logger) *mux {
	return &mux{
		log:     log,
		nextID:  1,
		pending: make(map[uint32]*pendingSlot),
	}
}

// submit allocates a fresh request ID and registers a completion slot for
// it, returning both. The caller must send the request using this ID
// before any response for it can be routed.
func (m *mux) submit() (uint32, *pendingSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil, &ConnectionClosedError{Cause: m.closeErr}
	}
	id := m.nextID
	m.nextID++
	if _, overlap := m.pending[id]; overlap {
		m.log.Warnf("sftp: request id %d wrapped onto a still in-flight request", id)
	}
	slot := newPendingSlot()
	m.pending[id] = slot
	return id, slot, nil
}

// route delivers an inbound response to the slot registered for its
// request ID. It reports whether a matching slot was found; an unmatched
// ID is a protocol error the caller should surface (a server must never
// reply to a request ID that was never issued, or reply twice to the
// same one).
func (m *mux) route(id uint32, p incomingPacket) bool {
	m.mu.Lock()
	slot, ok := m.pending[id]
	if ok {
		delete(m.pending, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	slot.fulfill(p)
	return true
}

// closeSweep marks the mux closed and fails every still-pending request
// with cause. No further submit calls will succeed.
//
// A general session termination (explicit Close, transport error,
// decode/protocol error) fails every pending slot with a
// ConnectionClosedError wrapping cause. The one exception is the
// handshake-timeout path: cause arrives as a *HandshakeTimeoutError there,
// and pending slots are failed with MissingResponseError instead, per the
// error taxonomy's "handshake timeout or explicit deadline miss" scoping.
func (m *mux) closeSweep(cause error) {
	m.mu.Lock()
	m.closed = true
	m.closeErr = cause
	pending := m.pending
	m.pending = make(map[uint32]*pendingSlot)
	m.mu.Unlock()

	_, handshakeTimeout := cause.(*HandshakeTimeoutError)

	for id, slot := range pending {
		if handshakeTimeout {
			slot.fail(&MissingResponseError{RequestID: id})
			continue
		}
		slot.fail(&ConnectionClosedError{Cause: cause})
	}
}
