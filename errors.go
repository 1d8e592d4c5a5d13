package sftp

import "fmt"

// StatusError is the Go representation of an SSH_FXP_STATUS reply whose
// code is not SSH_FX_OK. File.Read reports SSH_FX_EOF as io.EOF instead;
// Dir.ReadDir reports it as the ErrEOF sentinel, itself a StatusError.
// It satisfies the error interface and is comparable with errors.As.
type StatusError struct {
	Code uint32
	Msg  string
	Lang string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("sftp: %s (%s)", e.Msg, fx(e.Code))
	}
	return fmt.Sprintf("sftp: %s", fx(e.Code))
}

// Is allows errors.Is(err, ErrEOF) style comparisons against the sentinel
// statuses below: any *StatusError target matches when the codes are equal.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ErrEOF is the sentinel SSH_FX_EOF status, returned by ReadDir to signal
// the end of a directory listing. File.Read reports end-of-file as io.EOF.
var ErrEOF = &StatusError{Code: fxEOF, Msg: "EOF"}

// ErrNoSuchFile is the sentinel SSH_FX_NO_SUCH_FILE status.
var ErrNoSuchFile = &StatusError{Code: fxNoSuchFile, Msg: "no such file"}

// ErrPermissionDenied is the sentinel SSH_FX_PERMISSION_DENIED status.
var ErrPermissionDenied = &StatusError{Code: fxPermissionDenied, Msg: "permission denied"}

// ConnectionClosedError is returned by any in-flight or new operation once
// the session has transitioned to Closed, whether by an explicit Close
// call, a transport read error, or a handshake failure.
type ConnectionClosedError struct {
	// Cause is the error that caused the session to close, or nil if the
	// session was closed deliberately via Client.Close.
	Cause error
}

func (e *ConnectionClosedError) Error() string {
	if e.Cause == nil {
		return "sftp: connection closed"
	}
	return fmt.Sprintf("sftp: connection closed: %v", e.Cause)
}

func (e *ConnectionClosedError) Unwrap() error { return e.Cause }

// MissingResponseError is returned for a request in flight when the
// handshake deadline expires, or on an explicit deadline miss. A session
// closed for any other reason fails pending requests with
// ConnectionClosedError instead.
type MissingResponseError struct {
	RequestID uint32
}

func (e *MissingResponseError) Error() string {
	return fmt.Sprintf("sftp: no response received for request id %d before connection closed", e.RequestID)
}

// UnsupportedVersionError is returned when the server's VERSION reply
// advertises a version below ProtocolVersion.
type UnsupportedVersionError struct {
	ServerVersion uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("sftp: server offered unsupported version %d, want %d", e.ServerVersion, ProtocolVersion)
}

// InvalidResponseError is returned when the server replies to a request
// with a packet type that is not a valid response for that request (a
// violation of the response-shape table in section 4.E), or with a NAME
// reply that does not carry exactly one entry where one is required.
type InvalidResponseError struct {
	Op       string
	WantKind string
	GotKind  string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("sftp: %s: unexpected response packet: want %s, got %s", e.Op, e.WantKind, e.GotKind)
}

// HandshakeTimeoutError is returned when the server fails to complete the
// INIT/VERSION exchange within the configured handshake timeout.
type HandshakeTimeoutError struct{}

func (e *HandshakeTimeoutError) Error() string { return "sftp: handshake timed out" }

// FileClosedError is returned by any operation on a File or Dir whose
// Close method has already returned.
type FileClosedError struct {
	Handle string
}

func (e *FileClosedError) Error() string {
	return fmt.Sprintf("sftp: use of closed file handle %q", e.Handle)
}

// OpenModeError is returned when a File operation is attempted that the
// OpenFlags passed to OpenFile do not permit, e.g. calling Write on a file
// opened with only OpenRead.
type OpenModeError struct {
	Op     string
	Handle string
}

func (e *OpenModeError) Error() string {
	return fmt.Sprintf("sftp: %s: not permitted by the flags file %q was opened with", e.Op, e.Handle)
}

// ProtocolError indicates the peer sent a frame the framer rejects: a
// zero-length frame, or one whose length exceeds the maximum frame size.
// A packet body shorter than its own fields require is not reported as a
// ProtocolError; decoding it fails with the package's short-packet error.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "sftp: protocol error: " + e.Msg }
