package sftp

import (
	"errors"
	"testing"
)

func TestStatusErrorIs(t *testing.T) {
	err := &StatusError{Code: fxEOF, Msg: "EOF"}
	if !errors.Is(err, ErrEOF) {
		t.Error("StatusError with code fxEOF should be errors.Is(ErrEOF)")
	}
	if errors.Is(err, ErrNoSuchFile) {
		t.Error("StatusError with code fxEOF should not be errors.Is(ErrNoSuchFile)")
	}
}

func TestConnectionClosedErrorUnwrap(t *testing.T) {
	cause := errors.New("transport died")
	err := &ConnectionClosedError{Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ConnectionClosedError should unwrap to its cause")
	}
}

func TestConnectionClosedErrorNilCause(t *testing.T) {
	err := &ConnectionClosedError{}
	if err.Error() == "" {
		t.Error("ConnectionClosedError.Error() should not be empty with nil cause")
	}
}
