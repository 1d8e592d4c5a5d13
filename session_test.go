package sftp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer reads one frame at a time off conn and hands it to handle,
// which may write any number of response frames back before returning.
// It stops silently when conn is closed.
func fakeServer(t *testing.T, conn net.Conn, handle func(pktType byte, data []byte, fw *frameWriter)) {
	t.Helper()
	fr := newFrameReader(conn, 0)
	fw := newFrameWriter(conn)
	go func() {
		for {
			pktType, data, err := fr.next()
			if err != nil {
				return
			}
			handle(pktType, data, fw)
		}
	}()
}

func acceptHandshake(version uint32) func(byte, []byte, *frameWriter) {
	return func(pktType byte, data []byte, fw *frameWriter) {
		if pktType != fxpInit {
			return
		}
		fw.write(&versionPkt{Version: version})
	}
}

func TestNewClientHandshakeSuccess(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	fakeServer(t, serverConn, acceptHandshake(ProtocolVersion))

	c, err := NewClient(clientConn)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Ready())
	require.EqualValues(t, ProtocolVersion, c.serverVersion)
}

func TestNewClientRejectsUnsupportedVersion(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	fakeServer(t, serverConn, acceptHandshake(2))

	_, err := NewClient(clientConn)
	require.Error(t, err)
	var uv *UnsupportedVersionError
	require.ErrorAs(t, err, &uv)
}

func TestNewClientAcceptsNewerVersion(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	fakeServer(t, serverConn, acceptHandshake(ProtocolVersion+1))

	c, err := NewClient(clientConn)
	require.NoError(t, err)
	defer c.Close()

	require.True(t, c.Ready())
	require.EqualValues(t, ProtocolVersion+1, c.serverVersion)
}

func TestNewClientHandshakeTimeout(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	// Server never replies.
	fakeServer(t, serverConn, func(byte, []byte, *frameWriter) {})

	_, err := NewClient(clientConn, WithHandshakeTimeout(50*time.Millisecond))
	require.Error(t, err)
	var hte *HandshakeTimeoutError
	require.ErrorAs(t, err, &hte)
}

func TestClientRoundTripOpenFile(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	fakeServer(t, serverConn, func(pktType byte, data []byte, fw *frameWriter) {
		switch pktType {
		case fxpInit:
			fw.write(&versionPkt{Version: ProtocolVersion})
		case fxpOpen:
			var p openPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&handlePkt{ID: p.ID, Handle: "handle-1"})
		case fxpClose:
			var p closePkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		}
	})

	c, err := NewClient(clientConn)
	require.NoError(t, err)
	defer c.Close()

	f, err := c.OpenFile("/tmp/x", OpenRead, nil)
	require.NoError(t, err)
	require.Equal(t, "handle-1", f.handle)
	require.NoError(t, f.Close())
}

func TestClientCloseIsIdempotent(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	fakeServer(t, serverConn, acceptHandshake(ProtocolVersion))

	c, err := NewClient(clientConn)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.False(t, c.Ready())
}

func TestClientPendingRequestsFailOnClose(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	released := make(chan struct{})
	fakeServer(t, serverConn, func(pktType byte, data []byte, fw *frameWriter) {
		if pktType == fxpInit {
			fw.write(&versionPkt{Version: ProtocolVersion})
			return
		}
		// Swallow every other request so it never gets a reply.
		close(released)
	})

	c, err := NewClient(clientConn)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Stat("/never/answered")
		errCh <- err
	}()

	<-released
	require.NoError(t, c.Close())

	err = <-errCh
	require.Error(t, err)
	var cce *ConnectionClosedError
	require.ErrorAs(t, err, &cce)
}
