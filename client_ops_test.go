package sftp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func newReadyTestClient(t *testing.T, handle func(pktType byte, data []byte, fw *frameWriter)) (*Client, func()) {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	fakeServer(t, serverConn, func(pktType byte, data []byte, fw *frameWriter) {
		if pktType == fxpInit {
			fw.write(&versionPkt{Version: ProtocolVersion})
			return
		}
		handle(pktType, data, fw)
	})

	c, err := NewClient(clientConn)
	require.NoError(t, err)
	return c, func() {
		c.Close()
		serverConn.Close()
	}
}

func TestClientStatAndLstat(t *testing.T) {
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		switch pktType {
		case fxpStat:
			var p statPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&attrPkt{ID: p.ID, Attrs: &FileAttributes{Flags: AttrSize, Size: 42}})
		case fxpLstat:
			var p lstatPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&attrPkt{ID: p.ID, Attrs: &FileAttributes{Flags: AttrSize, Size: 7}})
		}
	})
	defer cleanup()

	attrs, err := c.Stat("/a")
	require.NoError(t, err)
	require.EqualValues(t, 42, attrs.Size)

	attrs, err = c.Lstat("/a")
	require.NoError(t, err)
	require.EqualValues(t, 7, attrs.Size)
}

func TestClientStatNoSuchFile(t *testing.T) {
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		if pktType == fxpStat {
			var p statPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxNoSuchFile, Msg: "no such file"}})
		}
	})
	defer cleanup()

	_, err := c.Stat("/missing")
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.EqualValues(t, fxNoSuchFile, se.Code)
}

func TestClientMkdirRmdirRemove(t *testing.T) {
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		switch pktType {
		case fxpMkdir:
			var p mkdirPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		case fxpRmdir:
			var p rmdirPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		case fxpRemove:
			var p removePkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		}
	})
	defer cleanup()

	require.NoError(t, c.Mkdir("/d", nil))
	require.NoError(t, c.Rmdir("/d"))
	require.NoError(t, c.Remove("/f"))
}

func TestClientRenameAndSymlink(t *testing.T) {
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		switch pktType {
		case fxpRename:
			var p renamePkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		case fxpSymlink:
			var p symlinkPkt
			require.NoError(t, p.UnmarshalBinary(data))
			require.Equal(t, "target", p.TargetPath)
			require.Equal(t, "link", p.LinkPath)
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		}
	})
	defer cleanup()

	require.NoError(t, c.Rename("/a", "/b"))
	require.NoError(t, c.Symlink("target", "link", false))
}

func TestClientRealPathAndReadLink(t *testing.T) {
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		switch pktType {
		case fxpRealpath:
			var p realpathPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&namePkt{ID: p.ID, Items: []nameItem{{Filename: "/abs/path", Attrs: &FileAttributes{}}}})
		case fxpReadlink:
			var p readlinkPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&namePkt{ID: p.ID, Items: []nameItem{{Filename: "/target", Attrs: &FileAttributes{}}}})
		}
	})
	defer cleanup()

	rp, err := c.RealPath("a/path")
	require.NoError(t, err)
	require.Equal(t, "/abs/path", rp)

	target, err := c.ReadLink("/link")
	require.NoError(t, err)
	require.Equal(t, "/target", target)
}

func TestClientRealPathRejectsMultiEntryName(t *testing.T) {
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		if pktType == fxpRealpath {
			var p realpathPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&namePkt{ID: p.ID, Items: []nameItem{
				{Filename: "/a", Attrs: &FileAttributes{}},
				{Filename: "/b", Attrs: &FileAttributes{}},
			}})
		}
	})
	defer cleanup()

	_, err := c.RealPath("a")
	require.Error(t, err)
	var ire *InvalidResponseError
	require.ErrorAs(t, err, &ire)
}

func TestClientReadWriteFile(t *testing.T) {
	var stored []byte
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		switch pktType {
		case fxpOpen:
			var p openPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&handlePkt{ID: p.ID, Handle: "h"})
		case fxpWrite:
			var p writePkt
			require.NoError(t, p.UnmarshalBinary(data))
			stored = append(stored, p.Data...)
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		case fxpRead:
			var p readPkt
			require.NoError(t, p.UnmarshalBinary(data))
			if p.Offset >= uint64(len(stored)) {
				fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxEOF, Msg: "EOF"}})
				return
			}
			end := p.Offset + uint64(p.Len)
			if end > uint64(len(stored)) {
				end = uint64(len(stored))
			}
			fw.write(&dataPkt{ID: p.ID, Data: stored[p.Offset:end]})
		case fxpClose:
			var p closePkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		}
	})
	defer cleanup()

	f, err := c.OpenFile("/f", OpenWrite|OpenCreate, nil)
	require.NoError(t, err)
	n, err := f.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.NoError(t, f.Close())

	f2, err := c.OpenFile("/f", OpenRead, nil)
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err = f2.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
	require.NoError(t, f2.Close())
}

func TestClientWithFileClosesOnError(t *testing.T) {
	closed := make(chan struct{}, 1)
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		switch pktType {
		case fxpOpen:
			var p openPkt
			require.NoError(t, p.UnmarshalBinary(data))
			fw.write(&handlePkt{ID: p.ID, Handle: "h"})
		case fxpClose:
			var p closePkt
			require.NoError(t, p.UnmarshalBinary(data))
			closed <- struct{}{}
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		}
	})
	defer cleanup()

	err := c.WithFile("/f", OpenRead, nil, func(f *File) error {
		return errShortPacket
	})
	require.ErrorIs(t, err, errShortPacket)

	select {
	case <-closed:
	default:
		t.Fatal("WithFile did not close the file after fn returned an error")
	}
}

func TestClientPosixRenameAndStatVFS(t *testing.T) {
	c, cleanup := newReadyTestClient(t, func(pktType byte, data []byte, fw *frameWriter) {
		if pktType != fxpExtended {
			return
		}
		var p extendedPkt
		require.NoError(t, p.UnmarshalBinary(data))
		switch p.RequestName {
		case extPosixRename:
			fw.write(&statusPkt{ID: p.ID, StatusError: StatusError{Code: fxOK}})
		case extStatVFS:
			var b []byte
			for i := 0; i < 11; i++ {
				b = appendU64(b, uint64(i+1))
			}
			fw.write(&extendedReplyPkt{ID: p.ID, Data: b})
		}
	})
	defer cleanup()

	require.NoError(t, c.PosixRename("/a", "/b"))

	vfs, err := c.StatVFS("/")
	require.NoError(t, err)
	require.EqualValues(t, 1, vfs.BlockSize)
	require.EqualValues(t, 11, vfs.MaxNameLen)
}
