package sftp

import (
	"bytes"
	"testing"
	"time"
)

var appendU32Tests = []struct {
	v    uint32
	want []byte
}{
	{1, []byte{0, 0, 0, 1}},
	{256, []byte{0, 0, 1, 0}},
	{^uint32(0), []byte{255, 255, 255, 255}},
}

func TestAppendU32(t *testing.T) {
	for _, tt := range appendU32Tests {
		got := appendU32(nil, tt.v)
		if !bytes.Equal(tt.want, got) {
			t.Errorf("appendU32(%d): want %v, got %v", tt.v, tt.want, got)
		}
	}
}

var appendU64Tests = []struct {
	v    uint64
	want []byte
}{
	{1, []byte{0, 0, 0, 0, 0, 0, 0, 1}},
	{1 << 32, []byte{0, 0, 0, 1, 0, 0, 0, 0}},
	{^uint64(0), []byte{255, 255, 255, 255, 255, 255, 255, 255}},
}

func TestAppendU64(t *testing.T) {
	for _, tt := range appendU64Tests {
		got := appendU64(nil, tt.v)
		if !bytes.Equal(tt.want, got) {
			t.Errorf("appendU64(%d): want %#v, got %#v", tt.v, tt.want, got)
		}
	}
}

func TestAppendStr(t *testing.T) {
	got := appendStr(nil, "/foo")
	want := []byte{0, 0, 0, 4, '/', 'f', 'o', 'o'}
	if !bytes.Equal(want, got) {
		t.Errorf("appendStr: want %#v, got %#v", want, got)
	}
}

func TestTakeRoundTrip(t *testing.T) {
	b := appendU32(nil, 42)
	b = appendU64(b, 1<<40)
	b = appendStr(b, "hello")

	v32, rest, err := takeU32(b)
	if err != nil || v32 != 42 {
		t.Fatalf("takeU32: got (%d, %v)", v32, err)
	}
	v64, rest, err := takeU64(rest)
	if err != nil || v64 != 1<<40 {
		t.Fatalf("takeU64: got (%d, %v)", v64, err)
	}
	s, rest, err := takeStr(rest)
	if err != nil || s != "hello" {
		t.Fatalf("takeStr: got (%q, %v)", s, err)
	}
	if len(rest) != 0 {
		t.Fatalf("takeStr: %d bytes left over", len(rest))
	}
}

func TestTakeShortPacket(t *testing.T) {
	if _, _, err := takeU32([]byte{1, 2}); err != errShortPacket {
		t.Errorf("takeU32 on short buffer: got %v, want errShortPacket", err)
	}
	if _, _, err := takeStr([]byte{0, 0, 0, 5, 'h', 'i'}); err != errShortPacket {
		t.Errorf("takeStr with truncated body: got %v, want errShortPacket", err)
	}
}

func TestAttrRoundTrip(t *testing.T) {
	a := &FileAttributes{
		Flags:       AttrSize | AttrUIDGID | AttrPermissions | AttrAcModTime,
		Size:        1024,
		UID:         1000,
		GID:         1000,
		Permissions: ModeRegular | 0644,
		ATime:       time.Unix(1700000000, 0),
		MTime:       time.Unix(1700000100, 0),
	}
	b := appendAttr(nil, a)
	got, rest, err := takeAttr(b)
	if err != nil {
		t.Fatalf("takeAttr: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("%d bytes left over after takeAttr", len(rest))
	}
	if got.Size != a.Size || got.UID != a.UID || got.GID != a.GID || got.Permissions != a.Permissions {
		t.Errorf("takeAttr round trip mismatch: got %+v, want %+v", got, a)
	}
	if !got.ATime.Equal(a.ATime) || !got.MTime.Equal(a.MTime) {
		t.Errorf("takeAttr time mismatch: got atime=%v mtime=%v", got.ATime, got.MTime)
	}
}

func TestAttrRoundTripExtended(t *testing.T) {
	a := &FileAttributes{
		Flags: AttrSize | AttrExtended,
		Size:  100,
		Extended: []Extension{
			{Type: "x", Data: "y"},
			{Type: "statvfs@openssh.com", Data: "abc"},
		},
	}
	b := appendAttr(nil, a)
	got, rest, err := takeAttr(b)
	if err != nil {
		t.Fatalf("takeAttr: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("%d bytes left over after takeAttr", len(rest))
	}
	if got.Size != a.Size {
		t.Errorf("takeAttr round trip mismatch: got size %d, want %d", got.Size, a.Size)
	}
	if len(got.Extended) != len(a.Extended) {
		t.Fatalf("takeAttr extended count: got %d, want %d", len(got.Extended), len(a.Extended))
	}
	for i, ext := range a.Extended {
		if got.Extended[i] != ext {
			t.Errorf("takeAttr extended[%d]: got %+v, want %+v", i, got.Extended[i], ext)
		}
	}
}

func TestAttrNilEncodesEmptyFlags(t *testing.T) {
	b := appendAttr(nil, nil)
	if !bytes.Equal(b, []byte{0, 0, 0, 0}) {
		t.Errorf("appendAttr(nil): got %#v, want zero flags word", b)
	}
}

func TestAllocPktHeader(t *testing.T) {
	b := allocPkt(fxpOpen, 0)
	if len(b) != 5 {
		t.Fatalf("allocPkt: got %d header bytes, want 5", len(b))
	}
	n, _, err := takeU32(b)
	if err != nil || n != 1 {
		t.Errorf("allocPkt length field: got (%d, %v), want 1", n, err)
	}
	if b[4] != fxpOpen {
		t.Errorf("allocPkt type byte: got %d, want %d", b[4], fxpOpen)
	}
}
