package sftp

import (
	"encoding"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
)

// errShortPacket is returned by the take* helpers when the remaining buffer
// is too small to contain the field being decoded.
var errShortPacket = errors.New("sftp: packet too short")

// allocPkt allocates a buffer large enough to hold the 4-byte length
// prefix, the 1-byte packet type, and dataLen bytes of payload, and fills
// in the length (dataLen+1, excluding itself per the wire format) and type.
// The goal is a single allocation per marshaled packet.
func allocPkt(pktType byte, dataLen int) []byte {
	b := make([]byte, 0, 5+dataLen)
	b = appendU32(b, uint32(dataLen+1))
	return append(b, pktType)
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendU64(b []byte, v uint64) []byte {
	return appendU32(appendU32(b, uint32(v>>32)), uint32(v))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

func appendStr(b []byte, v string) []byte {
	return append(appendU32(b, uint32(len(v))), v...)
}

// appendAttr appends the FileAttributes wire encoding described in
// attrs.go/FileAttributes. A nil attr encodes as a zero flags word (no
// fields present).
func appendAttr(b []byte, a *FileAttributes) []byte {
	if a == nil {
		return appendU32(b, 0)
	}
	b = appendU32(b, uint32(a.Flags))
	if a.Flags&AttrSize != 0 {
		b = appendU64(b, a.Size)
	}
	if a.Flags&AttrUIDGID != 0 {
		b = appendU32(b, a.UID)
		b = appendU32(b, a.GID)
	}
	if a.Flags&AttrPermissions != 0 {
		b = appendU32(b, uint32(a.Permissions))
	}
	if a.Flags&AttrAcModTime != 0 {
		b = appendU32(b, uint32(a.ATime.Unix()))
		b = appendU32(b, uint32(a.MTime.Unix()))
	}
	if a.Flags&AttrExtended != 0 {
		b = appendU32(b, uint32(len(a.Extended)))
		for _, ext := range a.Extended {
			b = appendStr(b, ext.Type)
			b = appendStr(b, ext.Data)
		}
	}
	return b
}

func takeU32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, errShortPacket
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

func takeU64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, errShortPacket
	}
	return binary.BigEndian.Uint64(b), b[8:], nil
}

func takeBool(b []byte) (bool, []byte, error) {
	if len(b) < 1 {
		return false, nil, errShortPacket
	}
	return b[0] != 0, b[1:], nil
}

func takeStr(b []byte) (string, []byte, error) {
	n, rest, err := takeU32(b)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < uint64(n) {
		return "", nil, errShortPacket
	}
	return string(rest[:n]), rest[n:], nil
}

// takeAttr decodes a FileAttributes per the presence-flags bitmap.
func takeAttr(b []byte) (*FileAttributes, []byte, error) {
	var (
		a   FileAttributes
		raw uint32
		err error
	)
	if raw, b, err = takeU32(b); err != nil {
		return nil, nil, err
	}
	a.Flags = AttrFlags(raw)

	if a.Flags&AttrSize != 0 {
		if a.Size, b, err = takeU64(b); err != nil {
			return nil, nil, err
		}
	}
	if a.Flags&AttrUIDGID != 0 {
		if a.UID, b, err = takeU32(b); err != nil {
			return nil, nil, err
		}
		if a.GID, b, err = takeU32(b); err != nil {
			return nil, nil, err
		}
	}
	if a.Flags&AttrPermissions != 0 {
		var perm uint32
		if perm, b, err = takeU32(b); err != nil {
			return nil, nil, err
		}
		a.Permissions = FileMode(perm)
	}
	if a.Flags&AttrAcModTime != 0 {
		var atime, mtime uint32
		if atime, b, err = takeU32(b); err != nil {
			return nil, nil, err
		}
		if mtime, b, err = takeU32(b); err != nil {
			return nil, nil, err
		}
		a.ATime = time.Unix(int64(atime), 0)
		a.MTime = time.Unix(int64(mtime), 0)
	}
	if a.Flags&AttrExtended != 0 {
		var count uint32
		if count, b, err = takeU32(b); err != nil {
			return nil, nil, err
		}
		a.Extended = make([]Extension, count)
		for i := range a.Extended {
			if a.Extended[i].Type, b, err = takeStr(b); err != nil {
				return nil, nil, err
			}
			if a.Extended[i].Data, b, err = takeStr(b); err != nil {
				return nil, nil, err
			}
		}
	}
	return &a, b, nil
}

// marshalIDStr is a convenience for the many request packets shaped as
// "uint32 id, string".
func marshalIDStr(pktType byte, id uint32, str string) []byte {
	b := allocPkt(pktType, 4+4+len(str))
	b = appendU32(b, id)
	return appendStr(b, str)
}

func unmarshalIDStr(b []byte, id *uint32, str *string) (err error) {
	if *id, b, err = takeU32(b); err != nil {
		return err
	}
	*str, _, err = takeStr(b)
	return err
}

// sendPacket marshals and writes a single packet, already length-prefixed
// by its own MarshalBinary implementation.
func sendPacket(w io.Writer, m encoding.BinaryMarshaler) error {
	b, err := m.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "sftp: error marshaling packet")
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "sftp: error writing packet")
	}
	return nil
}
