package sftp

import "time"

// FileMode is the 32-bit POSIX mode carried on the wire: a 4-bit file type
// (ModeTypeMask) plus 12 bits of permission/setuid/setgid/sticky bits
// (ModePermMask). Unknown type values are preserved verbatim by callers
// that round-trip a FileMode they did not construct themselves.
type FileMode uint32

// File type bits, masked out of a FileMode by ModeTypeMask.
const (
	ModeTypeMask FileMode = 0xF000

	ModeSocket  FileMode = 0xC000
	ModeSymlink FileMode = 0xA000
	ModeRegular FileMode = 0x8000
	ModeBlock   FileMode = 0x6000
	ModeDir     FileMode = 0x4000
	ModeChar    FileMode = 0x2000
	ModeFifo    FileMode = 0x1000
)

// Permission and special bits, masked out of a FileMode by ModePermMask.
const (
	ModePermMask FileMode = 0x0FFF

	ModeSetuid FileMode = 0x800
	ModeSetgid FileMode = 0x400
	ModeSticky FileMode = 0x200
)

// Type returns the file type bits of m (one of the Mode* type constants,
// or an unrecognized value preserved from the wire).
func (m FileMode) Type() FileMode { return m & ModeTypeMask }

// Perm returns the permission bits of m, including setuid/setgid/sticky.
func (m FileMode) Perm() FileMode { return m & ModePermMask }

// IsDir reports whether m describes a directory.
func (m FileMode) IsDir() bool { return m.Type() == ModeDir }

// IsRegular reports whether m describes a regular file.
func (m FileMode) IsRegular() bool { return m.Type() == ModeRegular }

// IsSymlink reports whether m describes a symbolic link.
func (m FileMode) IsSymlink() bool { return m.Type() == ModeSymlink }

// AttrFlags indicates which fields of a FileAttributes are present. Present
// fields always appear on the wire in the fixed order: size, uid/gid,
// permissions, atime/mtime, extended.
type AttrFlags uint32

const (
	AttrSize        AttrFlags = 0x00000001
	AttrUIDGID      AttrFlags = 0x00000002
	AttrPermissions AttrFlags = 0x00000004
	AttrAcModTime   AttrFlags = 0x00000008
	AttrExtended    AttrFlags = 0x80000000
)

// Extension is an opaque (type, data) extension pair carried inside a
// FileAttributes when AttrExtended is set.
type Extension struct {
	Type string
	Data string
}

// FileAttributes is the Go-idiomatic representation of the SFTP file
// attributes bitmap described in draft-ietf-secsh-filexfer-02 section 5.
// Only fields whose corresponding AttrFlags bit is set in Flags carry
// meaningful values.
type FileAttributes struct {
	Flags       AttrFlags
	Size        uint64
	UID, GID    uint32
	Permissions FileMode
	ATime       time.Time
	MTime       time.Time
	Extended    []Extension
}

// encodedSize returns the number of bytes appendAttr(b, a) would append, used to
// presize packet buffers so marshaling allocates exactly once.
func (a *FileAttributes) encodedSize() int {
	if a == nil {
		return 4
	}
	n := 4 // flags
	if a.Flags&AttrSize != 0 {
		n += 8
	}
	if a.Flags&AttrUIDGID != 0 {
		n += 8
	}
	if a.Flags&AttrPermissions != 0 {
		n += 4
	}
	if a.Flags&AttrAcModTime != 0 {
		n += 8
	}
	if a.Flags&AttrExtended != 0 {
		n += 4
		for _, ext := range a.Extended {
			n += 4 + len(ext.Type) + 4 + len(ext.Data)
		}
	}
	return n
}
