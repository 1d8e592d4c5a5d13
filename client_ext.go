package sftp

// Named OpenSSH extensions, carried over SSH_FXP_EXTENDED /
// SSH_FXP_EXTENDED_REPLY. These are not part of draft-ietf-secsh-filexfer-02
// itself but are advertised by essentially every real-world SFTP server and
// are grounded on the wire formats OpenSSH documents in its PROTOCOL file.
// Callers should check ServerExtensions before relying on either.

const (
	extPosixRename = "posix-rename@openssh.com"
	extStatVFS     = "statvfs@openssh.com"
)

// StatVFSReply reports filesystem-level statistics, the reply to the
// statvfs@openssh.com extension.
type StatVFSReply struct {
	BlockSize       uint64
	FragmentSize    uint64
	Blocks          uint64
	BlocksFree      uint64
	BlocksAvail     uint64
	Files           uint64
	FilesFree       uint64
	FilesAvail      uint64
	FilesystemID    uint64
	MountFlags      uint64
	MaxNameLen      uint64
}

// TotalSpace returns the filesystem's total capacity in bytes.
func (r *StatVFSReply) TotalSpace() uint64 { return r.BlockSize * r.Blocks }

// FreeSpace returns the filesystem's free capacity in bytes, available to
// an unprivileged caller.
func (r *StatVFSReply) FreeSpace() uint64 { return r.BlockSize * r.BlocksAvail }

func (r *StatVFSReply) unmarshal(b []byte) (err error) {
	fields := []*uint64{
		&r.BlockSize, &r.FragmentSize, &r.Blocks, &r.BlocksFree, &r.BlocksAvail,
		&r.Files, &r.FilesFree, &r.FilesAvail, &r.FilesystemID, &r.MountFlags, &r.MaxNameLen,
	}
	for _, f := range fields {
		if *f, b, err = takeU64(b); err != nil {
			return err
		}
	}
	return nil
}

// StatVFS reports filesystem statistics for the filesystem containing
// path, using the statvfs@openssh.com extension. A non-OK SSH_FXP_STATUS
// reply is returned as its *StatusError; a reply of any type other than
// SSH_FXP_EXTENDED_REPLY or SSH_FXP_STATUS yields InvalidResponseError.
func (c *Client) StatVFS(path string) (*StatVFSReply, error) {
	b := appendStr(nil, path)
	resp, err := c.roundTrip(&extendedPkt{RequestName: extStatVFS, Data: b})
	if err != nil {
		return nil, err
	}
	switch p := resp.(type) {
	case *extendedReplyPkt:
		var out StatVFSReply
		if err := out.unmarshal(p.Data); err != nil {
			return nil, err
		}
		return &out, nil
	case *statusPkt:
		return nil, statusErrorOrNil(p)
	default:
		return nil, &InvalidResponseError{Op: "StatVFS", WantKind: "SSH_FXP_EXTENDED_REPLY", GotKind: responseKind(resp)}
	}
}

// PosixRename moves oldPath to newPath, atomically replacing newPath if
// it already exists, using the posix-rename@openssh.com extension. Call
// this instead of Rename on a server that advertises it.
func (c *Client) PosixRename(oldPath, newPath string) error {
	var b []byte
	b = appendStr(b, oldPath)
	b = appendStr(b, newPath)
	resp, err := c.roundTrip(&extendedPkt{RequestName: extPosixRename, Data: b})
	if err != nil {
		return err
	}
	return expectStatus("PosixRename", resp)
}
