package sftp

// statusErrorOrNil converts a received statusPkt into an error: nil for
// SSH_FX_OK, otherwise its *StatusError. Every operation whose only
// successful reply is SSH_FXP_STATUS(OK) routes its response through this.
func statusErrorOrNil(p *statusPkt) error {
	if p.Code == fxOK {
		return nil
	}
	return &p.StatusError
}

// expectHandle validates that resp is a handlePkt, the only acceptable
// success reply for SSH_FXP_OPEN/SSH_FXP_OPENDIR, per section 4.E.
func expectHandle(op string, resp incomingPacket) (string, error) {
	switch p := resp.(type) {
	case *handlePkt:
		return p.Handle, nil
	case *statusPkt:
		return "", statusErrorOrNil(p)
	default:
		return "", &InvalidResponseError{Op: op, WantKind: "SSH_FXP_HANDLE", GotKind: responseKind(resp)}
	}
}

// expectStatus validates that resp is a statusPkt, as required for
// SSH_FXP_CLOSE/REMOVE/RENAME/MKDIR/RMDIR/SETSTAT/FSETSTAT/SYMLINK.
func expectStatus(op string, resp incomingPacket) error {
	p, ok := resp.(*statusPkt)
	if !ok {
		return &InvalidResponseError{Op: op, WantKind: "SSH_FXP_STATUS", GotKind: responseKind(resp)}
	}
	return statusErrorOrNil(p)
}

// expectAttrs validates that resp is an attrPkt, the reply to
// SSH_FXP_LSTAT/STAT/FSTAT.
func expectAttrs(op string, resp incomingPacket) (*FileAttributes, error) {
	switch p := resp.(type) {
	case *attrPkt:
		return p.Attrs, nil
	case *statusPkt:
		return nil, statusErrorOrNil(p)
	default:
		return nil, &InvalidResponseError{Op: op, WantKind: "SSH_FXP_ATTRS", GotKind: responseKind(resp)}
	}
}

// expectName validates that resp is a namePkt, the reply to
// SSH_FXP_REALPATH/READLINK/READDIR.
func expectName(op string, resp incomingPacket) (*namePkt, error) {
	switch p := resp.(type) {
	case *namePkt:
		return p, nil
	case *statusPkt:
		return nil, statusErrorOrNil(p)
	default:
		return nil, &InvalidResponseError{Op: op, WantKind: "SSH_FXP_NAME", GotKind: responseKind(resp)}
	}
}

// expectData validates that resp is a dataPkt, the reply to SSH_FXP_READ.
func expectData(op string, resp incomingPacket) ([]byte, error) {
	switch p := resp.(type) {
	case *dataPkt:
		return p.Data, nil
	case *statusPkt:
		return nil, statusErrorOrNil(p)
	default:
		return nil, &InvalidResponseError{Op: op, WantKind: "SSH_FXP_DATA", GotKind: responseKind(resp)}
	}
}

func responseKind(p incomingPacket) string {
	switch p.(type) {
	case *statusPkt:
		return "SSH_FXP_STATUS"
	case *handlePkt:
		return "SSH_FXP_HANDLE"
	case *dataPkt:
		return "SSH_FXP_DATA"
	case *namePkt:
		return "SSH_FXP_NAME"
	case *attrPkt:
		return "SSH_FXP_ATTRS"
	case *extendedReplyPkt:
		return "SSH_FXP_EXTENDED_REPLY"
	default:
		return "unknown"
	}
}

// singleName extracts the sole entry of a NAME reply that is documented
// to carry exactly one (SSH_FXP_REALPATH and SSH_FXP_READLINK); a reply
// with any other count is a protocol violation.
func singleName(op string, n *namePkt) (nameItem, error) {
	if len(n.Items) != 1 {
		return nameItem{}, &InvalidResponseError{Op: op, WantKind: "SSH_FXP_NAME with exactly one entry", GotKind: "SSH_FXP_NAME"}
	}
	return n.Items[0], nil
}

// RealPath resolves path to its canonical, absolute form on the server.
func (c *Client) RealPath(path string) (string, error) {
	resp, err := c.roundTrip(&realpathPkt{Path: path})
	if err != nil {
		return "", err
	}
	n, err := expectName("RealPath", resp)
	if err != nil {
		return "", err
	}
	item, err := singleName("RealPath", n)
	if err != nil {
		return "", err
	}
	return item.Filename, nil
}

// ReadLink returns the target of the symbolic link at path.
func (c *Client) ReadLink(path string) (string, error) {
	resp, err := c.roundTrip(&readlinkPkt{Path: path})
	if err != nil {
		return "", err
	}
	n, err := expectName("ReadLink", resp)
	if err != nil {
		return "", err
	}
	item, err := singleName("ReadLink", n)
	if err != nil {
		return "", err
	}
	return item.Filename, nil
}

// Stat returns attributes for path, following symbolic links.
func (c *Client) Stat(path string) (*FileAttributes, error) {
	resp, err := c.roundTrip(&statPkt{Path: path})
	if err != nil {
		return nil, err
	}
	return expectAttrs("Stat", resp)
}

// Lstat returns attributes for path, without following a symbolic link at
// path itself.
func (c *Client) Lstat(path string) (*FileAttributes, error) {
	resp, err := c.roundTrip(&lstatPkt{Path: path})
	if err != nil {
		return nil, err
	}
	return expectAttrs("Lstat", resp)
}

// SetStat applies attrs to path.
func (c *Client) SetStat(path string, attrs *FileAttributes) error {
	resp, err := c.roundTrip(&setstatPkt{Path: path, Attrs: attrs})
	if err != nil {
		return err
	}
	return expectStatus("SetStat", resp)
}

// Mkdir creates a directory at path with the given attributes (may be
// nil, in which case the server chooses defaults).
func (c *Client) Mkdir(path string, attrs *FileAttributes) error {
	resp, err := c.roundTrip(&mkdirPkt{Path: path, Attrs: attrs})
	if err != nil {
		return err
	}
	return expectStatus("Mkdir", resp)
}

// Rmdir removes the empty directory at path.
func (c *Client) Rmdir(path string) error {
	resp, err := c.roundTrip(&rmdirPkt{Path: path})
	if err != nil {
		return err
	}
	return expectStatus("Rmdir", resp)
}

// Remove deletes the file (not directory) at path.
func (c *Client) Remove(path string) error {
	resp, err := c.roundTrip(&removePkt{Path: path})
	if err != nil {
		return err
	}
	return expectStatus("Remove", resp)
}

// Rename moves oldPath to newPath. Per draft-ietf-secsh-filexfer-02
// section 6.5, the server must fail this (SSH_FX_FAILURE) if newPath
// already exists; use PosixRename on servers advertising
// posix-rename@openssh.com for atomic-overwrite semantics instead.
func (c *Client) Rename(oldPath, newPath string) error {
	resp, err := c.roundTrip(&renamePkt{OldPath: oldPath, NewPath: newPath})
	if err != nil {
		return err
	}
	return expectStatus("Rename", resp)
}

// Symlink creates a symbolic link at linkPath pointing to targetPath.
// followSpec selects the wire field order: pass false for a server that
// follows the (buggy, but de facto standard) OpenSSH ordering, which is
// the overwhelming majority of real servers; see symlinkPkt.
func (c *Client) Symlink(targetPath, linkPath string, followSpec bool) error {
	resp, err := c.roundTrip(&symlinkPkt{LinkPath: linkPath, TargetPath: targetPath, FollowSpec: followSpec})
	if err != nil {
		return err
	}
	return expectStatus("Symlink", resp)
}

// OpenFile opens path with the given flags and attributes (attrs may be
// nil) and returns a File positioned at offset 0.
func (c *Client) OpenFile(path string, flags OpenFlags, attrs *FileAttributes) (*File, error) {
	resp, err := c.roundTrip(&openPkt{Path: path, PFlags: flags, Attrs: attrs})
	if err != nil {
		return nil, err
	}
	handle, err := expectHandle("OpenFile", resp)
	if err != nil {
		return nil, err
	}
	return &File{c: c, handle: handle, flags: flags}, nil
}

// OpenDir opens path as a directory for a ReadDir loop.
func (c *Client) OpenDir(path string) (*Dir, error) {
	resp, err := c.roundTrip(&opendirPkt{Path: path})
	if err != nil {
		return nil, err
	}
	handle, err := expectHandle("OpenDir", resp)
	if err != nil {
		return nil, err
	}
	return &Dir{c: c, handle: handle}, nil
}

// WithFile opens path, invokes fn with the resulting File, and closes the
// File afterward regardless of whether fn returns an error. If both fn and
// the deferred Close fail, WithFile returns fn's error with the close
// error attached via Unwrap-able wrapping; inspect CloseError(err) to
// recover the secondary failure.
func (c *Client) WithFile(path string, flags OpenFlags, attrs *FileAttributes, fn func(*File) error) (err error) {
	f, err := c.OpenFile(path, flags, attrs)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = joinClose(err, cerr)
		}
	}()
	return fn(f)
}

// WithDir opens path as a directory, invokes fn with the resulting Dir,
// and closes the Dir afterward. See WithFile for the dual-error policy.
func (c *Client) WithDir(path string, fn func(*Dir) error) (err error) {
	d, err := c.OpenDir(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			err = joinClose(err, cerr)
		}
	}()
	return fn(d)
}

// closeError pairs a primary operation error with a secondary error
// returned from the deferred Close that followed it.
type closeError struct {
	primary error
	close   error
}

func (e *closeError) Error() string {
	return e.primary.Error() + " (additionally, close failed: " + e.close.Error() + ")"
}

func (e *closeError) Unwrap() error { return e.primary }

// CloseError extracts the secondary close error from an error returned by
// WithFile or WithDir, if one is present.
func CloseError(err error) (closeErr error, ok bool) {
	ce, ok := err.(*closeError)
	if !ok {
		return nil, false
	}
	return ce.close, true
}

func joinClose(primary, closeErr error) error {
	if primary == nil {
		return closeErr
	}
	return &closeError{primary: primary, close: closeErr}
}
