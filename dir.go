package sftp

import "sync"

// DirEntry is one entry returned by Dir.ReadDir: a filename, the server's
// preformatted ls -l style long name, and parsed attributes.
type DirEntry struct {
	Name     string
	LongName string
	Attrs    *FileAttributes
}

// Dir is a handle to an open remote directory, returned by
// Client.OpenDir.
type Dir struct {
	c      *Client
	handle string

	mu     sync.Mutex
	closed bool
	eof    bool
}

// ReadDir returns the next batch of directory entries. A server is free
// to return any number of entries per SSH_FXP_READDIR request (including
// just one), so callers should call ReadDir in a loop until it returns
// ErrEOF, rather than assuming one call drains the directory.
func (d *Dir) ReadDir() ([]DirEntry, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, &FileClosedError{Handle: d.handle}
	}
	if d.eof {
		d.mu.Unlock()
		return nil, ErrEOF
	}
	d.mu.Unlock()

	resp, err := d.c.roundTrip(&readdirPkt{Handle: d.handle})
	if err != nil {
		return nil, err
	}
	n, err := expectName("Dir.ReadDir", resp)
	if err != nil {
		if se, ok := err.(*StatusError); ok && se.Code == fxEOF {
			d.mu.Lock()
			d.eof = true
			d.mu.Unlock()
			return nil, ErrEOF
		}
		return nil, err
	}

	entries := make([]DirEntry, len(n.Items))
	for i, it := range n.Items {
		entries[i] = DirEntry{Name: it.Filename, LongName: it.Longname, Attrs: it.Attrs}
	}
	return entries, nil
}

// ReadAll drains the directory by calling ReadDir until ErrEOF.
func (d *Dir) ReadAll() ([]DirEntry, error) {
	var all []DirEntry
	for {
		batch, err := d.ReadDir()
		if err != nil {
			if err == ErrEOF {
				return all, nil
			}
			return all, err
		}
		all = append(all, batch...)
	}
}

// Close releases the server-side handle. Close is idempotent.
func (d *Dir) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	resp, err := d.c.roundTrip(&closePkt{Handle: d.handle})
	if err != nil {
		return err
	}
	return expectStatus("Dir.Close", resp)
}
