package sftp

import (
	"io"
	"sync"
)

// File is a handle to an open remote file, returned by Client.OpenFile.
// It is safe for concurrent use: Read issues one request/response round
// trip and Write one per max-packet-size chunk, and they do not share
// mutable state beyond the offset, which is itself guarded.
type File struct {
	c      *Client
	handle string
	flags  OpenFlags

	mu     sync.Mutex
	offset uint64
	closed bool
}

// Read reads up to len(p) bytes starting at the file's current offset,
// advancing the offset by the number of bytes returned. It returns
// io.EOF once the server reports end-of-file.
func (f *File) Read(p []byte) (int, error) {
	return f.ReadAt(p, f.currentOffset())
}

func (f *File) currentOffset() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset
}

// ReadAt reads up to len(p) bytes starting at off. When off equals the
// file's sequential offset used by Read/Write, that offset is advanced by
// the number of bytes read; otherwise it is left unchanged.
func (f *File) ReadAt(p []byte, off uint64) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if !f.flags.has(OpenRead) {
		return 0, &OpenModeError{Op: "File.Read", Handle: f.handle}
	}
	n := uint32(len(p))
	if n > f.c.cfg.maxPacketSize {
		n = f.c.cfg.maxPacketSize
	}
	resp, err := f.c.roundTrip(&readPkt{Handle: f.handle, Offset: off, Len: n})
	if err != nil {
		return 0, err
	}
	data, err := expectData("File.Read", resp)
	if err != nil {
		if se, ok := err.(*StatusError); ok && se.Code == fxEOF {
			return 0, io.EOF
		}
		return 0, err
	}
	copy(p, data)

	f.mu.Lock()
	if off == f.offset {
		f.offset += uint64(len(data))
	}
	f.mu.Unlock()

	return len(data), nil
}

// Write writes p at the file's current offset, advancing the offset by
// len(p). Writes larger than the configured max packet size are split
// into multiple sequential WRITE requests.
func (f *File) Write(p []byte) (int, error) {
	off := f.currentOffset()
	n, err := f.WriteAt(p, off)
	if n > 0 {
		f.mu.Lock()
		if off == f.offset {
			f.offset += uint64(n)
		}
		f.mu.Unlock()
	}
	return n, err
}

// WriteAt writes p at off, without touching the file's sequential offset.
func (f *File) WriteAt(p []byte, off uint64) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if !f.flags.has(OpenWrite) {
		return 0, &OpenModeError{Op: "File.Write", Handle: f.handle}
	}
	written := 0
	max := int(f.c.cfg.maxPacketSize)
	for written < len(p) {
		end := written + max
		if end > len(p) {
			end = len(p)
		}
		chunk := p[written:end]
		resp, err := f.c.roundTrip(&writePkt{Handle: f.handle, Offset: off + uint64(written), Data: chunk})
		if err != nil {
			return written, err
		}
		if err := expectStatus("File.Write", resp); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

// Fstat returns the remote file's current attributes.
func (f *File) Fstat() (*FileAttributes, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	resp, err := f.c.roundTrip(&fstatPkt{Handle: f.handle})
	if err != nil {
		return nil, err
	}
	return expectAttrs("Fstat", resp)
}

// Fsetstat applies attrs to the open file.
func (f *File) Fsetstat(attrs *FileAttributes) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	resp, err := f.c.roundTrip(&fsetstatPkt{Handle: f.handle, Attrs: attrs})
	if err != nil {
		return err
	}
	return expectStatus("Fsetstat", resp)
}

// Close releases the server-side handle. Close is idempotent: calling it
// more than once returns nil without issuing a second CLOSE request.
func (f *File) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	resp, err := f.c.roundTrip(&closePkt{Handle: f.handle})
	if err != nil {
		return err
	}
	return expectStatus("File.Close", resp)
}

func (f *File) checkOpen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return &FileClosedError{Handle: f.handle}
	}
	return nil
}
