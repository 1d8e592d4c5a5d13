package sftp

import (
	"bufio"
	"encoding"
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// defaultMaxFrameSize bounds the advertised length of a single inbound
// frame (the payload after the 4-byte length prefix, which is not counted)
// unless overridden with WithMaxFrameSize. A
// well-behaved server never sends anything close to this; it exists to
// keep a misbehaving or confused peer from making the client allocate an
// unbounded buffer.
const defaultMaxFrameSize = 16 * 1024 * 1024

// frameReader pulls whole, length-delimited SFTP packets off an
// io.Reader. SFTP packets are framed as a 4-byte big-endian length
// (excluding the length field itself) followed by that many bytes of
// payload, the first byte of which is the packet type.
type frameReader struct {
	r       *bufio.Reader
	maxSize uint32
}

func newFrameReader(r io.Reader, maxSize uint32) *frameReader {
	if maxSize == 0 {
		maxSize = defaultMaxFrameSize
	}
	return &frameReader{r: bufio.NewReaderSize(r, 32*1024), maxSize: maxSize}
}

// next reads one frame and returns its packet-type byte and payload (the
// payload does not include the type byte or the length prefix).
func (f *frameReader) next() (byte, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(f.r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return 0, nil, &ProtocolError{Msg: "zero-length frame"}
	}
	if n > f.maxSize {
		return 0, nil, &ProtocolError{Msg: "frame exceeds maximum size"}
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(f.r, body); err != nil {
		return 0, nil, errors.Wrap(err, "sftp: reading frame body")
	}
	return body[0], body[1:], nil
}

// frameWriter serializes outbound packet writes so that two goroutines
// calling Client methods concurrently never interleave their bytes on the
// wire.
type frameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newFrameWriter(w io.Writer) *frameWriter {
	return &frameWriter{w: w}
}

func (f *frameWriter) write(m encoding.BinaryMarshaler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sendPacket(f.w, m)
}
