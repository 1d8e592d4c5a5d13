package sftp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameReaderNext(t *testing.T) {
	h := &handlePkt{ID: 1, Handle: "abc"}
	b, err := h.MarshalBinary()
	require.NoError(t, err)

	fr := newFrameReader(bytes.NewReader(b), 0)
	pktType, data, err := fr.next()
	require.NoError(t, err)
	assert.EqualValues(t, fxpHandle, pktType)

	var got handlePkt
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, "abc", got.Handle)
}

func TestFrameReaderMultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		p := &handlePkt{ID: uint32(i), Handle: "h"}
		b, err := p.MarshalBinary()
		require.NoError(t, err)
		buf.Write(b)
	}

	fr := newFrameReader(&buf, 0)
	for i := 0; i < 3; i++ {
		pktType, data, err := fr.next()
		require.NoError(t, err)
		assert.EqualValues(t, fxpHandle, pktType)
		var p handlePkt
		require.NoError(t, p.UnmarshalBinary(data))
		assert.EqualValues(t, i, p.ID)
	}
}

func TestFrameReaderRejectsOversizedFrame(t *testing.T) {
	b := appendU32(nil, defaultMaxFrameSize+1)
	fr := newFrameReader(bytes.NewReader(b), 0)
	_, _, err := fr.next()
	require.Error(t, err)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
}

func TestFrameReaderRejectsZeroLengthFrame(t *testing.T) {
	b := appendU32(nil, 0)
	fr := newFrameReader(bytes.NewReader(b), 0)
	_, _, err := fr.next()
	require.Error(t, err)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
}

func TestFrameWriterWritesMarshaledBytes(t *testing.T) {
	var buf bytes.Buffer
	fw := newFrameWriter(&buf)
	p := &closePkt{ID: 1, Handle: "h"}
	require.NoError(t, fw.write(p))

	want, _ := p.MarshalBinary()
	assert.Equal(t, want, buf.Bytes())
}
