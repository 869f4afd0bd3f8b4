package native

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single frame to guard against a malformed or
// hostile length prefix forcing an unbounded allocation.
const maxFrameBytes = 64 << 20

// ReadFrame reads one length-prefixed frame from r: a 4-byte
// little-endian length followed by that many bytes of JSON body.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxFrameBytes {
		return nil, fmt.Errorf("native: frame of %d bytes exceeds limit %d", n, maxFrameBytes)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFrame writes body to w as a 4-byte little-endian length prefix
// followed by body itself.
func WriteFrame(w io.Writer, body []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
