// Package fragment batches and decodes server-rendered diff fragments.
//
// The fragment endpoints return multiple HTML blobs in a single response,
// packed in a binary framing format. This package owns both the wire codec
// and the load queue that batches per-file fragment requests.
package fragment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Fragment is one decoded record from a fragment payload: a server-rendered
// HTML blob keyed by the comment or file ID it belongs to.
type Fragment struct {
	ID   string
	HTML string
}

// ErrFraming indicates a malformed fragment payload: the remaining buffer is
// shorter than a record header or a declared payload length. The whole batch
// is considered corrupt; records are never silently truncated.
var ErrFraming = errors.New("malformed fragment payload")

// recordHeaderSize is the fixed prefix of every record:
// a uint32 ID followed by a uint32 byte length, little-endian.
const recordHeaderSize = 8

// Decoder reads fragment records from a binary payload lazily. It is finite
// and non-restartable: once Next returns io.EOF or a framing error, the
// decoder is exhausted.
//
// The wire format is repeating records of
// [uint32 id][uint32 byteLength][byteLength bytes of UTF-8 HTML],
// little-endian, densely packed, terminated by the end of the buffer.
// The producer emits byteLength as the UTF-8 byte count, so payloads are
// never split mid-character.
type Decoder struct {
	buf []byte
	off int
	err error // latched framing error, returned by every later Next
}

// NewDecoder creates a decoder over the given payload buffer.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Next returns the next fragment record. It returns io.EOF when the buffer
// is cleanly exhausted, and an error wrapping ErrFraming when the remaining
// bytes cannot hold a complete record.
func (d *Decoder) Next() (Fragment, error) {
	if d.err != nil {
		return Fragment{}, d.err
	}

	remaining := len(d.buf) - d.off
	if remaining == 0 {
		return Fragment{}, io.EOF
	}

	if remaining < recordHeaderSize {
		d.err = fmt.Errorf("%w: %d trailing bytes, want %d-byte record header",
			ErrFraming, remaining, recordHeaderSize)
		return Fragment{}, d.err
	}

	id := binary.LittleEndian.Uint32(d.buf[d.off:])
	length := binary.LittleEndian.Uint32(d.buf[d.off+4:])
	d.off += recordHeaderSize

	if uint64(length) > uint64(len(d.buf)-d.off) {
		d.err = fmt.Errorf("%w: record %d declares %d bytes, %d remain",
			ErrFraming, id, length, len(d.buf)-d.off)
		return Fragment{}, d.err
	}

	html := string(d.buf[d.off : d.off+int(length)])
	d.off += int(length)

	return Fragment{
		ID:   strconv.FormatUint(uint64(id), 10),
		HTML: html,
	}, nil
}

// DecodeAll drains the decoder into a slice, preserving record order.
func DecodeAll(buf []byte) ([]Fragment, error) {
	d := NewDecoder(buf)

	var fragments []Fragment
	for {
		frag, err := d.Next()
		if errors.Is(err, io.EOF) {
			return fragments, nil
		}
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, frag)
	}
}

// Encode packs fragments into the binary wire format. IDs must be decimal
// strings that fit in a uint32, matching what the server emits.
func Encode(fragments []Fragment) ([]byte, error) {
	var out []byte
	for _, frag := range fragments {
		id, err := strconv.ParseUint(frag.ID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("encode fragment: bad ID %q: %w", frag.ID, err)
		}

		var header [recordHeaderSize]byte
		binary.LittleEndian.PutUint32(header[0:], uint32(id))
		binary.LittleEndian.PutUint32(header[4:], uint32(len(frag.HTML)))
		out = append(out, header[:]...)
		out = append(out, frag.HTML...)
	}
	return out, nil
}
