// Package binio provides cursor-based readers and writers for the
// fixed-layout binary structures used by audio tag formats: big- and
// little-endian integers, synch-safe size fields, null-terminated
// strings, and the text encodings ID3v2 allows.
package binio

import (
	"encoding/binary"
	"fmt"
)

// synchsafeMax is the largest value a 4-byte synch-safe field can carry
// (28 bits of payload).
const synchsafeMax = 1<<28 - 1

// Reader reads fixed-width values from a byte buffer, advancing an
// internal cursor. All methods return an error naming the offset when
// the buffer is too short.
type Reader struct {
	b   []byte
	off int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.b) - r.off }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.b) {
		return fmt.Errorf("seek to offset %d outside buffer of %d bytes", off, len(r.b))
	}
	r.off = off
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

func (r *Reader) need(n int) error {
	if n < 0 || r.off+n > len(r.b) {
		return fmt.Errorf("need %d bytes at offset %d, have %d", n, r.off, len(r.b)-r.off)
	}
	return nil
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.b[r.off]
	r.off++
	return b, nil
}

// Bytes reads exactly n bytes. The returned slice aliases the
// underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.b[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Uint16BE reads a big-endian 16-bit integer.
func (r *Reader) Uint16BE() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32BE reads a big-endian 32-bit integer.
func (r *Reader) Uint32BE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint32LE reads a little-endian 32-bit integer.
func (r *Reader) Uint32LE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Synchsafe32 reads a 4-byte synch-safe size field: only the low 7 bits
// of each byte carry data, yielding a 28-bit value.
func (r *Reader) Synchsafe32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return DecodeSynchsafe(b[0], b[1], b[2], b[3]), nil
}

// CString reads bytes up to (and consuming) a null terminator, scanning
// at most max bytes.
func (r *Reader) CString(max int) (string, error) {
	limit := r.off + max
	if limit > len(r.b) {
		limit = len(r.b)
	}
	for i := r.off; i < limit; i++ {
		if r.b[i] == 0 {
			s := string(r.b[r.off:i])
			r.off = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", r.off)
}

// DecodeSynchsafe concatenates the low 7 bits of each byte.
func DecodeSynchsafe(b0, b1, b2, b3 byte) uint32 {
	return uint32(b0&0x7f)<<21 | uint32(b1&0x7f)<<14 | uint32(b2&0x7f)<<7 | uint32(b3&0x7f)
}

// Writer appends fixed-width values to a growing byte buffer.
type Writer struct {
	b []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.b }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.b) }

// PutByte appends a single byte.
func (w *Writer) PutByte(v byte) { w.b = append(w.b, v) }

// PutBytes appends a byte slice verbatim.
func (w *Writer) PutBytes(p []byte) { w.b = append(w.b, p...) }

// PutZeros appends n zero bytes.
func (w *Writer) PutZeros(n int) { w.b = append(w.b, make([]byte, n)...) }

// PutUint16BE appends a big-endian 16-bit integer.
func (w *Writer) PutUint16BE(v uint16) {
	w.b = binary.BigEndian.AppendUint16(w.b, v)
}

// PutUint32BE appends a big-endian 32-bit integer.
func (w *Writer) PutUint32BE(v uint32) {
	w.b = binary.BigEndian.AppendUint32(w.b, v)
}

// PutUint32LE appends a little-endian 32-bit integer.
func (w *Writer) PutUint32LE(v uint32) {
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
}

// PutSynchsafe32 appends a 4-byte synch-safe size field. Values above
// 28 bits cannot be represented and are rejected.
func (w *Writer) PutSynchsafe32(v uint32) error {
	if v > synchsafeMax {
		return fmt.Errorf("value %d exceeds synch-safe range", v)
	}
	w.b = append(w.b,
		byte(v>>21)&0x7f,
		byte(v>>14)&0x7f,
		byte(v>>7)&0x7f,
		byte(v)&0x7f,
	)
	return nil
}

// PutCString appends s followed by a null terminator.
func (w *Writer) PutCString(s string) {
	w.b = append(w.b, s...)
	w.b = append(w.b, 0)
}
