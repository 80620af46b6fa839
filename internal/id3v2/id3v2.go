// Package id3v2 decodes and encodes ID3v2.3 tags: the synch-safe-sized
// tag header, an optional extended header, and the frame stream
// followed by zero padding. Frame bodies are decoded on demand; the
// initial scan only records each frame's identifier and extent.
package id3v2

import (
	"errors"
	"fmt"

	"github.com/llehouerou/audiotag/internal/binio"
)

const (
	// HeaderSize is the fixed length of the tag header.
	HeaderSize = 10
	// MinPadding is the padding appended when a tag has to grow, so
	// later edits can reuse it without moving the audio payload.
	MinPadding = 2048

	frameHeaderSize = 10

	encodingLatin1 = 0
	encodingUTF16  = 1

	flagUnsynchronization = 1 << 7
	flagExtendedHeader    = 1 << 6
)

var id3Marker = []byte("ID3")

// ErrStaleFrame is returned when a frame handle is used after its tag
// has been re-serialized.
var ErrStaleFrame = errors.New("frame handle invalidated by tag re-serialization")

// Header is the decoded 10-byte tag header.
type Header struct {
	Major    byte
	Revision byte
	Flags    byte
	// Size is the declared tag size excluding the header itself.
	Size uint32
}

// frame is one entry of the lazily-scanned frame directory. Frames
// read from disk keep their raw bytes so unmodified frames re-serialize
// byte-identically; dirty and new frames carry only the staged value.
type frame struct {
	id    string
	flags uint16
	raw   []byte // header+body as read, nil for new frames
	body  []byte // body as read, nil for new frames
	value string
	dirty bool
}

// Tag is the in-memory form of one ID3v2.3 tag region.
type Tag struct {
	hdr     Header
	frames  []*frame
	scanErr error
	gen     uint32
	fresh   bool
	padding int
}

// SetMinPadding overrides the padding appended when the tag grows.
// Zero or negative restores the MinPadding default.
func (t *Tag) SetMinPadding(n int) { t.padding = n }

func (t *Tag) minPadding() int {
	if t.padding > 0 {
		return t.padding
	}
	return MinPadding
}

// NewTag returns an empty tag with no on-disk predecessor.
func NewTag() *Tag {
	return &Tag{
		hdr:   Header{Major: 3},
		fresh: true,
	}
}

// Parse decodes a complete tag region (header included) and scans its
// frame directory without decoding frame bodies. A frame whose
// declared size crosses the tag boundary stops the scan and is
// recorded via ScanErr; frames scanned before it stay readable.
func Parse(buf []byte) (*Tag, error) {
	hdr, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	if int(hdr.Size)+HeaderSize > len(buf) {
		return nil, fmt.Errorf("ID3v2 header declares %d tag bytes, region has %d", hdr.Size, len(buf)-HeaderSize)
	}
	body := buf[HeaderSize : HeaderSize+int(hdr.Size)]

	r := binio.NewReader(body)
	if hdr.Flags&flagExtendedHeader != 0 {
		// The extended header is skipped by its length field, never
		// interpreted. Its 4-byte size excludes the size field itself.
		extSize, err := r.Uint32BE()
		if err != nil {
			return nil, fmt.Errorf("truncated extended header: %w", err)
		}
		if err := r.Skip(int(extSize)); err != nil {
			return nil, fmt.Errorf("extended header size %d exceeds tag: %w", extSize, err)
		}
	}

	t := &Tag{hdr: hdr}
	for r.Remaining() >= frameHeaderSize {
		start := r.Offset()
		id, _ := r.Bytes(4)
		if !ValidFrameID(string(id)) {
			// First invalid identifier starts the padding.
			break
		}
		size, _ := r.Uint32BE()
		flags, _ := r.Uint16BE()
		frameBody, err := r.Bytes(int(size))
		if err != nil {
			t.scanErr = fmt.Errorf("frame %s at offset %d declares %d body bytes past tag boundary",
				id, HeaderSize+start, size)
			break
		}
		t.frames = append(t.frames, &frame{
			id:    string(id),
			flags: flags,
			raw:   body[start:r.Offset()],
			body:  frameBody,
		})
	}
	return t, nil
}

func parseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("ID3v2 header needs %d bytes, got %d", HeaderSize, len(buf))
	}
	if string(buf[:3]) != string(id3Marker) {
		return Header{}, fmt.Errorf("ID3v2 marker not found, got %q", buf[:3])
	}
	hdr := Header{
		Major:    buf[3],
		Revision: buf[4],
		Flags:    buf[5],
		Size:     binio.DecodeSynchsafe(buf[6], buf[7], buf[8], buf[9]),
	}
	if hdr.Major != 3 {
		return Header{}, fmt.Errorf("unsupported ID3v2 major version %d", hdr.Major)
	}
	if hdr.Flags&flagUnsynchronization != 0 {
		return Header{}, errors.New("unsynchronized ID3v2 tags are not supported")
	}
	return hdr, nil
}

// ValidFrameID reports whether s is a 4-character uppercase
// alphanumeric frame identifier.
func ValidFrameID(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// ScanErr returns the malformed-frame error recorded during the
// directory scan, if any. Frames scanned before the bad one remain
// usable; callers decide whether partial decode is acceptable.
func (t *Tag) ScanErr() error { return t.scanErr }

// Len returns the number of frames in the directory.
func (t *Tag) Len() int { return len(t.frames) }

// Handle refers to one scanned frame. It stays valid until the owning
// tag is re-serialized.
type Handle struct {
	t   *Tag
	idx int
	gen uint32
}

// ID returns the frame identifier. Using a handle after the tag has
// been re-serialized returns ErrStaleFrame.
func (h Handle) ID() (string, error) {
	if h.gen != h.t.gen {
		return "", ErrStaleFrame
	}
	return h.t.frames[h.idx].id, nil
}

// Value decodes the frame body. Using a handle after the tag has been
// re-serialized returns ErrStaleFrame.
func (h Handle) Value() (string, error) {
	if h.gen != h.t.gen {
		return "", ErrStaleFrame
	}
	return h.t.frames[h.idx].decode()
}

// Lookup returns a handle to the first frame with the given
// identifier.
func (t *Tag) Lookup(id string) (Handle, bool) {
	for i, f := range t.frames {
		if f.id == id {
			return Handle{t: t, idx: i, gen: t.gen}, true
		}
	}
	return Handle{}, false
}

// Value decodes the first frame with the given identifier, reporting
// whether such a frame exists.
func (t *Tag) Value(id string) (string, bool, error) {
	h, ok := t.Lookup(id)
	if !ok {
		return "", false, nil
	}
	v, err := h.Value()
	if err != nil {
		return "", true, err
	}
	return v, true, nil
}

// Set stages value for the given frame identifier, replacing an
// existing frame in place or appending a new one.
func (t *Tag) Set(id, value string) {
	for _, f := range t.frames {
		if f.id == id {
			f.value = value
			f.dirty = true
			f.raw = nil
			f.body = nil
			return
		}
	}
	t.frames = append(t.frames, &frame{id: id, value: value, dirty: true})
}

// Delete removes every frame with the given identifier, reporting
// whether any was present.
func (t *Tag) Delete(id string) bool {
	kept := t.frames[:0]
	removed := false
	for _, f := range t.frames {
		if f.id == id {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	t.frames = kept
	return removed
}

// Encode serializes the tag. Unmodified frames are emitted
// byte-identically; dirty and new frames are re-encoded. The declared
// size is kept when the new frame stream still fits the old region
// (padding absorbs the change) and otherwise grows to the stream plus
// the minimum padding, MinPadding unless overridden through
// SetMinPadding. Encoding invalidates all outstanding handles.
func (t *Tag) Encode() ([]byte, error) {
	frames := binio.NewWriter()
	for _, f := range t.frames {
		if !f.dirty && f.raw != nil {
			frames.PutBytes(f.raw)
			continue
		}
		body, err := encodeBody(f.id, f.value)
		if err != nil {
			return nil, fmt.Errorf("encode frame %s: %w", f.id, err)
		}
		frames.PutBytes([]byte(f.id))
		frames.PutUint32BE(uint32(len(body)))
		frames.PutUint16BE(0)
		frames.PutBytes(body)
	}

	streamLen := frames.Len()
	declared := uint32(streamLen + t.minPadding())
	if !t.fresh && uint32(streamLen) <= t.hdr.Size {
		declared = t.hdr.Size
	}

	out := binio.NewWriter()
	out.PutBytes(id3Marker)
	out.PutByte(3)
	out.PutByte(0)
	out.PutByte(0)
	if err := out.PutSynchsafe32(declared); err != nil {
		return nil, err
	}
	out.PutBytes(frames.Bytes())
	out.PutZeros(int(declared) - streamLen)

	t.gen++
	return out.Bytes(), nil
}

func (f *frame) decode() (string, error) {
	if f.dirty {
		return f.value, nil
	}
	if f.id == "COMM" {
		return decodeComment(f.body)
	}
	return decodeText(f.body)
}

// decodeText decodes a text frame body: a one-byte encoding
// discriminator followed by unterminated text.
func decodeText(body []byte) (string, error) {
	if len(body) == 0 {
		return "", nil
	}
	switch body[0] {
	case encodingLatin1:
		return binio.DecodeLatin1(body[1:])
	case encodingUTF16:
		return binio.DecodeUTF16(body[1:])
	default:
		return "", fmt.Errorf("unsupported text encoding %d", body[0])
	}
}

// decodeComment decodes a COMM body: encoding byte, 3-byte language
// code, encoding-terminated short description, then the long text the
// canonical Comment maps to.
func decodeComment(body []byte) (string, error) {
	if len(body) < 4 {
		return "", fmt.Errorf("COMM body of %d bytes is too short", len(body))
	}
	enc := body[0]
	rest := body[4:]
	switch enc {
	case encodingLatin1:
		for i := 0; i < len(rest); i++ {
			if rest[i] == 0 {
				return binio.DecodeLatin1(rest[i+1:])
			}
		}
	case encodingUTF16:
		for i := 0; i+1 < len(rest); i += 2 {
			if rest[i] == 0 && rest[i+1] == 0 {
				return binio.DecodeUTF16(rest[i+2:])
			}
		}
	default:
		return "", fmt.Errorf("unsupported text encoding %d", enc)
	}
	return "", errors.New("COMM body missing description terminator")
}

func encodeBody(id, value string) ([]byte, error) {
	if id == "COMM" {
		return encodeComment(value)
	}
	return encodeText(value)
}

// encodeText picks ISO-8859-1 when the value fits it and UTF-16 with a
// byte-order mark otherwise.
func encodeText(value string) ([]byte, error) {
	w := binio.NewWriter()
	if binio.Latin1Representable(value) {
		b, err := binio.EncodeLatin1(value)
		if err != nil {
			return nil, err
		}
		w.PutByte(encodingLatin1)
		w.PutBytes(b)
		return w.Bytes(), nil
	}
	b, err := binio.EncodeUTF16(value)
	if err != nil {
		return nil, err
	}
	w.PutByte(encodingUTF16)
	w.PutBytes(b)
	return w.Bytes(), nil
}

// encodeComment writes a COMM body with an "eng" language code and an
// empty short description.
func encodeComment(value string) ([]byte, error) {
	w := binio.NewWriter()
	if binio.Latin1Representable(value) {
		b, err := binio.EncodeLatin1(value)
		if err != nil {
			return nil, err
		}
		w.PutByte(encodingLatin1)
		w.PutBytes([]byte("eng"))
		w.PutByte(0) // empty description
		w.PutBytes(b)
		return w.Bytes(), nil
	}
	b, err := binio.EncodeUTF16(value)
	if err != nil {
		return nil, err
	}
	w.PutByte(encodingUTF16)
	w.PutBytes([]byte("eng"))
	w.PutByte(0xFF) // byte-order mark of the empty description
	w.PutByte(0xFE)
	w.PutByte(0)
	w.PutByte(0)
	w.PutBytes(b)
	return w.Bytes(), nil
}
