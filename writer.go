package audiotag

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/llehouerou/audiotag/internal/ape"
	"github.com/llehouerou/audiotag/internal/atomicfile"
	"github.com/llehouerou/audiotag/internal/id3v1"
	"github.com/llehouerou/audiotag/internal/id3v2"
	"github.com/llehouerou/audiotag/internal/region"
)

// Writer stages edits to the tags of one audio file. Edits are
// applied in memory and only reach the file on Save. Every healthy
// tag is decoded up front; a region the writer cannot decode is
// treated as absent, and its bytes ride along inside the preserved
// payload rather than being re-serialized from a broken parse.
type Writer struct {
	path string
	perm os.FileMode
	size int64

	payloadStart int64
	payloadEnd   int64

	id3v2Tag *id3v2.Tag
	apeTag   *ape.Tag
	id3v1Tag *id3v1.Tag

	createFormat Format
	minPadding   int

	dirty bool
}

// WriterOption adjusts how a Writer stages and serializes edits.
type WriterOption func(*Writer)

// WithCreateFormat selects the tag format created when an entry is set
// on a file with no tags at all. The default is FormatID3v2.
func WithCreateFormat(f Format) WriterOption {
	return func(w *Writer) { w.createFormat = f }
}

// WithMinPadding overrides the minimum padding appended when an ID3v2
// tag has to grow. Zero keeps the codec default.
func WithMinPadding(n int) WriterOption {
	return func(w *Writer) { w.minPadding = n }
}

// OpenWriter opens path for tag editing.
func OpenWriter(path string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{path: path, createFormat: FormatID3v2}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.load(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) load() error {
	f, err := os.Open(w.path)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	w.perm = fi.Mode().Perm()
	w.size = fi.Size()

	layout := region.Scan(f, w.size)

	// A region that fails to decode is dropped from the snapshot and
	// left inside the payload bounds, so its bytes survive the rewrite
	// untouched. One corrupt format never blocks editing the others.
	w.id3v2Tag, w.apeTag, w.id3v1Tag = nil, nil, nil
	w.payloadStart = 0
	w.payloadEnd = w.size

	if layout.ID3v2 != nil {
		buf, err := readAt(f, layout.ID3v2)
		if err != nil {
			return err
		}
		if t, err := id3v2.Parse(buf); err == nil && t.ScanErr() == nil {
			w.id3v2Tag = t
			w.payloadStart = layout.ID3v2.End()
		}
	}
	if layout.ID3v1 != nil {
		buf, err := readAt(f, layout.ID3v1)
		if err != nil {
			return err
		}
		if t, err := id3v1.Parse(buf); err == nil {
			w.id3v1Tag = t
			w.payloadEnd = layout.ID3v1.Off
		}
	}
	if layout.APE != nil {
		buf, err := readAt(f, layout.APE)
		if err != nil {
			return err
		}
		if t, err := ape.Parse(buf); err == nil {
			w.apeTag = t
			w.payloadEnd = layout.APE.Off
		}
	}

	w.dirty = false
	return nil
}

func readAt(f *os.File, reg *region.Region) ([]byte, error) {
	buf := make([]byte, reg.Len)
	if _, err := f.ReadAt(buf, reg.Off); err != nil {
		return nil, fmt.Errorf("read tag region at offset %d: %w", reg.Off, err)
	}
	return buf, nil
}

// IsPresent reports whether the writer currently carries a tag in the
// given format, staged deletions and creations included.
func (w *Writer) IsPresent(f Format) bool {
	switch f {
	case FormatID3v1:
		return w.id3v1Tag != nil
	case FormatID3v2:
		return w.id3v2Tag != nil
	case FormatAPE:
		return w.apeTag != nil
	}
	return false
}

// SetMetaEntry stages value for the entry in every present tag that
// can represent it. A file with no tags gets a fresh tag in the
// WithCreateFormat format, ID3v2.3 unless overridden.
// ErrUnsupportedEntry is returned when no present format could take
// the value; an oversized value for an ID3v1 field aborts the whole
// operation with ValueTooLargeError before any tag is modified.
func (w *Writer) SetMetaEntry(e MetaEntry, value string) error {
	created := false
	if w.id3v1Tag == nil && w.id3v2Tag == nil && w.apeTag == nil {
		created = true
		switch w.createFormat {
		case FormatID3v1:
			w.id3v1Tag = id3v1.New()
		case FormatAPE:
			w.apeTag = ape.NewTag()
		default:
			w.id3v2Tag = id3v2.NewTag()
		}
	}

	applied := false
	if w.id3v1Tag != nil {
		ok, err := w.id3v1Tag.SetEntry(string(e), value)
		var overflow *id3v1.OverflowError
		if errors.As(err, &overflow) {
			return &ValueTooLargeError{Entry: overflowEntry(overflow.Field, e), Limit: overflow.Limit, Got: overflow.Got}
		}
		if err != nil {
			return err
		}
		applied = applied || ok
	}
	if w.id3v2Tag != nil {
		if id, ok := id3v2.FrameIDForEntry(string(e)); ok {
			w.id3v2Tag.Set(id, value)
			applied = true
		}
	}
	if w.apeTag != nil {
		if err := w.apeTag.Set(string(e), value); err == nil {
			applied = true
		}
	}
	if !applied {
		// Do not leave a freshly created empty tag staged behind a
		// failed set.
		if created {
			w.id3v1Tag, w.id3v2Tag, w.apeTag = nil, nil, nil
		}
		return fmt.Errorf("%w: %s", ErrUnsupportedEntry, e)
	}
	w.dirty = true
	return nil
}

// overflowEntry names the entry whose ID3v1 field overflowed. Setting
// the track number can overflow the comment field it shares bytes
// with, so the codec's field name wins over the entry being set.
func overflowEntry(field string, fallback MetaEntry) MetaEntry {
	switch field {
	case "title":
		return Title
	case "artist":
		return Artist
	case "album":
		return Album
	case "year":
		return Year
	case "comment":
		return Comment
	}
	return fallback
}

// DeleteMetaEntry removes the entry from every present tag.
// ErrEntryNotFound is returned when no tag carried a value for it.
func (w *Writer) DeleteMetaEntry(e MetaEntry) error {
	removed := false
	if w.id3v1Tag != nil {
		if v, ok := w.id3v1Tag.Entry(string(e)); ok && v != "" {
			w.id3v1Tag.DeleteEntry(string(e))
			removed = true
		}
	}
	if w.id3v2Tag != nil {
		if id, ok := id3v2.FrameIDForEntry(string(e)); ok && w.id3v2Tag.Delete(id) {
			removed = true
		}
	}
	if w.apeTag != nil && w.apeTag.Delete(string(e)) {
		removed = true
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, e)
	}
	w.dirty = true
	return nil
}

// DeleteTag stages removal of an entire tag. ErrNoTag is returned
// when the format is not present.
func (w *Writer) DeleteTag(f Format) error {
	switch f {
	case FormatID3v1:
		if w.id3v1Tag == nil {
			return ErrNoTag
		}
		w.id3v1Tag = nil
	case FormatID3v2:
		if w.id3v2Tag == nil {
			return ErrNoTag
		}
		w.id3v2Tag = nil
	case FormatAPE:
		if w.apeTag == nil {
			return ErrNoTag
		}
		w.apeTag = nil
	default:
		return fmt.Errorf("unknown tag format %d", f)
	}
	w.dirty = true
	return nil
}

// Save rewrites the file with the staged tags around the untouched
// audio payload, atomically through a temporary sibling file. The
// payload is streamed, never held in memory. Saving with no staged
// edits is a no-op.
func (w *Writer) Save() error {
	if !w.dirty {
		return nil
	}

	var id3v2Buf []byte
	if w.id3v2Tag != nil {
		w.id3v2Tag.SetMinPadding(w.minPadding)
		var err error
		id3v2Buf, err = w.id3v2Tag.Encode()
		if err != nil {
			return fmt.Errorf("encode ID3v2.3 tag: %w", err)
		}
	}
	var apeBuf []byte
	if w.apeTag != nil {
		apeBuf = w.apeTag.Encode()
	}
	var id3v1Buf []byte
	if w.id3v1Tag != nil {
		var err error
		id3v1Buf, err = w.id3v1Tag.Encode()
		if err != nil {
			return fmt.Errorf("encode ID3v1 tag: %w", err)
		}
	}

	src, err := os.Open(w.path)
	if err != nil {
		return err
	}
	defer src.Close()

	err = atomicfile.Write(w.path, w.perm, func(out io.Writer) error {
		if _, err := out.Write(id3v2Buf); err != nil {
			return err
		}
		payload := io.NewSectionReader(src, w.payloadStart, w.payloadEnd-w.payloadStart)
		if _, err := io.Copy(out, payload); err != nil {
			return fmt.Errorf("copy audio payload: %w", err)
		}
		if _, err := out.Write(apeBuf); err != nil {
			return err
		}
		_, err := out.Write(id3v1Buf)
		return err
	})
	if err != nil {
		return err
	}
	return w.load()
}
