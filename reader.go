package audiotag

import (
	"fmt"
	"os"
	"strings"

	"github.com/llehouerou/audiotag/internal/ape"
	"github.com/llehouerou/audiotag/internal/id3v1"
	"github.com/llehouerou/audiotag/internal/id3v2"
	"github.com/llehouerou/audiotag/internal/region"
)

// Reader gives read access to the tags of one audio file. Tag regions
// are located when the reader is opened; each tag is decoded the
// first time something asks for it.
type Reader struct {
	f      *os.File
	size   int64
	layout region.Layout

	id3v1Tag    *id3v1.Tag
	id3v1Loaded bool
	id3v1Err    error

	id3v2Tag    *id3v2.Tag
	id3v2Loaded bool
	id3v2Err    error

	apeTag    *ape.Tag
	apeLoaded bool
	apeErr    error
}

// OpenReader opens path and locates its tag regions.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	r := &Reader{f: f, size: fi.Size()}
	r.layout = region.Scan(f, r.size)
	return r, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// IsPresent reports whether a structurally sound region for the
// format was located. A region that was detected but rejected reports
// absent; FormatError explains why.
func (r *Reader) IsPresent(f Format) bool {
	switch f {
	case FormatID3v1:
		return r.layout.ID3v1 != nil
	case FormatID3v2:
		return r.layout.ID3v2 != nil
	case FormatAPE:
		return r.layout.APE != nil
	}
	return false
}

// FormatError returns the reason a format is unusable: a region-level
// scan error, or a decode error for a located region. It returns nil
// for absent and for healthy formats.
func (r *Reader) FormatError(f Format) error {
	switch f {
	case FormatID3v1:
		if r.layout.ID3v1Err != nil {
			return r.layout.ID3v1Err
		}
		if r.layout.ID3v1 != nil {
			_, err := r.loadID3v1()
			return err
		}
	case FormatID3v2:
		if r.layout.ID3v2Err != nil {
			return r.layout.ID3v2Err
		}
		if r.layout.ID3v2 != nil {
			tag, err := r.loadID3v2()
			if err != nil {
				return err
			}
			if scanErr := tag.ScanErr(); scanErr != nil {
				return &MalformedTagError{Format: FormatID3v2, Offset: r.layout.ID3v2.Off, Err: scanErr}
			}
		}
	case FormatAPE:
		if r.layout.APEErr != nil {
			return r.layout.APEErr
		}
		if r.layout.APE != nil {
			_, err := r.loadAPE()
			return err
		}
	}
	return nil
}

func (r *Reader) readRegion(reg *region.Region) ([]byte, error) {
	buf := make([]byte, reg.Len)
	if _, err := r.f.ReadAt(buf, reg.Off); err != nil {
		return nil, fmt.Errorf("read tag region at offset %d: %w", reg.Off, err)
	}
	return buf, nil
}

func (r *Reader) loadID3v1() (*id3v1.Tag, error) {
	if !r.id3v1Loaded {
		r.id3v1Loaded = true
		if r.layout.ID3v1 == nil {
			r.id3v1Err = ErrNoTag
		} else if buf, err := r.readRegion(r.layout.ID3v1); err != nil {
			r.id3v1Err = err
		} else if t, err := id3v1.Parse(buf); err != nil {
			r.id3v1Err = &MalformedTagError{Format: FormatID3v1, Offset: r.layout.ID3v1.Off, Err: err}
		} else {
			r.id3v1Tag = t
		}
	}
	return r.id3v1Tag, r.id3v1Err
}

func (r *Reader) loadID3v2() (*id3v2.Tag, error) {
	if !r.id3v2Loaded {
		r.id3v2Loaded = true
		if r.layout.ID3v2 == nil {
			r.id3v2Err = ErrNoTag
		} else if buf, err := r.readRegion(r.layout.ID3v2); err != nil {
			r.id3v2Err = err
		} else if t, err := id3v2.Parse(buf); err != nil {
			r.id3v2Err = &MalformedTagError{Format: FormatID3v2, Offset: r.layout.ID3v2.Off, Err: err}
		} else {
			r.id3v2Tag = t
		}
	}
	return r.id3v2Tag, r.id3v2Err
}

func (r *Reader) loadAPE() (*ape.Tag, error) {
	if !r.apeLoaded {
		r.apeLoaded = true
		if r.layout.APE == nil {
			r.apeErr = ErrNoTag
		} else if buf, err := r.readRegion(r.layout.APE); err != nil {
			r.apeErr = err
		} else if t, err := ape.Parse(buf); err != nil {
			r.apeErr = &MalformedTagError{Format: FormatAPE, Offset: r.layout.APE.Off, Err: err}
		} else {
			r.apeTag = t
		}
	}
	return r.apeTag, r.apeErr
}

// GetMetaEntry resolves an entry across the present tags, APE first,
// then ID3v2, then ID3v1. Empty values and unreadable tags are
// skipped. ErrNoTag is returned when the file has no tag region at
// all, ErrEntryNotFound when tags exist but none carries a value.
func (r *Reader) GetMetaEntry(e MetaEntry) (string, error) {
	if r.layout.ID3v1 == nil && r.layout.ID3v2 == nil && r.layout.APE == nil {
		return "", ErrNoTag
	}
	if t, err := r.loadAPE(); err == nil {
		if v, ok, err := t.Text(string(e)); err == nil && ok && v != "" {
			return v, nil
		}
	}
	if t, err := r.loadID3v2(); err == nil {
		if id, ok := id3v2.FrameIDForEntry(string(e)); ok {
			if v, ok, err := t.Value(id); err == nil && ok && v != "" {
				return v, nil
			}
		}
	}
	if t, err := r.loadID3v1(); err == nil {
		if v, ok := t.Entry(string(e)); ok && v != "" {
			return v, nil
		}
	}
	return "", ErrEntryNotFound
}

// AllEntries returns the resolved view of every standard entry with a
// value, plus custom APE items, keyed by entry name.
func (r *Reader) AllEntries() map[MetaEntry]string {
	out := make(map[MetaEntry]string)
	for _, e := range standardEntries {
		if v, err := r.GetMetaEntry(e); err == nil {
			out[e] = v
		}
	}
	if t, err := r.loadAPE(); err == nil {
		for _, it := range t.Items() {
			if standardKey(it.Key) {
				continue
			}
			if v, err := it.Text(); err == nil {
				out[Custom(it.Key)] = v
			}
		}
	}
	return out
}

// standardKey reports whether an APE item key names a standard entry,
// under APE's case-insensitive key comparison.
func standardKey(key string) bool {
	for _, e := range standardEntries {
		if strings.EqualFold(string(e), key) {
			return true
		}
	}
	return false
}
