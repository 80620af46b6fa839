// Package region locates the byte ranges occupied by ID3v1, ID3v2 and
// APE tags in an audio file. Each format is detected independently so a
// corrupt region never hides a valid one.
package region

import (
	"fmt"
	"io"

	"github.com/llehouerou/audiotag/internal/binio"
)

const (
	// ID3v1Size is the fixed length of an ID3v1 trailer.
	ID3v1Size = 128
	// APEFooterSize is the fixed length of an APE footer or header.
	APEFooterSize = 32
	// ID3v2HeaderSize is the fixed length of an ID3v2 tag header.
	ID3v2HeaderSize = 10

	apeFlagHasHeader = 1 << 31
)

var (
	id3v1Marker = []byte("TAG")
	id3v2Marker = []byte("ID3")
	apeMarker   = []byte("APETAGEX")
)

// Region is a contiguous byte range owned by one tag format.
type Region struct {
	Off int64
	Len int64
}

// End returns the offset one past the region.
func (r Region) End() int64 { return r.Off + r.Len }

// Layout records, per format, either the located region or the error
// that made a marker-bearing region unusable. A format with neither is
// simply absent.
type Layout struct {
	ID3v2 *Region
	APE   *Region
	ID3v1 *Region

	ID3v2Err error
	APEErr   error
	ID3v1Err error
}

// Scan determines the regions present in a file of the given size.
// Files too short for a given format's minimal structure report that
// format as absent, not as an error.
func Scan(r io.ReaderAt, size int64) Layout {
	var l Layout
	scanID3v1(r, size, &l)
	scanAPE(r, size, &l)
	scanID3v2(r, size, &l)

	// Overlap arbitration. The ID3v1 trailer is fixed-size and anchored
	// by the file end, so an ID3v2 size field reaching into it (or past
	// the file) marks the ID3v2 region as corrupt. An APE region has a
	// variable declared size of its own; when an ID3v2 header validated
	// within those fixed bounds, an APE size reaching back into it is
	// the corrupt one and the APE region is dropped instead.
	if l.ID3v2 != nil {
		limit := size
		if l.ID3v1 != nil {
			limit = l.ID3v1.Off
		}
		switch {
		case l.ID3v2.End() > limit:
			l.ID3v2Err = fmt.Errorf("ID3v2 region end %d overlaps region starting at %d", l.ID3v2.End(), limit)
			l.ID3v2 = nil
		case l.APE != nil && l.APE.Off < l.ID3v2.End():
			l.APEErr = fmt.Errorf("APE region at offset %d reaches into ID3v2 region ending at %d", l.APE.Off, l.ID3v2.End())
			l.APE = nil
		}
	}
	return l
}

func scanID3v1(r io.ReaderAt, size int64, l *Layout) {
	if size < ID3v1Size {
		return
	}
	marker := make([]byte, len(id3v1Marker))
	if _, err := r.ReadAt(marker, size-ID3v1Size); err != nil {
		l.ID3v1Err = err
		return
	}
	if string(marker) == string(id3v1Marker) {
		l.ID3v1 = &Region{Off: size - ID3v1Size, Len: ID3v1Size}
	}
}

func scanAPE(r io.ReaderAt, size int64, l *Layout) {
	end := size
	if l.ID3v1 != nil {
		end = l.ID3v1.Off
	}
	footerOff := end - APEFooterSize
	if footerOff < 0 {
		return
	}
	footer := make([]byte, APEFooterSize)
	if _, err := r.ReadAt(footer, footerOff); err != nil {
		l.APEErr = err
		return
	}
	if string(footer[:8]) != string(apeMarker) {
		return
	}

	br := binio.NewReader(footer[8:])
	_, _ = br.Uint32LE() // version
	declared, _ := br.Uint32LE()
	_, _ = br.Uint32LE() // item count
	flags, _ := br.Uint32LE()

	// The size field counts the item list plus the optional mirrored
	// header; the footer itself is excluded.
	start := footerOff - int64(declared)
	if start < 0 {
		l.APEErr = fmt.Errorf("APE footer at offset %d declares size %d reaching before start of file", footerOff, declared)
		return
	}
	if flags&apeFlagHasHeader != 0 && declared < APEFooterSize {
		l.APEErr = fmt.Errorf("APE footer at offset %d declares size %d too small for its mirrored header", footerOff, declared)
		return
	}
	l.APE = &Region{Off: start, Len: int64(declared) + APEFooterSize}
}

func scanID3v2(r io.ReaderAt, size int64, l *Layout) {
	if size < ID3v2HeaderSize {
		return
	}
	header := make([]byte, ID3v2HeaderSize)
	if _, err := r.ReadAt(header, 0); err != nil {
		l.ID3v2Err = err
		return
	}
	if string(header[:3]) != string(id3v2Marker) {
		return
	}
	if header[3] != 3 {
		l.ID3v2Err = fmt.Errorf("unsupported ID3v2 major version %d", header[3])
		return
	}
	declared := binio.DecodeSynchsafe(header[6], header[7], header[8], header[9])
	total := int64(declared) + ID3v2HeaderSize
	if total > size {
		l.ID3v2Err = fmt.Errorf("ID3v2 header declares %d tag bytes, file has %d", total, size)
		return
	}
	l.ID3v2 = &Region{Off: 0, Len: total}
}
