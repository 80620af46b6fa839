// Package id3v1 decodes and encodes the fixed 128-byte ID3v1 trailer,
// including the ID3v1.1 track-number convention.
package id3v1

import (
	"fmt"
	"strconv"
	"strings"
)

// TagSize is the fixed length of an ID3v1 trailer.
const TagSize = 128

const marker = "TAG"

// Field widths and offsets within the 128-byte trailer.
const (
	titleOff   = 3
	artistOff  = 33
	albumOff   = 63
	yearOff    = 93
	commentOff = 97
	genreOff   = 127

	fieldWidth   = 30
	yearWidth    = 4
	commentV11   = 28 // comment width when a track number is stored
	genreUnknown = 255
)

// OverflowError reports a value that does not fit its fixed-width
// field.
type OverflowError struct {
	Field string
	Limit int
	Got   int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("ID3v1 %s value of %d bytes exceeds field width %d", e.Field, e.Got, e.Limit)
}

// Tag is the decoded form of an ID3v1 trailer. String fields hold
// trimmed UTF-8 text; Track 0 means unset (plain ID3v1.0 comment).
type Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Track   byte
	genre   byte
}

// New returns an empty tag with no genre set.
func New() *Tag {
	return &Tag{genre: genreUnknown}
}

// Parse decodes a 128-byte trailer. The buffer must start with the
// "TAG" marker.
func Parse(b []byte) (*Tag, error) {
	if len(b) != TagSize {
		return nil, fmt.Errorf("ID3v1 trailer must be %d bytes, got %d", TagSize, len(b))
	}
	if string(b[:3]) != marker {
		return nil, fmt.Errorf("ID3v1 marker %q not found, got %q", marker, b[:3])
	}

	t := &Tag{
		Title:  trimField(b[titleOff:artistOff]),
		Artist: trimField(b[artistOff:albumOff]),
		Album:  trimField(b[albumOff:yearOff]),
		Year:   trimField(b[yearOff:commentOff]),
		genre:  b[genreOff],
	}

	// ID3v1.1: a zero byte 28 followed by a nonzero byte 29 turns the
	// comment tail into a track number.
	if b[commentOff+commentV11] == 0 && b[commentOff+commentV11+1] != 0 {
		t.Comment = trimField(b[commentOff : commentOff+commentV11])
		t.Track = b[commentOff+commentV11+1]
	} else {
		t.Comment = trimField(b[commentOff:genreOff])
	}
	return t, nil
}

func trimField(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}

// Genre returns the genre name, or empty when the index is unset or
// outside the table.
func (t *Tag) Genre() string {
	return GenreName(t.genre)
}

// SetGenre stores the table index for name. Names missing from the
// table store the unset index.
func (t *Tag) SetGenre(name string) {
	if idx, ok := GenreIndex(name); ok {
		t.genre = idx
		return
	}
	t.genre = genreUnknown
}

// Encode serializes the tag to its fixed 128-byte layout, padding
// string fields with nulls.
func (t *Tag) Encode() ([]byte, error) {
	commentWidth := fieldWidth
	if t.Track != 0 {
		commentWidth = commentV11
	}
	fields := []struct {
		name  string
		value string
		off   int
		width int
	}{
		{"title", t.Title, titleOff, fieldWidth},
		{"artist", t.Artist, artistOff, fieldWidth},
		{"album", t.Album, albumOff, fieldWidth},
		{"year", t.Year, yearOff, yearWidth},
		{"comment", t.Comment, commentOff, commentWidth},
	}

	b := make([]byte, TagSize)
	copy(b, marker)
	for _, f := range fields {
		if len(f.value) > f.width {
			return nil, &OverflowError{Field: f.name, Limit: f.width, Got: len(f.value)}
		}
		copy(b[f.off:f.off+f.width], f.value)
	}
	if t.Track != 0 {
		b[commentOff+commentV11] = 0
		b[commentOff+commentV11+1] = t.Track
	}
	b[genreOff] = t.genre
	return b, nil
}

// Entry returns the value for a canonical entry name and whether the
// format has such a field at all.
func (t *Tag) Entry(name string) (string, bool) {
	switch name {
	case "Title":
		return t.Title, true
	case "Artist":
		return t.Artist, true
	case "Album":
		return t.Album, true
	case "Year":
		return t.Year, true
	case "Genre":
		return t.Genre(), true
	case "Comment":
		return t.Comment, true
	case "Track":
		if t.Track == 0 {
			return "", true
		}
		return strconv.Itoa(int(t.Track)), true
	}
	return "", false
}

// SetEntry stores value under a canonical entry name. It reports false
// for entries the format has no field for; those are skipped, not
// errors. Values wider than the field report an OverflowError.
func (t *Tag) SetEntry(name, value string) (bool, error) {
	limit := fieldWidth
	switch name {
	case "Year":
		limit = yearWidth
	case "Comment":
		if t.Track != 0 {
			limit = commentV11
		}
	case "Track":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 255 {
			return true, fmt.Errorf("ID3v1 track must be a number between 1 and 255, got %q", value)
		}
		if len(t.Comment) > commentV11 {
			return true, &OverflowError{Field: "comment", Limit: commentV11, Got: len(t.Comment)}
		}
		t.Track = byte(n)
		return true, nil
	case "Genre":
		t.SetGenre(value)
		return true, nil
	case "Title", "Artist", "Album":
	default:
		return false, nil
	}

	if len(value) > limit {
		return true, &OverflowError{Field: strings.ToLower(name), Limit: limit, Got: len(value)}
	}
	switch name {
	case "Title":
		t.Title = value
	case "Artist":
		t.Artist = value
	case "Album":
		t.Album = value
	case "Year":
		t.Year = value
	case "Comment":
		t.Comment = value
	}
	return true, nil
}

// DeleteEntry clears the field for a canonical entry name, reporting
// whether the format has such a field.
func (t *Tag) DeleteEntry(name string) bool {
	switch name {
	case "Title":
		t.Title = ""
	case "Artist":
		t.Artist = ""
	case "Album":
		t.Album = ""
	case "Year":
		t.Year = ""
	case "Genre":
		t.genre = genreUnknown
	case "Comment":
		t.Comment = ""
	case "Track":
		t.Track = 0
	default:
		return false
	}
	return true
}
