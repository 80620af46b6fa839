// Package ape decodes and encodes APEv2 tags: a 32-byte footer before
// the ID3v1 trailer (when one exists), an item list, and an optional
// mirrored header in front of the items. All fixed-width fields are
// little-endian; keys are ASCII and compared case-insensitively.
package ape

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/llehouerou/audiotag/internal/binio"
)

const (
	// FooterSize is the length of the footer and of the mirrored
	// header.
	FooterSize = 32
	// Version is the only tag version written or accepted.
	Version = 2000

	flagHasHeader = 1 << 31
	flagIsHeader  = 1 << 29

	// ItemFlagReadOnly marks an item the writer should not replace.
	ItemFlagReadOnly = 1 << 0
	// ItemFlagBinary marks an item whose value is opaque bytes.
	ItemFlagBinary = 1 << 1
	// ItemFlagExternal marks an item whose value locates data stored
	// elsewhere.
	ItemFlagExternal = 1 << 2
)

var apeMarker = []byte("APETAGEX")

// Item is one key/value pair of the tag. Items read from disk keep
// their raw bytes so unmodified items re-serialize byte-identically.
type Item struct {
	Key   string
	Value []byte
	Flags uint32

	raw   []byte
	dirty bool
}

// Text returns the item value as UTF-8 text. Binary and external
// items have no text form.
func (it *Item) Text() (string, error) {
	if it.Flags&(ItemFlagBinary|ItemFlagExternal) != 0 {
		return "", fmt.Errorf("item %q is not a text item", it.Key)
	}
	return string(it.Value), nil
}

// Tag is the in-memory form of one APEv2 tag region.
type Tag struct {
	hasHeader bool
	items     []*Item
}

// NewTag returns an empty tag that will serialize with a mirrored
// header.
func NewTag() *Tag {
	return &Tag{hasHeader: true}
}

// Parse decodes a complete tag region: the optional header, the item
// list, and the footer. Leftover bytes between the last declared item
// and the footer make the tag malformed.
func Parse(buf []byte) (*Tag, error) {
	if len(buf) < FooterSize {
		return nil, fmt.Errorf("APE region of %d bytes cannot hold a footer", len(buf))
	}
	footer := buf[len(buf)-FooterSize:]
	version, count, flags, err := parseBlock(footer, false)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("unsupported APE tag version %d", version)
	}

	t := &Tag{hasHeader: flags&flagHasHeader != 0}
	itemsStart := 0
	if t.hasHeader {
		if len(buf) < 2*FooterSize {
			return nil, errors.New("APE footer declares a header the region cannot hold")
		}
		if _, _, _, err := parseBlock(buf[:FooterSize], true); err != nil {
			return nil, fmt.Errorf("APE header: %w", err)
		}
		itemsStart = FooterSize
	}

	r := binio.NewReader(buf[itemsStart : len(buf)-FooterSize])
	for i := uint32(0); i < count; i++ {
		start := r.Offset()
		valueSize, err := r.Uint32LE()
		if err != nil {
			return nil, fmt.Errorf("APE item %d: %w", i, err)
		}
		itemFlags, err := r.Uint32LE()
		if err != nil {
			return nil, fmt.Errorf("APE item %d: %w", i, err)
		}
		key, err := r.CString(256)
		if err != nil {
			return nil, fmt.Errorf("APE item %d key: %w", i, err)
		}
		if err := validKey(key); err != nil {
			return nil, fmt.Errorf("APE item %d: %w", i, err)
		}
		value, err := r.Bytes(int(valueSize))
		if err != nil {
			return nil, fmt.Errorf("APE item %q: %w", key, err)
		}
		t.items = append(t.items, &Item{
			Key:   key,
			Value: value,
			Flags: itemFlags,
			raw:   buf[itemsStart+start : itemsStart+r.Offset()],
		})
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%d stray bytes between APE items and footer", r.Remaining())
	}
	return t, nil
}

// parseBlock decodes one 32-byte header or footer block.
func parseBlock(b []byte, wantHeader bool) (version, count, flags uint32, err error) {
	r := binio.NewReader(b)
	marker, _ := r.Bytes(8)
	if string(marker) != string(apeMarker) {
		return 0, 0, 0, fmt.Errorf("APE marker not found, got %q", marker)
	}
	version, _ = r.Uint32LE()
	_, _ = r.Uint32LE() // size, re-derived on encode
	count, _ = r.Uint32LE()
	flags, _ = r.Uint32LE()
	if wantHeader && flags&flagIsHeader == 0 {
		return 0, 0, 0, errors.New("header block missing the header flag")
	}
	return version, count, flags, nil
}

func validKey(key string) error {
	if len(key) < 2 {
		return fmt.Errorf("key %q is shorter than 2 characters", key)
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] > 0x7E {
			return fmt.Errorf("key %q contains non-printable byte 0x%02x", key, key[i])
		}
	}
	return nil
}

// Len returns the number of items.
func (t *Tag) Len() int { return len(t.items) }

// Items returns the items in their current order. The slice is a
// copy; the items are not.
func (t *Tag) Items() []*Item {
	out := make([]*Item, len(t.items))
	copy(out, t.items)
	return out
}

// Get returns the item with the given key, compared
// case-insensitively.
func (t *Tag) Get(key string) (*Item, bool) {
	for _, it := range t.items {
		if strings.EqualFold(it.Key, key) {
			return it, true
		}
	}
	return nil, false
}

// Text returns the UTF-8 value of the item with the given key,
// reporting whether such an item exists.
func (t *Tag) Text(key string) (string, bool, error) {
	it, ok := t.Get(key)
	if !ok {
		return "", false, nil
	}
	v, err := it.Text()
	if err != nil {
		return "", true, err
	}
	return v, true, nil
}

// Set stages a text value under the given key, replacing an existing
// item (its original key casing is kept) or adding a new one.
func (t *Tag) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if it, ok := t.Get(key); ok {
		it.Value = []byte(value)
		it.Flags &^= ItemFlagBinary | ItemFlagExternal
		it.raw = nil
		it.dirty = true
		return nil
	}
	t.items = append(t.items, &Item{Key: key, Value: []byte(value), dirty: true})
	return nil
}

// Delete removes the item with the given key, reporting whether it
// was present.
func (t *Tag) Delete(key string) bool {
	for i, it := range t.items {
		if strings.EqualFold(it.Key, key) {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return true
		}
	}
	return false
}

// Encode serializes the tag. Unmodified items are emitted
// byte-identically in their original order; modified and new items
// follow, sorted by key. The size field covers the items and the
// mirrored header but not the footer.
func (t *Tag) Encode() []byte {
	items := binio.NewWriter()
	var dirty []*Item
	for _, it := range t.items {
		if !it.dirty && it.raw != nil {
			items.PutBytes(it.raw)
			continue
		}
		dirty = append(dirty, it)
	}
	sort.SliceStable(dirty, func(i, j int) bool {
		return strings.ToLower(dirty[i].Key) < strings.ToLower(dirty[j].Key)
	})
	for _, it := range dirty {
		items.PutUint32LE(uint32(len(it.Value)))
		items.PutUint32LE(it.Flags)
		items.PutCString(it.Key)
		items.PutBytes(it.Value)
	}

	size := uint32(items.Len())
	flags := uint32(0)
	if t.hasHeader {
		size += FooterSize
		flags |= flagHasHeader
	}

	out := binio.NewWriter()
	if t.hasHeader {
		writeBlock(out, size, uint32(len(t.items)), flags|flagIsHeader)
	}
	out.PutBytes(items.Bytes())
	writeBlock(out, size, uint32(len(t.items)), flags)
	return out.Bytes()
}

func writeBlock(w *binio.Writer, size, count, flags uint32) {
	w.PutBytes(apeMarker)
	w.PutUint32LE(Version)
	w.PutUint32LE(size)
	w.PutUint32LE(count)
	w.PutUint32LE(flags)
	w.PutZeros(8)
}
