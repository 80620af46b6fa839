package audiotag

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned when no present tag carries a
	// value for the requested entry.
	ErrEntryNotFound = errors.New("metadata entry not found")
	// ErrNoTag is returned when an operation needs a tag that is not
	// present in the file.
	ErrNoTag = errors.New("tag not present")
	// ErrUnsupportedEntry is returned when a value cannot be stored
	// in any present tag format.
	ErrUnsupportedEntry = errors.New("entry not representable in any present tag format")
)

// MalformedTagError reports a tag region that was detected but could
// not be decoded.
type MalformedTagError struct {
	Format Format
	Offset int64
	Err    error
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("malformed %s tag at offset %d: %v", e.Format, e.Offset, e.Err)
}

func (e *MalformedTagError) Unwrap() error { return e.Err }

// ValueTooLargeError reports a value that does not fit a fixed-width
// ID3v1 field.
type ValueTooLargeError struct {
	Entry MetaEntry
	Limit int
	Got   int
}

func (e *ValueTooLargeError) Error() string {
	return fmt.Sprintf("value for %s is %d bytes, ID3v1 limit is %d", e.Entry, e.Got, e.Limit)
}
