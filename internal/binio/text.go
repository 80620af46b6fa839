package binio

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ID3v2 UTF-16 text carries a byte-order mark; big-endian is the
// fallback when the mark is absent. Transformers are stateful, so each
// call builds its own.
var utf16 = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

// DecodeLatin1 converts ISO-8859-1 bytes to a UTF-8 string. A single
// trailing null terminator, if present, is dropped.
func DecodeLatin1(b []byte) (string, error) {
	b = bytes.TrimSuffix(b, []byte{0})
	s, err := charmap.ISO8859_1.NewDecoder().String(string(b))
	if err != nil {
		return "", err
	}
	return s, nil
}

// Latin1Representable reports whether every rune of s fits in
// ISO-8859-1.
func Latin1Representable(s string) bool {
	for _, r := range s {
		if r > 0xff {
			return false
		}
	}
	return true
}

// EncodeLatin1 converts a UTF-8 string to ISO-8859-1 bytes. The caller
// is expected to have checked Latin1Representable first.
func EncodeLatin1(s string) ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}

// DecodeUTF16 converts UTF-16 bytes with an optional leading byte-order
// mark to a UTF-8 string. A trailing 16-bit null terminator, if
// present, is dropped.
func DecodeUTF16(b []byte) (string, error) {
	if n := len(b); n >= 2 && b[n-2] == 0 && b[n-1] == 0 {
		b = b[:n-2]
	}
	out, err := utf16.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeUTF16 converts a UTF-8 string to little-endian UTF-16 bytes
// with a leading byte-order mark.
func EncodeUTF16(s string) ([]byte, error) {
	return utf16LE.NewEncoder().Bytes([]byte(s))
}
