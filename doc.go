// Package audiotag reads and writes the metadata tags of MP3 files in
// the three formats found in the wild: ID3v1 at the end of the file,
// ID3v2.3 at the front, and APEv2 before the ID3v1 trailer.
//
// Reads resolve each entry across all present tags, preferring APE,
// then ID3v2.3, then ID3v1. Writes apply to every present tag that
// can represent the entry, and create an ID3v2.3 tag when the file
// has none. Nothing touches the file until Save, which rewrites the
// tags around the byte-identical audio payload through an atomic
// rename.
package audiotag
