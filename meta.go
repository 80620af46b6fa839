package audiotag

// MetaEntry names one metadata field in format-independent terms.
// Each tag format maps an entry to its own native field: ID3v2.3
// frames, APE item keys, or the fixed ID3v1 slots.
type MetaEntry string

const (
	Title    MetaEntry = "Title"
	Artist   MetaEntry = "Artist"
	Album    MetaEntry = "Album"
	Year     MetaEntry = "Year"
	Genre    MetaEntry = "Genre"
	Track    MetaEntry = "Track"
	Comment  MetaEntry = "Comment"
	Composer MetaEntry = "Composer"

	Date             MetaEntry = "Date"
	TextWriter       MetaEntry = "TextWriter"
	AudioEncryption  MetaEntry = "AudioEncryption"
	Language         MetaEntry = "Language"
	Time             MetaEntry = "Time"
	OriginalFilename MetaEntry = "OriginalFilename"
	FileType         MetaEntry = "FileType"
	BandOrchestra    MetaEntry = "BandOrchestra"
)

// standardEntries lists every named entry, in display order.
var standardEntries = []MetaEntry{
	Title, Artist, Album, Year, Genre, Track, Comment, Composer,
	Date, TextWriter, AudioEncryption, Language, Time,
	OriginalFilename, FileType, BandOrchestra,
}

// StandardEntries returns the named entries in display order. The
// returned slice is a copy.
func StandardEntries() []MetaEntry {
	out := make([]MetaEntry, len(standardEntries))
	copy(out, standardEntries)
	return out
}

// Custom wraps a format-native field name as an entry. For ID3v2 the
// name must be a 4-character frame identifier; for APE it is used as
// the item key. ID3v1 has no custom fields.
func Custom(name string) MetaEntry { return MetaEntry(name) }

// isStandard reports whether e is one of the named entries.
func isStandard(e MetaEntry) bool {
	for _, s := range standardEntries {
		if s == e {
			return true
		}
	}
	return false
}
