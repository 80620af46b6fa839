package id3v2

// entryFrames maps canonical entry names to their ID3v2.3 frame
// identifiers.
var entryFrames = map[string]string{
	"Title":            "TIT2",
	"Artist":           "TPE1",
	"Album":            "TALB",
	"Year":             "TYER",
	"Genre":            "TCON",
	"Track":            "TRCK",
	"Comment":          "COMM",
	"Composer":         "TCOM",
	"Date":             "TDAT",
	"TextWriter":       "TEXT",
	"AudioEncryption":  "AENC",
	"Language":         "TLAN",
	"Time":             "TIME",
	"OriginalFilename": "TOFN",
	"FileType":         "TFLT",
	"BandOrchestra":    "TPE2",
}

// FrameIDForEntry resolves a canonical entry name to a frame
// identifier. Names outside the canonical set are treated as literal
// frame identifiers and accepted when syntactically valid.
func FrameIDForEntry(name string) (string, bool) {
	if id, ok := entryFrames[name]; ok {
		return id, true
	}
	if ValidFrameID(name) {
		return name, true
	}
	return "", false
}
