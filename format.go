package audiotag

// Format identifies one supported tag format.
type Format int

const (
	FormatID3v1 Format = iota
	FormatID3v2
	FormatAPE
)

// Formats lists the supported formats in priority order, highest
// first: APE, then ID3v2, then ID3v1.
var Formats = []Format{FormatAPE, FormatID3v2, FormatID3v1}

func (f Format) String() string {
	switch f {
	case FormatID3v1:
		return "ID3v1"
	case FormatID3v2:
		return "ID3v2.3"
	case FormatAPE:
		return "APE"
	}
	return "unknown"
}
