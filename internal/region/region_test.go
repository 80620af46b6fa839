package region

import (
	"bytes"
	"testing"

	"github.com/llehouerou/audiotag/internal/binio"
)

// fixture concatenates file pieces into a ReaderAt.
func fixture(pieces ...[]byte) (*bytes.Reader, int64) {
	all := bytes.Join(pieces, nil)
	return bytes.NewReader(all), int64(len(all))
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xA5
	}
	return b
}

func id3v1Trailer() []byte {
	b := make([]byte, ID3v1Size)
	copy(b, "TAG")
	b[127] = 255
	return b
}

// id3v2Block builds a tag of the given declared size (padding only).
func id3v2Block(t *testing.T, declared uint32) []byte {
	t.Helper()
	w := binio.NewWriter()
	w.PutBytes([]byte("ID3"))
	w.PutByte(3)
	w.PutByte(0)
	w.PutByte(0)
	if err := w.PutSynchsafe32(declared); err != nil {
		t.Fatal(err)
	}
	w.PutZeros(int(declared))
	return w.Bytes()
}

// apeBlock builds a footer-only tag holding nothing but itemBytes.
func apeBlock(itemBytes int) []byte {
	w := binio.NewWriter()
	w.PutZeros(itemBytes)
	w.PutBytes([]byte("APETAGEX"))
	w.PutUint32LE(2000)
	w.PutUint32LE(uint32(itemBytes))
	w.PutUint32LE(0)
	w.PutUint32LE(0)
	w.PutZeros(8)
	return w.Bytes()
}

func TestScan_NoTags(t *testing.T) {
	r, size := fixture(payload(512))
	l := Scan(r, size)
	if l.ID3v1 != nil || l.ID3v2 != nil || l.APE != nil {
		t.Errorf("Scan found tags in bare payload: %+v", l)
	}
	if l.ID3v1Err != nil || l.ID3v2Err != nil || l.APEErr != nil {
		t.Errorf("Scan reported errors on bare payload: %+v", l)
	}
}

func TestScan_TinyFile(t *testing.T) {
	r, size := fixture(payload(16))
	l := Scan(r, size)
	if l.ID3v1 != nil || l.ID3v2 != nil || l.APE != nil {
		t.Errorf("Scan found tags in 16-byte file: %+v", l)
	}
}

func TestScan_ID3v1Only(t *testing.T) {
	r, size := fixture(payload(512), id3v1Trailer())
	l := Scan(r, size)
	if l.ID3v1 == nil {
		t.Fatal("ID3v1 not found")
	}
	if l.ID3v1.Off != 512 || l.ID3v1.Len != ID3v1Size {
		t.Errorf("ID3v1 region = %+v, want {512 128}", l.ID3v1)
	}
}

func TestScan_ID3v2Only(t *testing.T) {
	r, size := fixture(id3v2Block(t, 100), payload(512))
	l := Scan(r, size)
	if l.ID3v2 == nil {
		t.Fatal("ID3v2 not found")
	}
	if l.ID3v2.Off != 0 || l.ID3v2.Len != 110 {
		t.Errorf("ID3v2 region = %+v, want {0 110}", l.ID3v2)
	}
}

func TestScan_AllThree(t *testing.T) {
	ape := apeBlock(24)
	r, size := fixture(id3v2Block(t, 64), payload(512), ape, id3v1Trailer())
	l := Scan(r, size)
	if l.ID3v2 == nil || l.APE == nil || l.ID3v1 == nil {
		t.Fatalf("Scan = %+v, want all three regions", l)
	}
	if l.ID3v2.End() != 74 {
		t.Errorf("ID3v2 end = %d, want 74", l.ID3v2.End())
	}
	if l.APE.Off != 74+512 || l.APE.Len != int64(len(ape)) {
		t.Errorf("APE region = %+v, want {%d %d}", l.APE, 74+512, len(ape))
	}
	if l.ID3v1.Off != l.APE.End() {
		t.Errorf("ID3v1 off = %d, want %d", l.ID3v1.Off, l.APE.End())
	}
}

func TestScan_APEWithoutID3v1(t *testing.T) {
	ape := apeBlock(16)
	r, size := fixture(payload(256), ape)
	l := Scan(r, size)
	if l.APE == nil {
		t.Fatal("APE not found")
	}
	if l.APE.Off != 256 {
		t.Errorf("APE off = %d, want 256", l.APE.Off)
	}
}

func TestScan_ID3v2UnsupportedVersion(t *testing.T) {
	block := id3v2Block(t, 16)
	block[3] = 4
	r, size := fixture(block, payload(64))
	l := Scan(r, size)
	if l.ID3v2 != nil {
		t.Error("ID3v2 region located despite unsupported version")
	}
	if l.ID3v2Err == nil {
		t.Error("ID3v2Err = nil, want unsupported-version error")
	}
}

func TestScan_ID3v2SizePastEOF(t *testing.T) {
	w := binio.NewWriter()
	w.PutBytes([]byte("ID3"))
	w.PutByte(3)
	w.PutByte(0)
	w.PutByte(0)
	if err := w.PutSynchsafe32(1 << 20); err != nil {
		t.Fatal(err)
	}
	r, size := fixture(w.Bytes(), payload(32))
	l := Scan(r, size)
	if l.ID3v2 != nil {
		t.Error("ID3v2 region located despite size past end of file")
	}
	if l.ID3v2Err == nil {
		t.Error("ID3v2Err = nil, want error")
	}
}

func TestScan_ID3v2OverlappingTrailer(t *testing.T) {
	// Declared ID3v2 size swallows the ID3v1 trailer. Trailer formats
	// are end-anchored and trusted; the ID3v2 region is dropped.
	block := id3v2Block(t, 512)
	trailer := id3v1Trailer()
	head := block[:len(block)-ID3v1Size]
	r, size := fixture(head, trailer)
	l := Scan(r, size)
	if l.ID3v1 == nil {
		t.Fatal("ID3v1 not found")
	}
	if l.ID3v2 != nil {
		t.Error("overlapping ID3v2 region kept, want dropped")
	}
	if l.ID3v2Err == nil {
		t.Error("ID3v2Err = nil, want overlap error")
	}
}

func TestScan_APEReachingIntoID3v2(t *testing.T) {
	// The APE size field reaches back across the payload into an
	// independently valid ID3v2 region. The ID3v2 region wins and the
	// APE region is dropped with an error.
	block := id3v2Block(t, 12)
	w := binio.NewWriter()
	w.PutBytes([]byte("APETAGEX"))
	w.PutUint32LE(2000)
	w.PutUint32LE(110)
	w.PutUint32LE(0)
	w.PutUint32LE(0)
	w.PutZeros(8)
	r, size := fixture(block, payload(100), w.Bytes())
	l := Scan(r, size)
	if l.ID3v2 == nil || l.ID3v2.End() != int64(len(block)) {
		t.Fatalf("ID3v2 region = %+v, want end %d", l.ID3v2, len(block))
	}
	if l.APE != nil {
		t.Error("APE region kept despite reaching into the ID3v2 region")
	}
	if l.APEErr == nil {
		t.Error("APEErr = nil, want overlap error")
	}
}

func TestScan_APESizeBeforeStart(t *testing.T) {
	w := binio.NewWriter()
	w.PutBytes([]byte("APETAGEX"))
	w.PutUint32LE(2000)
	w.PutUint32LE(1 << 16) // reaches before offset 0
	w.PutUint32LE(0)
	w.PutUint32LE(0)
	w.PutZeros(8)
	r, size := fixture(payload(64), w.Bytes())
	l := Scan(r, size)
	if l.APE != nil {
		t.Error("APE region located despite size before start of file")
	}
	if l.APEErr == nil {
		t.Error("APEErr = nil, want error")
	}
}
