package binio

import (
	"bytes"
	"testing"
)

func TestReader_Integers(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A})

	if v, err := r.Uint16BE(); err != nil || v != 0x0102 {
		t.Errorf("Uint16BE() = %#x, %v, want 0x102, nil", v, err)
	}
	if v, err := r.Uint32BE(); err != nil || v != 0x03040506 {
		t.Errorf("Uint32BE() = %#x, %v, want 0x3040506, nil", v, err)
	}
	if v, err := r.Uint32LE(); err != nil || v != 0x0A090807 {
		t.Errorf("Uint32LE() = %#x, %v, want 0xa090807, nil", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReader_ShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.Uint32BE(); err == nil {
		t.Error("Uint32BE() on 2-byte buffer succeeded, want error")
	}
	// The cursor must not move on a failed read.
	if r.Offset() != 0 {
		t.Errorf("Offset() after failed read = %d, want 0", r.Offset())
	}
	if v, err := r.Uint16BE(); err != nil || v != 0x0102 {
		t.Errorf("Uint16BE() = %#x, %v, want 0x102, nil", v, err)
	}
}

func TestReader_SeekSkip(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	if err := r.Skip(2); err != nil {
		t.Fatalf("Skip(2): %v", err)
	}
	if r.Offset() != 2 {
		t.Errorf("Offset() = %d, want 2", r.Offset())
	}
	if err := r.Skip(3); err == nil {
		t.Error("Skip(3) past end succeeded, want error")
	}
	if err := r.Seek(4); err != nil {
		t.Errorf("Seek(4): %v", err)
	}
	if err := r.Seek(5); err == nil {
		t.Error("Seek(5) past end succeeded, want error")
	}
	if err := r.Seek(-1); err == nil {
		t.Error("Seek(-1) succeeded, want error")
	}
}

func TestReader_CString(t *testing.T) {
	r := NewReader([]byte("Title\x00rest"))
	s, err := r.CString(64)
	if err != nil {
		t.Fatalf("CString(64): %v", err)
	}
	if s != "Title" {
		t.Errorf("CString(64) = %q, want %q", s, "Title")
	}
	if r.Offset() != 6 {
		t.Errorf("Offset() = %d, want 6", r.Offset())
	}
}

func TestReader_CStringUnterminated(t *testing.T) {
	r := NewReader([]byte("no terminator"))
	if _, err := r.CString(64); err == nil {
		t.Error("CString(64) on unterminated buffer succeeded, want error")
	}
	r = NewReader([]byte("long\x00"))
	if _, err := r.CString(3); err == nil {
		t.Error("CString(3) with terminator past max succeeded, want error")
	}
}

func TestSynchsafe(t *testing.T) {
	tests := []struct {
		bytes [4]byte
		want  uint32
	}{
		{[4]byte{0x00, 0x00, 0x00, 0x00}, 0},
		{[4]byte{0x00, 0x00, 0x02, 0x01}, 257},
		{[4]byte{0x00, 0x00, 0x7F, 0x7F}, 0x3FFF},
		{[4]byte{0x7F, 0x7F, 0x7F, 0x7F}, 1<<28 - 1},
	}
	for _, tt := range tests {
		got := DecodeSynchsafe(tt.bytes[0], tt.bytes[1], tt.bytes[2], tt.bytes[3])
		if got != tt.want {
			t.Errorf("DecodeSynchsafe(% x) = %d, want %d", tt.bytes, got, tt.want)
		}

		w := NewWriter()
		if err := w.PutSynchsafe32(tt.want); err != nil {
			t.Fatalf("PutSynchsafe32(%d): %v", tt.want, err)
		}
		if !bytes.Equal(w.Bytes(), tt.bytes[:]) {
			t.Errorf("PutSynchsafe32(%d) = % x, want % x", tt.want, w.Bytes(), tt.bytes)
		}
	}
}

func TestPutSynchsafe32_Overflow(t *testing.T) {
	w := NewWriter()
	if err := w.PutSynchsafe32(1 << 28); err == nil {
		t.Error("PutSynchsafe32(1<<28) succeeded, want error")
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutByte(0xAB)
	w.PutUint16BE(0x0102)
	w.PutUint32BE(0x03040506)
	w.PutUint32LE(0x0708090A)
	w.PutCString("key")
	w.PutZeros(2)

	r := NewReader(w.Bytes())
	if v, _ := r.Byte(); v != 0xAB {
		t.Errorf("Byte() = %#x, want 0xab", v)
	}
	if v, _ := r.Uint16BE(); v != 0x0102 {
		t.Errorf("Uint16BE() = %#x, want 0x102", v)
	}
	if v, _ := r.Uint32BE(); v != 0x03040506 {
		t.Errorf("Uint32BE() = %#x, want 0x3040506", v)
	}
	if v, _ := r.Uint32LE(); v != 0x0708090A {
		t.Errorf("Uint32LE() = %#x, want 0x708090a", v)
	}
	if s, err := r.CString(8); err != nil || s != "key" {
		t.Errorf("CString(8) = %q, %v, want %q, nil", s, err, "key")
	}
	if r.Remaining() != 2 {
		t.Errorf("Remaining() = %d, want 2", r.Remaining())
	}
}
