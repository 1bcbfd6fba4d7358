package bits

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestReaderWriterRoundTrip(t *testing.T) {

	buf := make([]byte, 64)
	w := NewEncodeBuffer(buf, binary.LittleEndian)

	w.WriteByte(0xAB)
	w.PutUint16(1234)
	w.PutUint32(567890)
	w.PutUint64(123456789012345)
	w.PutFloat64(3.5)

	r := NewReader(bytes.NewReader(w.Bytes()), binary.LittleEndian)

	if v, err := r.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("ReadU8() = %d, %v; want 0xAB, nil", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 1234 {
		t.Fatalf("ReadU16() = %d, %v; want 1234, nil", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 567890 {
		t.Fatalf("ReadU32() = %d, %v; want 567890, nil", v, err)
	}
	if v, err := r.ReadU64(); err != nil || v != 123456789012345 {
		t.Fatalf("ReadU64() = %d, %v; want 123456789012345, nil", v, err)
	}
	if v, err := r.ReadF64(); err != nil || v != 3.5 {
		t.Fatalf("ReadF64() = %v, %v; want 3.5, nil", v, err)
	}
}

func TestReaderShortReadReturnsError(t *testing.T) {

	r := NewReader(bytes.NewReader([]byte{0x01}), binary.LittleEndian)

	if _, err := r.ReadU32(); err == nil {
		t.Error("expected an error reading 4 bytes from a 1-byte source")
	}
}

func TestReadBytes(t *testing.T) {

	r := NewReader(bytes.NewReader([]byte{1, 2, 3, 4, 5}), binary.LittleEndian)

	out := make([]byte, 3)
	if err := r.ReadBytes(3, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, []byte{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", out)
	}
}
