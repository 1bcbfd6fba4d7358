package diskio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMappedReadAt(t *testing.T) {

	path := filepath.Join(t.TempDir(), "mapped.vxr")
	if err := os.WriteFile(path, []byte("VXR_\x03hello"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	m, err := OpenMapped(path)
	if err != nil {
		t.Fatalf("open mapped: %v", err)
	}
	defer m.Close()

	if m.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", m.Len())
	}

	out := make([]byte, 4)
	if err := m.ReadAt(out, 0); err != nil {
		t.Fatalf("read at: %v", err)
	}
	if !bytes.Equal(out, []byte("VXR_")) {
		t.Fatalf("got %q, want %q", out, "VXR_")
	}
}
