package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 10), 0600); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), make([]byte, 5), 0600); err != nil {
		t.Fatal(err)
	}

	n, err := DiskUsageBytes(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 15 {
		t.Errorf("total = %d, want 15", n)
	}

	n, err = DiskUsageBytes(filepath.Join(dir, "missing"), "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("missing paths should contribute 0, got %d", n)
	}
}
