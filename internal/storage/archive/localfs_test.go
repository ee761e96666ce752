package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(filepath.Join(dir, "public", "data"))
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"total_count":1}`)

	if err := fs.Write(ctx, "global_assets.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "public", "data", "global_assets.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "funds.json", []byte("first"))
	if err := fs.Write(ctx, "funds.json", []byte("second")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, "funds.json"))
	if string(got) != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, got %d entries", len(entries))
	}
}

func TestLocalFS_WriteCreatesNestedDirs(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)

	if err := fs.Write(context.Background(), "nested/exists.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested", "exists.json")); err != nil {
		t.Errorf("expected nested file to exist: %v", err)
	}
}

func TestLocalFS_WriteCancelled(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fs.Write(ctx, "funds.json", []byte("{}")); err == nil {
		t.Error("expected error for cancelled context")
	}
}
