package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRealFS_ValidateIdentifier(t *testing.T) {
	fs := &RealFS{}

	tests := []struct {
		name      string
		id        string
		wantError bool
	}{
		{"simple protocol name", "hn-rapidplan", false},
		{"underscores and digits", "hn_rapidplan_2", false},
		{"empty identifier", "", true},
		{"current directory", ".", true},
		{"parent directory", "..", true},
		{"parent prefix", "..hidden", true},
		{"path with separator", "site/hn", true},
		{"path with backslash", "site\\hn", true},
		{"absolute path", "/etc/hosts", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.ValidateIdentifier(tt.id)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantError %v", tt.id, err, tt.wantError)
			}
		})
	}
}

func TestRealFS_Exists(t *testing.T) {
	fs := NewRealFS()
	dir := t.TempDir()

	path := filepath.Join(dir, "structures.yaml")
	if err := os.WriteFile(path, []byte("patient: x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	exists, err := fs.Exists(path)
	if err != nil || !exists {
		t.Errorf("Exists(%s) = %v, %v; want true, nil", path, exists, err)
	}

	exists, err = fs.Exists(filepath.Join(dir, "missing.yaml"))
	if err != nil || exists {
		t.Errorf("Exists(missing) = %v, %v; want false, nil", exists, err)
	}
}

func TestRealFS_AtomicWrite(t *testing.T) {
	fs := NewRealFS()
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "run.json")

	t.Run("creates parent directories and writes content", func(t *testing.T) {
		if err := fs.AtomicWrite(path, []byte(`{"outcome":"done"}`), 0644); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		data, err := fs.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != `{"outcome":"done"}` {
			t.Errorf("unexpected content: %s", data)
		}
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		if err := fs.AtomicWrite(path, []byte(`{"outcome":"failed"}`), 0600); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		data, _ := fs.ReadFile(path)
		if string(data) != `{"outcome":"failed"}` {
			t.Errorf("unexpected content: %s", data)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the target file, got %d entries", len(entries))
		}
	})
}

func TestRealFS_ReadFileMissing(t *testing.T) {
	_, err := NewRealFS().ReadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Errorf("ReadFile() error = %v, want not-exist", err)
	}
}
