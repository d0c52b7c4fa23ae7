package osfilesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	testPath := filepath.Join(t.TempDir(), "test.mp4")
	testData := []byte("hello world")

	if err := fs.WriteFile(testPath, testData); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(testPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	testPath := filepath.Join(t.TempDir(), "a", "b", "c", "test.mp4")

	if err := fs.WriteFile(testPath, []byte("test")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	exists, err := fs.Exists(testPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}
}

func TestFileSystem_WriteFileLeavesNoTempFiles(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	testPath := filepath.Join(dir, "test.mp4")

	if err := fs.WriteFile(testPath, []byte("first")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.WriteFile(testPath, []byte("second")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(entries))
	}
	if strings.Contains(entries[0].Name(), ".partial-") {
		t.Errorf("temp file left behind: %s", entries[0].Name())
	}

	data, _ := fs.ReadFile(testPath)
	if string(data) != "second" {
		t.Errorf("expected replaced contents, got %q", data)
	}
}

func TestFileSystem_WriteFileIntoMissingReadOnlyParent(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	fs := New()
	dir := t.TempDir()
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	defer os.Chmod(dir, 0755)

	target := filepath.Join(dir, "test.mp4")
	if err := fs.WriteFile(target, []byte("data")); err == nil {
		t.Fatal("expected error writing into read-only directory")
	}
	if exists, _ := fs.Exists(target); exists {
		t.Error("target must not exist after failed write")
	}
}

func TestFileSystem_Exists(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	testPath := filepath.Join(dir, "test.txt")
	os.WriteFile(testPath, []byte("test"), 0644)

	exists, err := fs.Exists(testPath)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}

	exists, err = fs.Exists(filepath.Join(dir, "nonexistent.txt"))
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected file to not exist")
	}
}

func TestFileSystem_Remove(t *testing.T) {
	fs := New()
	testPath := filepath.Join(t.TempDir(), "test.txt")
	os.WriteFile(testPath, []byte("test"), 0644)

	if err := fs.Remove(testPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(testPath); exists {
		t.Error("expected file to be removed")
	}

	// Removing again is a no-op
	if err := fs.Remove(testPath); err != nil {
		t.Errorf("Remove of missing file returned %v", err)
	}
}
