package logging

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRotatingWriter_BasicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 10})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer rw.Close()

	msg := []byte("hello log\n")
	n, err := rw.Write(msg)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(msg) {
		t.Errorf("Write() = %d bytes, want %d", n, len(msg))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if string(data) != "hello log\n" {
		t.Errorf("log contents = %q, want %q", data, "hello log\n")
	}
}

func TestRotatingWriter_RotationDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 0})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer rw.Close()

	// Write well past any plausible limit; no rotation should occur.
	chunk := bytes.Repeat([]byte("x"), 1024)
	for i := 0; i < 100; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("backup file exists, rotation should be disabled")
	}
}

// smallRotatingWriter builds a writer with a tiny max size by setting the
// byte limit directly, since RotationConfig is expressed in megabytes.
func smallRotatingWriter(t *testing.T, path string, maxBytes int64, backups int, compress bool) *RotatingWriter {
	t.Helper()

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: backups, Compress: compress})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	rw.maxSizeB = maxBytes
	return rw
}

func TestRotatingWriter_Rotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw := smallRotatingWriter(t, path, 64, 2, false)
	defer rw.Close()

	line := []byte(strings.Repeat("a", 40) + "\n")
	// Third write pushes past the 64-byte limit twice over.
	for i := 0; i < 3; i++ {
		if _, err := rw.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected backup file after rotation: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected active log file after rotation: %v", err)
	}
}

func TestRotatingWriter_MaxBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw := smallRotatingWriter(t, path, 32, 2, false)
	defer rw.Close()

	line := []byte(strings.Repeat("b", 30) + "\n")
	for i := 0; i < 6; i++ {
		if _, err := rw.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected .1 backup: %v", err)
	}
	if _, err := os.Stat(path + ".2"); err != nil {
		t.Errorf("expected .2 backup: %v", err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error(".3 backup should not exist with MaxBackups=2")
	}
}

func TestRotatingWriter_Compression(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw := smallRotatingWriter(t, path, 32, 2, true)
	defer rw.Close()

	line := []byte(strings.Repeat("c", 30) + "\n")
	for i := 0; i < 3; i++ {
		if _, err := rw.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	// Compression runs asynchronously; poll briefly for the .gz file.
	gzPath := path + ".1.gz"
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(gzPath); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	f, err := os.Open(gzPath)
	if err != nil {
		t.Fatalf("expected compressed backup: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("reading compressed backup: %v", err)
	}
	if !strings.Contains(string(data), "ccc") {
		t.Errorf("compressed backup missing content, got %q", data)
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := rw.Write([]byte("after close")); err == nil {
		t.Error("Write() after Close() should fail")
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw := smallRotatingWriter(t, path, 256, 3, false)
	defer rw.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				rw.Write([]byte("concurrent write line\n"))
			}
		}()
	}
	wg.Wait()

	// The active file must still be writable and consistent.
	if _, err := rw.Write([]byte("final\n")); err != nil {
		t.Errorf("Write() after concurrent load error = %v", err)
	}
}

func TestRotatingWriter_CurrentSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer rw.Close()

	rw.Write([]byte("12345"))
	if got := rw.CurrentSize(); got != 5 {
		t.Errorf("CurrentSize() = %d, want 5", got)
	}
	if got := rw.FilePath(); got != path {
		t.Errorf("FilePath() = %q, want %q", got, path)
	}
}
