package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avandyck/rostrum/internal/debate"
	rerrors "github.com/avandyck/rostrum/internal/errors"
)

// EncodeSnapshot renders a session as the canonical snapshot document:
// indented JSON in struct field order with a trailing newline. Encoding a
// decoded snapshot reproduces the original bytes, which keeps restored
// sessions from churning their files.
func EncodeSnapshot(s *debate.Session) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot parses a snapshot document. Malformed JSON is reported as
// corruption; structural problems are the caller's to check with
// debate.ValidateSnapshot.
func DecodeSnapshot(data []byte) (*debate.Session, error) {
	var s debate.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrSessionCorrupted, err)
	}
	return &s, nil
}

// atomicWriteFile writes data through a temp file in the target directory
// and renames it into place, so the target is never seen partially written.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	committed = true
	return nil
}
