// Package cache provides input fingerprinting so that generation can be skipped
// when neither the specification files nor the configuration changed.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FileHasher computes content hashes for cache keys
type FileHasher struct{}

// NewFileHasher creates a new file hasher
func NewFileHasher() *FileHasher {
	return &FileHasher{}
}

// HashFile computes an xxhash of the file contents
func (fh *FileHasher) HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fh.HashContent(content), nil
}

// HashContent computes an xxhash of the given content
func (fh *FileHasher) HashContent(content []byte) string {
	return format(xxhash.Sum64(content))
}

// HashString computes an xxhash of the given string
func (fh *FileHasher) HashString(content string) string {
	return format(xxhash.Sum64String(content))
}

func format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// Fingerprint hashes the contents of files, visited in sorted path order, together
// with salt. Each file contributes its path and content hash, so renames and
// reorderings in the argument list are handled consistently.
func Fingerprint(files []string, salt string) (string, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	fh := NewFileHasher()
	var manifest strings.Builder
	manifest.WriteString(salt)
	manifest.WriteString("\x00")
	for _, path := range sorted {
		sum, err := fh.HashFile(path)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
		manifest.WriteString(filepath.ToSlash(path))
		manifest.WriteString("\x00")
		manifest.WriteString(sum)
		manifest.WriteString("\x00")
	}
	manifest.WriteString(strconv.Itoa(len(sorted)))
	return fh.HashString(manifest.String()), nil
}

// Store persists the last fingerprint in a single file.
type Store struct {
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored fingerprint, or "" if none was stored yet.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save stores fingerprint, creating parent directories as needed.
func (s *Store) Save(fingerprint string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(fingerprint+"\n"), 0o644)
}

// Matches reports whether fingerprint equals the stored one.
func (s *Store) Matches(fingerprint string) (bool, error) {
	stored, err := s.Load()
	if err != nil {
		return false, err
	}
	return stored != "" && stored == fingerprint, nil
}

// Clear removes the stored fingerprint.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
