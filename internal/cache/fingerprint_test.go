package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHasher_HashContent(t *testing.T) {
	hasher := NewFileHasher()

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty content", content: []byte("")},
		{name: "simple content", content: []byte("hello world")},
		{name: "specification", content: []byte("name: petstore\nversions: []\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hasher.HashContent(tt.content)
			assert.Len(t, result, 16)
			assert.Equal(t, result, hasher.HashContent(tt.content))
			assert.Equal(t, result, hasher.HashString(string(tt.content)))
		})
	}

	assert.Equal(t, "ef46db3751d8e999", hasher.HashContent(nil))
}

func TestFileHasher_HashFile(t *testing.T) {
	hasher := NewFileHasher()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	content := []byte("name: petstore\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sum, err := hasher.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hasher.HashContent(content), sum)

	_, err = hasher.HashFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("name: a\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("name: b\n"), 0o644))

	first, err := Fingerprint([]string{a, b}, "summary")
	require.NoError(t, err)

	reordered, err := Fingerprint([]string{b, a}, "summary")
	require.NoError(t, err)
	assert.Equal(t, first, reordered)

	salted, err := Fingerprint([]string{a, b}, "json")
	require.NoError(t, err)
	assert.NotEqual(t, first, salted)

	fewer, err := Fingerprint([]string{a}, "summary")
	require.NoError(t, err)
	assert.NotEqual(t, first, fewer)

	require.NoError(t, os.WriteFile(b, []byte("name: b2\n"), 0o644))
	changed, err := Fingerprint([]string{a, b}, "summary")
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestFingerprintHashesManifest(t *testing.T) {
	hasher := NewFileHasher()
	path := filepath.Join(t.TempDir(), "a.yaml")
	content := []byte("name: a\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sum, err := Fingerprint([]string{path}, "summary|yaml")
	require.NoError(t, err)

	manifest := "summary|yaml\x00" + filepath.ToSlash(path) + "\x00" + hasher.HashContent(content) + "\x001"
	assert.Equal(t, hasher.HashString(manifest), sum)
}

func TestStore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), ".conceptgen", "fingerprint"))

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)

	ok, err := store.Matches("abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save("abc"))
	ok, err = store.Matches("abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Matches("def")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	stored, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}
