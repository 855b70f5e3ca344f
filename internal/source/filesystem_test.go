package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFilesystemAdapter_YieldsTextFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")
	writeFile(t, dir, "sub/b.txt", "world")

	adapter := NewFilesystemAdapter(dir, Limits{})
	var names []string
	err := adapter.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, origin types.Origin) error {
		names = append(names, origin.Path())
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestFilesystemAdapter_SkipsHiddenByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".hidden/a.txt", "secret")
	writeFile(t, dir, "visible.txt", "ok")

	adapter := NewFilesystemAdapter(dir, Limits{})
	var count int
	err := adapter.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, origin types.Origin) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFilesystemAdapter_SkipsBinaryWithoutExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.dat")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 'a', 'b'}, 0o644))

	adapter := NewFilesystemAdapter(dir, Limits{})
	var count int
	err := adapter.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, origin types.Origin) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFilesystemAdapter_RespectsMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.txt", "hi")
	writeFile(t, dir, "big.txt", "this file is much larger than the limit allows")

	adapter := NewFilesystemAdapter(dir, Limits{MaxFileSize: 5})
	var names []string
	err := adapter.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, origin types.Origin) error {
		names = append(names, origin.Path())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "small.txt")}, names)
}

func TestFilesystemAdapter_RespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "ignored.txt\n")
	writeFile(t, dir, "ignored.txt", "should not appear")
	writeFile(t, dir, "kept.txt", "should appear")

	adapter := NewFilesystemAdapter(dir, Limits{})
	var names []string
	err := adapter.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, origin types.Origin) error {
		names = append(names, origin.Path())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "kept.txt")}, names)
}

func TestFilesystemAdapter_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, dir, filepath.Join("f", string(rune('a'+i))+".txt"), "content")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := NewFilesystemAdapter(dir, Limits{})
	err := adapter.Enumerate(ctx, func(content []byte, blobID types.BlobID, origin types.Origin) error {
		return nil
	})
	assert.Error(t, err)
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary([]byte("plain text")))
	assert.True(t, isBinary([]byte{'a', 0x00, 'b'}))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".git"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
	assert.False(t, isHidden("visible"))
}
