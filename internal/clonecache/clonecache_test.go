package clonecache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClonePath_HTTPSURL(t *testing.T) {
	c := New(t.TempDir(), CloneBare, 0)
	path, err := c.clonePath("https://github.com/org/repo")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root, "github.com", "org", "repo.git"), path)
}

func TestClonePath_HTTPSURLWithGitSuffix(t *testing.T) {
	c := New(t.TempDir(), CloneBare, 0)
	path, err := c.clonePath("https://github.com/org/repo.git")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root, "github.com", "org", "repo.git"), path)
}

func TestClonePath_SSHURL(t *testing.T) {
	c := New(t.TempDir(), CloneBare, 0)
	path, err := c.clonePath("git@github.com:org/repo.git")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root, "github.com", "org", "repo.git"), path)
}

func TestClonePath_InvalidSSHURL(t *testing.T) {
	c := New(t.TempDir(), CloneBare, 0)
	_, err := c.clonePath("git@missing-colon")
	assert.Error(t, err)
}

func TestClonePath_MissingHost(t *testing.T) {
	c := New(t.TempDir(), CloneBare, 0)
	_, err := c.clonePath("file:///just/a/path")
	assert.Error(t, err)
}

func TestIsLocalPath(t *testing.T) {
	assert.True(t, isLocalPath("/abs/path"))
	assert.True(t, isLocalPath("./relative"))
	assert.True(t, isLocalPath("../relative"))
	assert.False(t, isLocalPath("https://github.com/org/repo"))
	assert.False(t, isLocalPath("git@github.com:org/repo.git"))
	assert.True(t, isLocalPath("bare-relative-path"))
	assert.False(t, isLocalPath(""))
}

func TestGetOrClone_LocalPathReturnsUnchanged(t *testing.T) {
	c := New(t.TempDir(), CloneBare, 0)
	dir := t.TempDir()

	path, err := c.GetOrClone(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, path)
}

func TestExists_FalseForUnclonedURL(t *testing.T) {
	c := New(t.TempDir(), CloneBare, 0)
	assert.False(t, c.Exists("https://github.com/org/never-cloned"))
}

func TestNew_DefaultsModeToBare(t *testing.T) {
	c := New(t.TempDir(), "", time.Second)
	assert.Equal(t, CloneBare, c.Mode)
}
