// Package clonecache gives a `--git-url` scan a deterministic,
// content-addressed-by-URL directory to clone into, so repeated scans
// of the same URL reuse the existing clone instead of re-fetching full
// history every run.
package clonecache

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CloneMode selects how a remote repository is cloned: a bare clone
// has no working tree (smaller, faster), a mirror additionally tracks
// every ref including ones git normally hides (notes, hidden refs).
type CloneMode string

const (
	CloneBare   CloneMode = "bare"
	CloneMirror CloneMode = "mirror"
)

// Cache maps repository URLs to deterministic local clone paths rooted
// at Root, cloning on demand with a bounded timeout.
type Cache struct {
	Root    string
	Mode    CloneMode
	Timeout time.Duration
}

// New creates a Cache rooted at root. A zero Timeout means no bound is
// applied to clone/fetch operations.
func New(root string, mode CloneMode, timeout time.Duration) *Cache {
	if mode == "" {
		mode = CloneBare
	}
	return &Cache{Root: root, Mode: mode, Timeout: timeout}
}

// GetOrClone returns the local path a repo URL is available at,
// cloning it into the cache first if necessary. Local paths are
// returned unchanged; there is nothing to cache.
func (c *Cache) GetOrClone(ctx context.Context, repoURL string) (string, error) {
	if repoURL == "" {
		return "", fmt.Errorf("repository URL is required")
	}

	if isLocalPath(repoURL) {
		return repoURL, nil
	}

	cachePath, err := c.clonePath(repoURL)
	if err != nil {
		return "", fmt.Errorf("determining clone path: %w", err)
	}

	if c.Exists(repoURL) {
		return cachePath, nil
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return "", fmt.Errorf("creating clone directory: %w", err)
	}

	cloneCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	args := []string{"clone", "--" + string(c.Mode), repoURL, cachePath}
	cmd := exec.CommandContext(cloneCtx, "git", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("cloning repository: %w (output: %s)", err, string(output))
	}

	return cachePath, nil
}

// Update fetches the latest refs for an already-cloned repository.
func (c *Cache) Update(ctx context.Context, repoURL string) error {
	if repoURL == "" {
		return fmt.Errorf("repository URL is required")
	}
	if isLocalPath(repoURL) {
		return nil
	}

	cachePath, err := c.clonePath(repoURL)
	if err != nil {
		return fmt.Errorf("determining clone path: %w", err)
	}
	if !c.Exists(repoURL) {
		return fmt.Errorf("clone does not exist: %s", cachePath)
	}

	fetchCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(fetchCtx, "git", "-C", cachePath, "fetch", "--all")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("fetching updates: %w (output: %s)", err, string(output))
	}
	return nil
}

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

// Exists reports whether repoURL already has a usable cached clone.
func (c *Cache) Exists(repoURL string) bool {
	if repoURL == "" {
		return false
	}
	if isLocalPath(repoURL) {
		_, err := os.Stat(repoURL)
		return err == nil
	}

	cachePath, err := c.clonePath(repoURL)
	if err != nil {
		return false
	}

	info, err := os.Stat(cachePath)
	if err != nil || !info.IsDir() {
		return false
	}

	_, err = os.Stat(filepath.Join(cachePath, "refs"))
	return err == nil
}

// clonePath deterministically maps a repo URL to a path under Root:
// https://github.com/org/repo -> Root/github.com/org/repo.git
func (c *Cache) clonePath(repoURL string) (string, error) {
	var host, path string

	if strings.HasPrefix(repoURL, "git@") {
		parts := strings.SplitN(strings.TrimPrefix(repoURL, "git@"), ":", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("invalid SSH URL format: %s", repoURL)
		}
		host, path = parts[0], parts[1]
	} else {
		parsed, err := url.Parse(repoURL)
		if err != nil {
			return "", fmt.Errorf("parsing repository URL: %w", err)
		}
		if parsed.Host == "" {
			return "", fmt.Errorf("invalid repository URL (missing host): %s", repoURL)
		}
		host = parsed.Host
		path = strings.TrimPrefix(parsed.Path, "/")
	}

	path = strings.TrimSuffix(path, ".git") + ".git"
	return filepath.Join(c.Root, host, path), nil
}

// isLocalPath distinguishes a filesystem path from a clonable URL.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if filepath.IsAbs(path) {
		return true
	}
	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return true
	}
	if strings.Contains(path, "://") || strings.HasPrefix(path, "git@") {
		return false
	}
	return true
}
