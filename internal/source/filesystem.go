package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// FilesystemAdapter walks a directory tree and yields every eligible
// file as a blob. Binary files are skipped unless archive extraction
// is enabled for their extension.
type FilesystemAdapter struct {
	root   string
	limits Limits
}

// NewFilesystemAdapter builds an adapter rooted at root.
func NewFilesystemAdapter(root string, limits Limits) *FilesystemAdapter {
	return &FilesystemAdapter{root: root, limits: limits}
}

type fileEntry struct {
	path string
}

// Enumerate walks the tree in a first, sequential pass (cheap stat
// calls only), then reads and processes the collected files across
// GOMAXPROCS goroutines, a two-phase shape that keeps the
// slow part (file reads plus regex work downstream) parallel while the
// walk itself, which is already fast, stays simple.
func (a *FilesystemAdapter) Enumerate(ctx context.Context, callback Callback) error {
	var ignore *gitignore.GitIgnore
	if gi, err := gitignore.CompileIgnoreFile(filepath.Join(a.root, ".gitignore")); err == nil {
		ignore = gi
	}

	var files []fileEntry
	err := filepath.Walk(a.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if !a.limits.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 && !a.limits.FollowSymlinks {
			return nil
		}
		if !a.limits.IncludeHidden && isHidden(info.Name()) {
			return nil
		}
		if a.limits.MaxFileSize > 0 && info.Size() > a.limits.MaxFileSize {
			return nil
		}
		if ignore != nil {
			if rel, relErr := filepath.Rel(a.root, path); relErr == nil && ignore.MatchesPath(rel) {
				return nil
			}
		}
		if matchesAnyGlob(path, a.limits.ExcludeGlobs) {
			return nil
		}

		files = append(files, fileEntry{path: path})
		return nil
	})
	if err != nil {
		return &types.SourceFetchError{Target: a.root, Err: err}
	}

	numReaders := runtime.NumCPU()
	if numReaders < 1 {
		numReaders = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan fileEntry, numReaders*2)

	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for f := range pathsCh {
				if err := a.processFile(ctx, f.path, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

func (a *FilesystemAdapter) processFile(ctx context.Context, path string, callback Callback) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return &types.BlobReadError{Path: path, Err: err}
	}

	if isBinary(content) {
		if a.limits.ExtractArchives == "" {
			return nil
		}
		ext := extensionOf(path)
		if !shouldExtract(a.limits.ExtractArchives, ext) {
			return nil
		}
		members, err := ExtractText(path, content, a.limits.ExtractionDepth)
		if err != nil || len(members) == 0 {
			return nil
		}
		for _, member := range members {
			blobID := types.ComputeBlobID(member.Content)
			origin := types.ArchiveOrigin{ArchivePath: path, MemberPath: member.Name}
			if err := callback(member.Content, blobID, origin); err != nil {
				return err
			}
		}
		return nil
	}

	blobID := types.ComputeBlobID(content)
	return callback(content, blobID, types.FileOrigin{FilePath: path})
}

func shouldExtract(extractArchives, ext string) bool {
	if extractArchives == "" {
		return false
	}
	if extractArchives == "all" {
		return true
	}
	for _, t := range strings.Split(strings.ToLower(extractArchives), ",") {
		if strings.TrimSpace(t) == strings.TrimPrefix(ext, ".") {
			return true
		}
	}
	return false
}

func matchesAnyGlob(path string, globs []string) bool {
	base := filepath.Base(path)
	for _, g := range globs {
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
		if ok, _ := filepath.Match(g, path); ok {
			return true
		}
	}
	return false
}

// isHidden reports whether name starts with "." (excluding "." and "..").
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isBinary detects binary content by checking the first 8KiB for a NUL
// byte, the same heuristic git itself uses.
func isBinary(content []byte) bool {
	checkSize := len(content)
	if checkSize > 8192 {
		checkSize = 8192
	}
	return bytes.IndexByte(content[:checkSize], 0) != -1
}

func extensionOf(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") {
		return ".tar.gz"
	}
	return strings.ToLower(filepath.Ext(path))
}
