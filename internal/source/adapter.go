// Package source discovers content to scan and hands it to the
// orchestrator one blob at a time. Every adapter implements the same
// narrow contract regardless of where it reads from: a local
// directory, a git repository's full history, or an archive buried
// inside either of those.
package source

import (
	"context"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// Callback receives one blob's content, its content-addressed id, and
// the origin it was found under. Adapters call it once per blob; the
// orchestrator is responsible for dedup, matching, and recording.
type Callback func(content []byte, blobID types.BlobID, origin types.Origin) error

// Adapter discovers content from a single source and streams it to
// callback. Enumerate must respect ctx cancellation promptly: a
// cancelled scan should stop producing new blobs within one unit of
// work (one file, one git object, one archive member).
type Adapter interface {
	Enumerate(ctx context.Context, callback Callback) error
}

// Limits bounds what an adapter will read, shared across every
// concrete adapter in this package.
type Limits struct {
	// MaxFileSize skips any single blob larger than this many bytes.
	// 0 means no limit.
	MaxFileSize int64

	// IncludeHidden controls whether dotfiles/dot-directories are
	// walked at all.
	IncludeHidden bool

	// FollowSymlinks controls whether symlinked files are read.
	FollowSymlinks bool

	// ExcludeGlobs are additional path-glob exclusions layered on top
	// of any .gitignore found at the root (filesystem adapter only).
	ExcludeGlobs []string

	// ExtractArchives enables archive-member extraction for the given
	// comma-separated extensions, or "all". Empty disables extraction.
	ExtractArchives string

	// ExtractionDepth bounds how many nested archives (e.g. a zip
	// inside a zip) are followed.
	ExtractionDepth int
}
