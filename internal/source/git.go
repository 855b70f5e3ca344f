package source

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// GitAdapter enumerates every blob ever committed to a repository's
// history. When the git binary is on PATH it shells out to
// `rev-list`/`cat-file --batch`, the fastest path for large histories;
// otherwise it falls back to go-git, which needs no external binary
// but walks commits/trees in pure Go.
type GitAdapter struct {
	root    string
	limits  Limits
	timeout time.Duration
}

// NewGitAdapter builds an adapter over the full history of the
// repository rooted at root. timeout bounds any subprocess (native
// path) or object walk (go-git path); zero means no timeout.
func NewGitAdapter(root string, limits Limits, timeout time.Duration) *GitAdapter {
	return &GitAdapter{root: root, limits: limits, timeout: timeout}
}

func (a *GitAdapter) Enumerate(ctx context.Context, callback Callback) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if gitBinaryAvailable() {
		if err := a.enumerateNative(ctx, callback); err == nil {
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		// Fall through to go-git on any native-path failure (e.g. a
		// shallow clone that doesn't support rev-list --all fully).
	}
	return a.enumerateGoGit(ctx, callback)
}

func gitBinaryAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

type blobEntry struct {
	hash [20]byte
	path string
}

// enumerateNative drives `git rev-list --all --objects` to collect
// every reachable blob hash once, then streams their content through a
// single long-lived `git cat-file --batch` process. Git's own object
// hash dedups the enumeration; the scanner's content-digest BlobID is
// computed from the streamed bytes.
func (a *GitAdapter) enumerateNative(ctx context.Context, callback Callback) error {
	blobs, err := a.collectBlobEntries(ctx)
	if err != nil {
		return err
	}
	return a.streamBlobContents(ctx, blobs, callback)
}

func (a *GitAdapter) collectBlobEntries(ctx context.Context) ([]blobEntry, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-list", "--all", "--objects")
	cmd.Dir = a.root

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("git rev-list: pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("git rev-list: start: %w", err)
	}

	seen := make(map[[20]byte]bool)
	var blobs []blobEntry

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		spaceIdx := strings.IndexByte(line, ' ')
		if spaceIdx != 40 {
			continue
		}
		decoded, err := hex.DecodeString(line[:40])
		if err != nil {
			continue
		}
		var hash [20]byte
		copy(hash[:], decoded)
		if seen[hash] {
			continue
		}
		seen[hash] = true
		blobs = append(blobs, blobEntry{hash: hash, path: line[41:]})
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("git rev-list: scan: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("git rev-list: %w", err)
	}
	return blobs, nil
}

func (a *GitAdapter) streamBlobContents(ctx context.Context, blobs []blobEntry, callback Callback) error {
	if len(blobs) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, "git", "cat-file", "--batch")
	cmd.Dir = a.root

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("git cat-file: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("git cat-file: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("git cat-file: start: %w", err)
	}

	reader := bufio.NewReaderSize(stdout, 256*1024)

	for i, blob := range blobs {
		if i%1000 == 0 {
			select {
			case <-ctx.Done():
				stdin.Close()
				_ = cmd.Wait()
				return ctx.Err()
			default:
			}
		}

		hexStr := hex.EncodeToString(blob.hash[:])
		if _, err := fmt.Fprintf(stdin, "%s\n", hexStr); err != nil {
			stdin.Close()
			_ = cmd.Wait()
			return gitCatFileErr(ctx, "write", err)
		}

		headerLine, err := reader.ReadString('\n')
		if err != nil {
			stdin.Close()
			_ = cmd.Wait()
			return gitCatFileErr(ctx, "read header", err)
		}
		headerLine = strings.TrimSuffix(headerLine, "\n")

		parts := strings.SplitN(headerLine, " ", 3)
		if len(parts) < 3 || parts[1] == "missing" {
			continue
		}
		objType := parts[1]
		size, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("git cat-file: parse size %q: %w", parts[2], err)
		}

		if objType != "blob" || (a.limits.MaxFileSize > 0 && size > a.limits.MaxFileSize) {
			if _, err := io.CopyN(io.Discard, reader, size+1); err != nil {
				stdin.Close()
				_ = cmd.Wait()
				return gitCatFileErr(ctx, "discard", err)
			}
			continue
		}

		content := make([]byte, size)
		if _, err := io.ReadFull(reader, content); err != nil {
			stdin.Close()
			_ = cmd.Wait()
			return gitCatFileErr(ctx, "read content", err)
		}
		if _, err := reader.ReadByte(); err != nil {
			stdin.Close()
			_ = cmd.Wait()
			return gitCatFileErr(ctx, "read trailing newline", err)
		}

		if isBinary(content) {
			continue
		}

		blobID := types.ComputeBlobID(content)
		origin := types.GitOrigin{RepoPath: a.root, BlobPath: blob.path}
		if err := callback(content, blobID, origin); err != nil {
			stdin.Close()
			_ = cmd.Wait()
			return err
		}
	}

	stdin.Close()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("git cat-file: %w", err)
	}
	return nil
}

func gitCatFileErr(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("git cat-file: %s: %w", stage, err)
}

// enumerateGoGit is the pure-Go fallback: it opens the repository with
// go-git and walks every commit's tree, reading blob content in
// process. Slower than the native path on large histories but needs no
// external binary.
func (a *GitAdapter) enumerateGoGit(ctx context.Context, callback Callback) error {
	repo, err := git.PlainOpen(a.root)
	if err != nil {
		return &types.SourceFetchError{Target: a.root, Err: err}
	}

	refs, err := repo.References()
	if err != nil {
		return &types.SourceFetchError{Target: a.root, Err: err}
	}

	seenCommits := make(map[plumbing.Hash]bool)
	seenBlobs := make(map[plumbing.Hash]bool)

	var walkErr error
	refs.ForEach(func(ref *plumbing.Reference) error {
		select {
		case <-ctx.Done():
			walkErr = ctx.Err()
			return walkErr
		default:
		}
		commit, err := repo.CommitObject(ref.Hash())
		if err != nil {
			return nil // tag/non-commit ref; skip
		}
		return object.NewCommitPreorderIter(commit, nil, nil).ForEach(func(c *object.Commit) error {
			if seenCommits[c.Hash] {
				return nil
			}
			seenCommits[c.Hash] = true

			tree, err := c.Tree()
			if err != nil {
				return nil
			}
			return tree.Files().ForEach(func(f *object.File) error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if seenBlobs[f.Hash] {
					return nil
				}
				seenBlobs[f.Hash] = true

				if a.limits.MaxFileSize > 0 && f.Size > a.limits.MaxFileSize {
					return nil
				}
				isBin, err := f.IsBinary()
				if err != nil || isBin {
					return nil
				}
				content, err := f.Contents()
				if err != nil {
					return nil
				}
				blobID := types.ComputeBlobID([]byte(content))
				origin := types.GitOrigin{
					RepoPath: a.root,
					BlobPath: f.Name,
					Commit: &types.CommitMetadata{
						CommitID:           c.Hash.String(),
						AuthorName:         c.Author.Name,
						AuthorEmail:        c.Author.Email,
						AuthorTimestamp:    c.Author.When,
						CommitterName:      c.Committer.Name,
						CommitterEmail:     c.Committer.Email,
						CommitterTimestamp: c.Committer.When,
						Message:            c.Message,
					},
				}
				return callback([]byte(content), blobID, origin)
			})
		})
	})

	if walkErr != nil {
		return walkErr
	}
	return ctx.Err()
}
