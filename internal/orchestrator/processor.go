// Package orchestrator wires every other package into a running scan:
// source adapters feed a bounded channel, a worker pool drains it
// through the blob processor (dedup, size/binary rejection, MIME
// guessing, matching, post-filtering, optional validation), and the
// findings store is the single point of convergence.
package orchestrator

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kingfisher-scan/kingfisher/internal/matcher"
	"github.com/kingfisher-scan/kingfisher/internal/postfilter"
	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// maxBinarySniffLen bounds how much of a blob is inspected for a NUL
// byte when deciding whether it looks binary, matching the filesystem
// adapter's heuristic.
const maxBinarySniffLen = 8192

// languageByExtension is a small best-effort lookup; unknown extensions
// simply leave BlobMetadata.Language empty, which is permitted.
var languageByExtension = map[string]string{
	".py":   "Python",
	".go":   "Go",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".java": "Java",
	".rb":   "Ruby",
	".php":  "PHP",
	".c":    "C",
	".h":    "C",
	".cpp":  "C++",
	".cs":   "C#",
	".rs":   "Rust",
	".sh":   "Shell",
	".yml":  "YAML",
	".yaml": "YAML",
	".json": "JSON",
	".tf":   "Terraform",
	".env":  "Dotenv",
}

// isBinaryContent mirrors internal/source's isBinary heuristic: a NUL
// byte within the first maxBinarySniffLen bytes marks content as binary.
func isBinaryContent(content []byte) bool {
	limit := len(content)
	if limit > maxBinarySniffLen {
		limit = maxBinarySniffLen
	}
	return bytes.IndexByte(content[:limit], 0) >= 0
}

// guessMetadata fills in MIME essence, charset and a best-effort
// language guess for a blob, given its path (for the extension-based
// language lookup) and content (for MIME sniffing).
func guessMetadata(id types.BlobID, content []byte, path string) *types.BlobMetadata {
	meta := &types.BlobMetadata{ID: id, NumBytes: int64(len(content))}

	detected := mimetype.Detect(content)
	meta.MIMEEssence = detected.String()
	if idx := strings.Index(meta.MIMEEssence, ";"); idx >= 0 {
		if strings.Contains(meta.MIMEEssence[idx:], "charset=") {
			parts := strings.SplitN(meta.MIMEEssence[idx:], "charset=", 2)
			if len(parts) == 2 {
				meta.Charset = strings.TrimSpace(parts[1])
			}
		}
		meta.MIMEEssence = strings.TrimSpace(meta.MIMEEssence[:idx])
	}
	if meta.Charset == "" && looksLikeUTF8Text(content) {
		meta.Charset = "UTF-8"
	}

	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageByExtension[ext]; ok {
		meta.Language = lang
	}

	return meta
}

// looksLikeUTF8Text is a cheap best-effort check; it is not a full
// UTF-8 validator, just enough to tell apart obviously-binary content
// from plausible text when mimetype doesn't report a charset itself.
func looksLikeUTF8Text(content []byte) bool {
	limit := len(content)
	if limit > maxBinarySniffLen {
		limit = maxBinarySniffLen
	}
	for _, b := range content[:limit] {
		if b == 0 {
			return false
		}
	}
	return true
}

// isArchiveMIME reports whether a MIME essence names a container
// format the blob processor should attempt to extract rather than
// reject outright as binary.
func isArchiveMIME(mimeEssence string) bool {
	switch mimeEssence {
	case "application/zip", "application/x-tar", "application/gzip",
		"application/x-gzip", "application/x-7z-compressed", "application/pdf":
		return true
	default:
		return false
	}
}

// processedBlob is the result of running one blob through the
// processor: every surviving match plus the metadata/origins needed to
// record it.
type processedBlob struct {
	Origins  *types.OriginSet
	Metadata *types.BlobMetadata
	Matches  []*types.Match
}

// blobProcessor runs the per-blob pipeline against each blob handed to
// it by a worker: size/binary rejection, MIME/language guessing,
// two-tier matching, and post-filtering.
// One blobProcessor is shared (read-only after construction) across
// every worker in a scan.
type blobProcessor struct {
	matcher    *matcher.Matcher
	postfilter *postfilter.Pipeline
	rules      *types.RulesDatabase
	limits     Limits
}

// Limits mirrors the scan-wide size/content constraints a CLI flag set
// assembles into a ScanConfig.
type Limits struct {
	MaxFileSize int64
	NoBinary    bool
}

func newBlobProcessor(m *matcher.Matcher, pf *postfilter.Pipeline, rules *types.RulesDatabase, limits Limits) *blobProcessor {
	return &blobProcessor{matcher: m, postfilter: pf, rules: rules, limits: limits}
}

// process runs one blob through size/binary gating, metadata guessing,
// matching and post-filtering. The Observe-based dedup gate is the
// caller's responsibility since it requires the shared, mutable
// BlobStore; this method is pure given its inputs.
func (p *blobProcessor) process(content []byte, origin types.Origin) *processedBlob {
	id := types.ComputeBlobID(content)

	if p.limits.MaxFileSize > 0 && int64(len(content)) > p.limits.MaxFileSize {
		return nil
	}

	meta := guessMetadata(id, content, origin.Path())

	if p.limits.NoBinary && isBinaryContent(content) && !isArchiveMIME(meta.MIMEEssence) {
		return nil
	}

	candidates := p.matcher.Match(content, id)
	if len(candidates) == 0 {
		return &processedBlob{Origins: types.NewOriginSet(origin), Metadata: meta, Matches: nil}
	}

	var kept []*types.Match
	for _, m := range candidates {
		rule := p.rules.Lookup(m.RuleID)
		if rule == nil {
			continue
		}
		ok, recovered, err := p.postfilter.Apply(m, content, rule, p.matcher)
		if err != nil {
			continue // MatcherError-shaped failure on this one match; skip it, keep scanning
		}
		if ok {
			kept = append(kept, m)
		}
		for _, r := range recovered {
			if innerRule := p.rules.Lookup(r.RuleID); innerRule != nil {
				r.BaseLayer = true
				kept = append(kept, r)
			}
		}
	}

	return &processedBlob{Origins: types.NewOriginSet(origin), Metadata: meta, Matches: kept}
}
