package types

import "time"

// Origin explains where a blob came from: a plain file, a blob inside a
// git commit, a member of an archive, or an extended JSON-envelope
// source with no natural path.
type Origin interface {
	Kind() string
	// Path returns a displayable path, or "" if none applies.
	Path() string
}

// FileOrigin is a plain filesystem path.
type FileOrigin struct {
	FilePath string
}

func (f FileOrigin) Kind() string { return "file" }
func (f FileOrigin) Path() string { return f.FilePath }

// CommitMetadata holds the git commit information attached to a GitOrigin.
type CommitMetadata struct {
	CommitID           string
	AuthorName         string
	AuthorEmail        string
	AuthorTimestamp    time.Time
	CommitterName      string
	CommitterEmail     string
	CommitterTimestamp time.Time
	Message            string
}

// GitOrigin is a blob observed at a specific path within a specific commit.
type GitOrigin struct {
	RepoPath string
	Commit   *CommitMetadata // nil when commit metadata wasn't requested
	BlobPath string
}

func (g GitOrigin) Kind() string { return "git" }
func (g GitOrigin) Path() string { return g.BlobPath }

// ArchiveOrigin is content extracted from within a binary archive.
type ArchiveOrigin struct {
	ArchivePath string
	MemberPath  string
}

func (a ArchiveOrigin) Kind() string { return "archive" }
func (a ArchiveOrigin) Path() string { return a.ArchivePath + ":" + a.MemberPath }

// ExtendedOrigin is a JSON-envelope origin for sources with no natural file
// path: S3 objects, HTTP responses, chat messages, and so on.
type ExtendedOrigin struct {
	Payload map[string]interface{}
}

func (e ExtendedOrigin) Kind() string { return "extended" }
func (e ExtendedOrigin) Path() string {
	if v, ok := e.Payload["url"].(string); ok {
		return v
	}
	return ""
}

// OriginSet aggregates every Origin under which the same blob content was
// observed. A Finding owns a list of these, never the reverse; origins
// never point back at findings.
type OriginSet struct {
	origins []Origin
}

// NewOriginSet creates a set seeded with one origin.
func NewOriginSet(first Origin) *OriginSet {
	return &OriginSet{origins: []Origin{first}}
}

// Add appends another origin under which this same content was observed.
func (s *OriginSet) Add(o Origin) {
	s.origins = append(s.origins, o)
}

// All returns every origin in the set.
func (s *OriginSet) All() []Origin {
	return s.origins
}

// First returns the representative (first-seen) origin.
func (s *OriginSet) First() Origin {
	if len(s.origins) == 0 {
		return nil
	}
	return s.origins[0]
}
