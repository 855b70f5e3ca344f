package postfilter

import (
	"encoding/base64"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// minBase64CandidateLen avoids spending a decode+rematch cycle on short
// strings that are almost certainly not base64-wrapped secrets.
const minBase64CandidateLen = 16

// rematcher is the subset of *matcher.Matcher the recursion step needs.
// Declared locally to avoid postfilter depending on matcher's full API
// surface (and to keep this file unit-testable with a fake).
type rematcher interface {
	Match(content []byte, blobID types.BlobID) []*types.Match
}

// recurseBase64 attempts to base64-decode a match's canonical secret and,
// on success, re-runs the matcher over the decoded bytes. Any resulting
// matches use the *inner* (decoded-content) fingerprint: the secret
// recovered from inside the encoded blob is what a rescan will see again,
// regardless of how it happens to be wrapped.
func recurseBase64(m rematcher, match *types.Match) []*types.Match {
	secret := match.CanonicalSecret()
	if len(secret) < minBase64CandidateLen {
		return nil
	}

	decoded, ok := tryBase64Decode(secret)
	if !ok {
		return nil
	}

	innerBlobID := types.ComputeBlobID(decoded)
	return m.Match(decoded, innerBlobID)
}

func tryBase64Decode(data []byte) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		decoded, err := enc.DecodeString(string(data))
		if err == nil && len(decoded) > 0 && looksLikeText(decoded) {
			return decoded, true
		}
	}
	return nil, false
}

// looksLikeText is a cheap guard against recursing into decoded binary
// noise: require every byte to be printable ASCII or common whitespace.
func looksLikeText(data []byte) bool {
	printable := 0
	for _, b := range data {
		if (b >= 0x20 && b <= 0x7e) || b == '\n' || b == '\t' || b == '\r' {
			printable++
		}
	}
	return float64(printable)/float64(len(data)) > 0.95
}
