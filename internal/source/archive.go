package source

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/ledongthuc/pdf"
)

// ExtractedMember is one piece of text recovered from inside an
// archive or document, ready to be treated as its own blob.
type ExtractedMember struct {
	Name    string
	Content []byte
}

// ExtractText pulls text content out of zip/tar/tar.gz/7z/pdf files.
// Nested archives (a zip inside a zip) are followed up to maxDepth;
// beyond that, members are silently skipped rather than erroring:
// an archive bomb should degrade the scan's coverage, not its exit
// code.
func ExtractText(path string, content []byte, maxDepth int) ([]ExtractedMember, error) {
	return extractAtDepth(path, content, 0, maxDepth)
}

func extractAtDepth(path string, content []byte, depth, maxDepth int) ([]ExtractedMember, error) {
	if depth > maxDepth {
		return nil, nil
	}

	switch extensionOf(path) {
	case ".pdf":
		return extractPDF(content)
	case ".zip", ".jar", ".war", ".apk":
		return extractZip(content, depth, maxDepth)
	case ".tar":
		return extractTar(content, false, depth, maxDepth)
	case ".tar.gz", ".tgz":
		return extractTar(content, true, depth, maxDepth)
	case ".7z":
		return extract7z(content, depth, maxDepth)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", path)
	}
}

// extractPDF writes content to a temp file since ledongthuc/pdf needs a
// ReaderAt with a known size, which an in-memory []byte can't give it
// directly without an extra copy the library doesn't expose.
func extractPDF(content []byte) ([]ExtractedMember, error) {
	tmpFile, err := os.CreateTemp("", "kingfisher-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.Write(content); err != nil {
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	tmpFile.Close()

	f, r, err := pdf.Open(tmpFile.Name())
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	if sb.Len() == 0 {
		return nil, nil
	}
	return []ExtractedMember{{Name: "text", Content: []byte(sb.String())}}, nil
}

func extractZip(content []byte, depth, maxDepth int) ([]ExtractedMember, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	var members []ExtractedMember
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(rc, 64<<20))
		rc.Close()
		if err != nil {
			continue
		}
		if isBinary(data) {
			if nested, err := extractAtDepth(f.Name, data, depth+1, maxDepth); err == nil {
				members = append(members, nested...)
			}
			continue
		}
		members = append(members, ExtractedMember{Name: f.Name, Content: data})
	}
	return members, nil
}

func extractTar(content []byte, gzipped bool, depth, maxDepth int) ([]ExtractedMember, error) {
	var r io.Reader = bytes.NewReader(content)
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening tar.gz: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	var members []ExtractedMember
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return members, nil
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tr, 64<<20))
		if err != nil {
			continue
		}
		if isBinary(data) {
			if nested, err := extractAtDepth(hdr.Name, data, depth+1, maxDepth); err == nil {
				members = append(members, nested...)
			}
			continue
		}
		members = append(members, ExtractedMember{Name: hdr.Name, Content: data})
	}
	return members, nil
}

func extract7z(content []byte, depth, maxDepth int) ([]ExtractedMember, error) {
	zr, err := sevenzip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("opening 7z: %w", err)
	}

	var members []ExtractedMember
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(rc, 64<<20))
		rc.Close()
		if err != nil {
			continue
		}
		if isBinary(data) {
			if nested, err := extractAtDepth(f.Name, data, depth+1, maxDepth); err == nil {
				members = append(members, nested...)
			}
			continue
		}
		members = append(members, ExtractedMember{Name: f.Name, Content: data})
	}
	return members, nil
}
