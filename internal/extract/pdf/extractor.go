// Package pdf provides a synchronous in-process extractor for PDF and plain
// text documents fetched from object storage.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"warrantyai/internal/extract"
	"warrantyai/internal/storage"
)

var _ extract.Extractor = (*Extractor)(nil)

// Extractor reads a document from object storage and extracts its text pages
// without calling any external service. Suitable for digital PDFs with a text
// layer; scanned images need the OCR variant.
type Extractor struct {
	store storage.Storage
}

// NewExtractor creates an in-process extractor backed by the given store.
func NewExtractor(store storage.Storage) *Extractor {
	return &Extractor{store: store}
}

// Extract fetches the object and returns one text string per page.
func (e *Extractor) Extract(ctx context.Context, ref extract.Ref) ([]string, error) {
	rc, _, err := e.store.Get(ctx, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	switch {
	case isPDF(data):
		return extractPDFPages(data)
	case strings.HasPrefix(ref.ContentType, "text/"):
		return []string{string(data)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, ref.ContentType)
	}
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func extractPDFPages(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrUnsupportedFormat, err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// Fall back to printable bytes rather than losing the page.
			text = string(printableText(data))
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// printableText strips non-printable bytes, a last-resort salvage for PDFs
// whose text layer cannot be decoded.
func printableText(in []byte) []byte {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			b := in[0]
			if b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			out.WriteRune(r)
		}
	}
	return out.Bytes()
}
