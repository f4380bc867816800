// Package extract turns uploaded bytes into plain text for ingestion.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/gabriel-vasile/mimetype"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Extractor returns the readable text of an upload.
type Extractor interface {
	Extract(ctx context.Context, contentType string, data []byte) (string, error)
}

// Text reads plain text, markdown and HTML uploads. HTML is converted to
// markdown so headings and lists keep their paragraph structure.
type Text struct {
	html *md.Converter
}

// NewText creates the text extractor.
func NewText() *Text {
	return &Text{html: md.NewConverter("", true, nil)}
}

// Extract detects the content type when the caller sent none (or a generic
// one), then returns the text. Binary content fails with
// domain.ErrUnsupportedContent; blank text with domain.ErrEmptyText.
func (t *Text) Extract(_ context.Context, contentType string, data []byte) (string, error) {
	kind := mediaType(contentType)
	if kind == "" || kind == "application/octet-stream" {
		kind = mediaType(mimetype.Detect(data).String())
	}

	var text string
	switch {
	case kind == "text/html" || kind == "application/xhtml+xml":
		converted, err := t.html.ConvertString(string(data))
		if err != nil {
			return "", fmt.Errorf("convert html: %w: %w", domain.ErrUnsupportedContent, err)
		}
		text = converted
	case strings.HasPrefix(kind, "text/"), kind == "application/json":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not valid UTF-8: %w", kind, domain.ErrUnsupportedContent)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%s: %w", kind, domain.ErrUnsupportedContent)
	}

	text = normalize(text)
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyText
	}
	return text, nil
}

func mediaType(contentType string) string {
	kind, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(kind))
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "")

func normalize(s string) string {
	return lineEndings.Replace(strings.TrimPrefix(s, "\ufeff"))
}
