package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// PDF reads the text drawn by a PDF's page content streams. Pages are
// separated by a blank line. Scanned pages without a text layer yield
// nothing, so an image-only PDF fails with domain.ErrEmptyText.
type PDF struct {
	conf *model.Configuration
}

// NewPDF creates the PDF extractor.
func NewPDF() *PDF {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDF{conf: conf}
}

// Extract returns the text of every page in order.
func (p *PDF) Extract(ctx context.Context, _ string, data []byte) (string, error) {
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), p.conf)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w: %w", domain.ErrUnsupportedContent, err)
	}

	pages := make([]string, 0, pdfCtx.PageCount)
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil {
			return "", fmt.Errorf("page %d: %w: %w", pageNr, domain.ErrUnsupportedContent, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNr, err)
		}
		if text := pageText(content); text != "" {
			pages = append(pages, text)
		}
	}

	text := normalize(strings.Join(pages, "\n\n"))
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyText
	}
	return text, nil
}

// Auto routes PDFs to the PDF extractor and everything else to Text.
type Auto struct {
	pdf  *PDF
	text *Text
}

// New creates the extractor used for uploads.
func New() *Auto {
	return &Auto{pdf: NewPDF(), text: NewText()}
}

// Extract sniffs the content when the declared type is missing or generic.
func (a *Auto) Extract(ctx context.Context, contentType string, data []byte) (string, error) {
	kind := mediaType(contentType)
	if kind == "" || kind == "application/octet-stream" {
		kind = mediaType(mimetype.Detect(data).String())
	}
	if kind == "application/pdf" {
		return a.pdf.Extract(ctx, kind, data)
	}
	return a.text.Extract(ctx, kind, data)
}
