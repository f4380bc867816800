package document

import (
	"fmt"
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxIDLength bounds caller-supplied document identifiers.
const MaxIDLength = 256

// DefaultFileType is recorded when the uploader does not name one.
const DefaultFileType = "pdf"

// Document is the metadata row of one ingested upload (immutable value object).
// The extracted text is not part of it: text lives only in chunks.
type Document struct {
	id         string
	filename   string
	fileSize   int64
	fileType   string
	uploadedAt time.Time
	chunks     int
}

// New validates and creates a Document.
func New(id, filename string, fileSize int64, fileType string, uploadedAt time.Time) (Document, error) {
	if err := ValidateID(id); err != nil {
		return Document{}, err
	}
	if filename == "" {
		return Document{}, fmt.Errorf("filename is required")
	}
	if fileSize < 0 {
		return Document{}, fmt.Errorf("file size must not be negative")
	}
	if fileType == "" {
		fileType = DefaultFileType
	}
	return Document{
		id:         id,
		filename:   filename,
		fileSize:   fileSize,
		fileType:   fileType,
		uploadedAt: uploadedAt.UTC(),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, filename string, fileSize int64, fileType string, uploadedAt time.Time, chunks int) Document {
	return Document{
		id: id, filename: filename, fileSize: fileSize, fileType: fileType,
		uploadedAt: uploadedAt.UTC(), chunks: chunks,
	}
}

// ValidateID checks a document identifier: ^[a-zA-Z0-9_-]+$, at most MaxIDLength.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Filename returns the uploaded file name.
func (d *Document) Filename() string { return d.filename }

// FileSize returns the upload size in bytes.
func (d *Document) FileSize() int64 { return d.fileSize }

// FileType returns the recorded content type label.
func (d *Document) FileType() string { return d.fileType }

// UploadedAt returns the ingestion timestamp in UTC.
func (d *Document) UploadedAt() time.Time { return d.uploadedAt }

// Chunks returns the number of chunks indexed for this document.
func (d *Document) Chunks() int { return d.chunks }

// WithChunks returns a copy recording the indexed chunk count.
func (d *Document) WithChunks(n int) Document {
	c := *d
	c.chunks = n
	return c
}

// Newer orders documents by upload time descending, then by id for a stable order.
func Newer(a, b Document) bool {
	if !a.uploadedAt.Equal(b.uploadedAt) {
		return a.uploadedAt.After(b.uploadedAt)
	}
	return a.id < b.id
}
