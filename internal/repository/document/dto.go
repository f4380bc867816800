package document

import (
	"fmt"
	"strconv"
	"time"

	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
)

const (
	fieldFilename   = "filename"
	fieldFileSize   = "file_size"
	fieldFileType   = "file_type"
	fieldUploadDate = "upload_date"
	fieldChunks     = "chunks"
)

func buildHashFields(doc *domdoc.Document) map[string]string {
	return map[string]string{
		fieldFilename:   doc.Filename(),
		fieldFileSize:   strconv.FormatInt(doc.FileSize(), 10),
		fieldFileType:   doc.FileType(),
		fieldUploadDate: doc.UploadedAt().Format(time.RFC3339Nano),
		fieldChunks:     strconv.Itoa(doc.Chunks()),
	}
}

func parseHashFields(id string, m map[string]string) (domdoc.Document, error) {
	size, err := strconv.ParseInt(m[fieldFileSize], 10, 64)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: parse %s: %w", id, fieldFileSize, err)
	}
	uploaded, err := time.Parse(time.RFC3339Nano, m[fieldUploadDate])
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: parse %s: %w", id, fieldUploadDate, err)
	}
	// rows written before the chunk count was recorded read as zero
	chunks, _ := strconv.Atoi(m[fieldChunks])

	return domdoc.Reconstruct(id, m[fieldFilename], size, m[fieldFileType], uploaded, chunks), nil
}
