package chunk

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain/document"
)

// Metadata keys stored alongside every chunk.
const (
	MetaDocumentID = "document_id"
	MetaFilename   = "filename"
	MetaFileSize   = "file_size"
	MetaUploadDate = "upload_date"
	MetaFileType   = "file_type"
	MetaChunkIndex = "chunk_index"
)

// Chunk is one indexed segment of a document (immutable value object).
type Chunk struct {
	documentID string
	index      int
	content    string
	vector     []float32
	metadata   map[string]string
}

// New validates and creates a Chunk. The document_id metadata entry always
// mirrors documentID.
func New(documentID string, index int, content string, vector []float32, metadata map[string]string) (Chunk, error) {
	if documentID == "" {
		return Chunk{}, fmt.Errorf("document ID is required")
	}
	if index < 0 {
		return Chunk{}, fmt.Errorf("chunk index must not be negative")
	}
	if content == "" {
		return Chunk{}, fmt.Errorf("chunk content is required")
	}
	if len(vector) == 0 {
		return Chunk{}, fmt.Errorf("chunk vector is required")
	}

	meta := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetaDocumentID] = documentID
	meta[MetaChunkIndex] = strconv.Itoa(index)

	return Chunk{
		documentID: documentID,
		index:      index,
		content:    content,
		vector:     vector,
		metadata:   meta,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(documentID string, index int, content string, vector []float32, metadata map[string]string) Chunk {
	return Chunk{documentID: documentID, index: index, content: content, vector: vector, metadata: metadata}
}

// MetadataFor builds the per-chunk metadata shared by every chunk of doc.
func MetadataFor(doc *document.Document) map[string]string {
	return map[string]string{
		MetaDocumentID: doc.ID(),
		MetaFilename:   doc.Filename(),
		MetaFileSize:   strconv.FormatInt(doc.FileSize(), 10),
		MetaUploadDate: doc.UploadedAt().Format(time.RFC3339),
		MetaFileType:   doc.FileType(),
	}
}

// ID returns the chunk key: "<document_id>:<index>".
func (c *Chunk) ID() string { return ChunkID(c.documentID, c.index) }

// DocumentID returns the owning document identifier.
func (c *Chunk) DocumentID() string { return c.documentID }

// Index returns the position of the chunk within its document.
func (c *Chunk) Index() int { return c.index }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Vector returns the chunk embedding.
func (c *Chunk) Vector() []float32 { return c.vector }

// Metadata returns the chunk metadata.
func (c *Chunk) Metadata() map[string]string { return c.metadata }

// ChunkID formats a chunk key.
func ChunkID(documentID string, index int) string {
	return documentID + ":" + strconv.Itoa(index)
}
