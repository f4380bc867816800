// Package chunker splits extracted document text into overlapping segments
// sized for embedding.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of characters shared by consecutive chunks.
const DefaultChunkOverlap = 200

// Boundaries tried in order: paragraph, sentence, word. A piece still longer
// than the chunk size after the word level is cut into single characters.
var boundaries = []*regexp.Regexp{
	regexp.MustCompile(`\n[ \t\r\f\v]*\n\s*`),
	regexp.MustCompile(`[.!?]+["')\]]*\s+`),
	regexp.MustCompile(`\s+`),
}

// Chunker is a recursive boundary-preferring text splitter.
// Lengths are counted in characters (runes), not bytes.
type Chunker struct {
	size    int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker. An overlap not smaller than the size is reduced to a quarter of it.
func New(opts ...Option) *Chunker {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Size returns the maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split segments text. Text no longer than the chunk size comes back as a
// single chunk equal to the input. Blank text is rejected with domain.ErrEmptyText.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	if utf8.RuneCountInString(text) <= c.size {
		return []string{text}, nil
	}

	pieces := c.atoms(text, 0)
	return c.merge(pieces), nil
}

// atoms recursively splits text at the given boundary level until every
// piece fits the chunk size. Pieces keep their trailing separator, so their
// concatenation is exactly text.
func (c *Chunker) atoms(text string, level int) []string {
	if level >= len(boundaries) {
		return splitRunes(text)
	}

	var out []string
	for _, p := range splitAfter(text, boundaries[level]) {
		if utf8.RuneCountInString(p) <= c.size {
			out = append(out, p)
			continue
		}
		out = append(out, c.atoms(p, level+1)...)
	}
	return out
}

// merge packs consecutive pieces into chunks of at most size characters.
// When a chunk is emitted, the trailing pieces totalling at most overlap
// characters are carried into the next one.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var window []string
	var lens []int
	total := 0

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)

		if total+n > c.size && len(window) > 0 {
			if s := strings.TrimSpace(strings.Join(window, "")); s != "" {
				chunks = append(chunks, s)
			}
			for len(window) > 0 && (total > c.overlap || total+n > c.size) {
				total -= lens[0]
				window = window[1:]
				lens = lens[1:]
			}
		}

		window = append(window, p)
		lens = append(lens, n)
		total += n
	}

	if s := strings.TrimSpace(strings.Join(window, "")); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

func splitAfter(text string, re *regexp.Regexp) []string {
	var out []string
	start := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[1] > start {
			out = append(out, text[start:loc[1]])
			start = loc[1]
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// splitRunes cuts text into single characters. An invalid byte is its own
// one-byte piece, so the pieces still concatenate to text.
func splitRunes(text string) []string {
	out := make([]string, 0, utf8.RuneCountInString(text))
	for len(text) > 0 {
		_, size := utf8.DecodeRuneInString(text)
		out = append(out, text[:size])
		text = text[size:]
	}
	return out
}
