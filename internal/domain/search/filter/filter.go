package filter

import (
	"fmt"

	"github.com/kailas-cloud/pdfchat/internal/domain/chunk"
)

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 8

// Expression is a conjunction of exact-match conditions on chunk metadata,
// applied before ranking. The zero value matches every chunk.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	seen := make(map[string]string, len(must))
	for _, c := range must {
		if prev, ok := seen[c.key]; ok && prev != c.value {
			return Expression{}, fmt.Errorf("conflicting conditions for key %q", c.key)
		}
		seen[c.key] = c.value
	}
	return Expression{must: must}, nil
}

// ByDocument restricts a search to the chunks of one document.
func ByDocument(documentID string) (Expression, error) {
	cond, err := NewMatch(chunk.MetaDocumentID, documentID)
	if err != nil {
		return Expression{}, err
	}
	return Expression{must: []Condition{cond}}, nil
}

// Must returns the conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Matches evaluates the expression against chunk metadata.
func (e Expression) Matches(meta map[string]string) bool {
	for _, c := range e.must {
		if meta[c.key] != c.value {
			return false
		}
	}
	return true
}

// AsMap returns the conditions as key→value, or nil for an empty expression.
func (e Expression) AsMap() map[string]string {
	if e.IsEmpty() {
		return nil
	}
	m := make(map[string]string, len(e.must))
	for _, c := range e.must {
		m[c.key] = c.value
	}
	return m
}

// Condition is a single exact match on a metadata key.
type Condition struct {
	key   string
	value string
}

// NewMatch creates an exact match condition.
func NewMatch(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, value: value}, nil
}

// Key returns the metadata key.
func (c Condition) Key() string { return c.key }

// Value returns the required value.
func (c Condition) Value() string { return c.value }
