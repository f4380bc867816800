package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Indexes cover hashes only.
const StorageHash = "HASH"

// DistanceMetric is the vector distance used by an FT vector field.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance; the search layer turns it into similarity.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceIP is inner product, equivalent to cosine for unit vectors.
	DistanceIP DistanceMetric = "IP"
)

// VectorAlgorithm is the FT vector index algorithm.
type VectorAlgorithm string

const (
	// VectorHNSW is the approximate graph index.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat is exact brute force; fine for a few thousand chunks.
	VectorFlat VectorAlgorithm = "FLAT"
)

// ParseVectorAlgorithm maps a config value ("hnsw", "flat") to an algorithm.
func ParseVectorAlgorithm(s string) (VectorAlgorithm, error) {
	switch a := VectorAlgorithm(strings.ToUpper(s)); a {
	case VectorHNSW, VectorFlat:
		return a, nil
	default:
		return "", fmt.Errorf("unknown vector algorithm %q", s)
	}
}

// FieldKind is the FT schema type of a field.
type FieldKind string

// Field kinds, named as FT.CREATE spells them.
const (
	KindTag     FieldKind = "TAG"
	KindNumeric FieldKind = "NUMERIC"
	KindText    FieldKind = "TEXT"
	KindVector  FieldKind = "VECTOR"
)

// VectorParams describes a FLOAT32 vector field.
type VectorParams struct {
	Algorithm      VectorAlgorithm
	Dim            int
	Distance       DistanceMetric
	M              int // HNSW only, 0 keeps the server default
	EFConstruction int // HNSW only, 0 keeps the server default
}

// IndexField is one schema entry.
type IndexField struct {
	Name          string
	Alias         string
	Kind          FieldKind
	CaseSensitive bool          // TAG only
	Vector        *VectorParams // VECTOR only
}

// IndexDefinition is the input of FT.CREATE.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks names, aliases and vector parameters.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("index needs at least one field")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		attr := f.attribute()
		if _, dup := seen[attr]; dup {
			return fmt.Errorf("duplicate field %q", attr)
		}
		seen[attr] = struct{}{}

		switch f.Kind {
		case KindTag, KindNumeric, KindText:
		case KindVector:
			if f.Vector == nil || f.Vector.Dim <= 0 {
				return fmt.Errorf("vector field %q needs a positive dimension", attr)
			}
		default:
			return fmt.Errorf("field %q has unknown kind %q", attr, f.Kind)
		}
	}
	return nil
}

// Args renders the FT.CREATE arguments after the command name.
func (idx *IndexDefinition) Args() []string {
	args := []string{idx.Name, "ON", StorageHash}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		args = append(args, idx.Fields[i].args()...)
	}
	return args
}

// String is the FT.CREATE command line, for logs.
func (idx *IndexDefinition) String() string {
	return "FT.CREATE " + strings.Join(idx.Args(), " ")
}

func (f *IndexField) attribute() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (f *IndexField) args() []string {
	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}
	args = append(args, string(f.Kind))

	switch f.Kind {
	case KindTag:
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	case KindVector:
		args = append(args, f.Vector.args()...)
	}
	return args
}

func (v *VectorParams) args() []string {
	algo := v.Algorithm
	if algo == "" {
		algo = VectorHNSW
	}
	distance := v.Distance
	if distance == "" {
		distance = DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if algo == VectorHNSW {
		if v.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(v.M))
		}
		if v.EFConstruction > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruction))
		}
	}
	return append([]string{string(algo), strconv.Itoa(len(attrs))}, attrs...)
}

// IsValidIdentifier reports whether s is non-empty and made of [a-zA-Z0-9_:-].
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_', r == ':', r == '-':
			return false
		}
		return true
	}) < 0
}
