// Package qdrant implements the vector index on a Qdrant server over gRPC.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

const (
	payloadContent = "content"
	payloadChunkID = "chunk_id"
)

// pointNamespace derives stable point UUIDs from chunk IDs.
var pointNamespace = uuid.MustParse("6f1b7c1e-4a43-4d0a-9f55-2f3c8f7e9a10")

// client is the subset of *qdrant.Client used by the repository.
type client interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
}

// Config holds connection and collection parameters.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimensions int
}

// Repo is the Qdrant-backed vector index.
type Repo struct {
	client     client
	collection string
	dimensions int
}

// Dial connects to Qdrant. The returned close function releases the connection.
func Dial(cfg Config) (*Repo, func() error, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return New(c, cfg.Collection, cfg.Dimensions), c.Close, nil
}

// New creates a repository over an existing client.
func New(c client, collection string, dimensions int) *Repo {
	return &Repo{client: c, collection: collection, dimensions: dimensions}
}

// EnsureCollection creates the cosine collection and its document_id
// keyword index unless the collection already exists.
func (r *Repo) EnsureCollection(ctx context.Context) error {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", r.collection, err)
	}
	if exists {
		return nil
	}

	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(r.dimensions), //nolint:gosec // validated positive in config
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}

	_, err = r.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: r.collection,
		FieldName:      domchunk.MetaDocumentID,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("index %s payload: %w", domchunk.MetaDocumentID, err)
	}
	return nil
}

// Insert upserts chunks and waits until they are searchable.
func (r *Repo) Insert(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		payload := make(map[string]*qdrant.Value, len(c.Metadata())+2)
		for k, v := range c.Metadata() {
			payload[k] = qdrant.NewValueString(v)
		}
		payload[payloadContent] = qdrant.NewValueString(c.Content())
		payload[payloadChunkID] = qdrant.NewValueString(c.ID())

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(c.ID())),
			Vectors: qdrant.NewVectors(c.Vector()...),
			Payload: payload,
		}
	}

	_, err := r.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: r.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search returns the k chunks closest to vector, pre-filtered by payload equality.
func (r *Repo) Search(
	ctx context.Context, vector []float32, k int, filters filter.Expression,
) ([]result.Result, error) {
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)), //nolint:gosec // k is positive
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filters),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.collection, err)
	}

	out := make([]result.Result, 0, len(points))
	for _, p := range points {
		meta := make(map[string]string, len(p.GetPayload()))
		for k, v := range p.GetPayload() {
			meta[k] = v.GetStringValue()
		}
		content := meta[payloadContent]
		id := meta[payloadChunkID]
		delete(meta, payloadContent)
		delete(meta, payloadChunkID)
		out = append(out, result.New(id, meta[domchunk.MetaDocumentID], float64(p.GetScore()), content, meta))
	}
	return out, nil
}

// DeleteDocument removes every chunk of a document.
func (r *Repo) DeleteDocument(ctx context.Context, documentID string) error {
	expr, err := filter.ByDocument(documentID)
	if err != nil {
		return fmt.Errorf("build filter: %w", err)
	}
	_, err = r.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: r.collection,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: buildFilter(expr)},
		},
	})
	if err != nil {
		return fmt.Errorf("delete chunks of %s: %w", documentID, err)
	}
	return nil
}

// HealthCheck verifies the server responds.
func (r *Repo) HealthCheck(ctx context.Context) error {
	if _, err := r.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health: %w", err)
	}
	return nil
}

func buildFilter(expr filter.Expression) *qdrant.Filter {
	if expr.IsEmpty() {
		return nil
	}
	conds := make([]*qdrant.Condition, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		conds = append(conds, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   c.Key(),
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: c.Value()}},
				},
			},
		})
	}
	return &qdrant.Filter{Must: conds}
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}
