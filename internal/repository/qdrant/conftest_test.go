package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"
)

// mockClient implements the client interface for tests.
type mockClient struct {
	collectionExistsFn func(ctx context.Context, name string) (bool, error)
	createCollectionFn func(ctx context.Context, req *qdrant.CreateCollection) error
	createFieldIndexFn func(ctx context.Context, req *qdrant.CreateFieldIndexCollection) error
	upsertFn           func(ctx context.Context, req *qdrant.UpsertPoints) error
	queryFn            func(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	deleteFn           func(ctx context.Context, req *qdrant.DeletePoints) error
	healthErr          error
}

func (m *mockClient) CollectionExists(ctx context.Context, name string) (bool, error) {
	if m.collectionExistsFn != nil {
		return m.collectionExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockClient) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	if m.createCollectionFn != nil {
		return m.createCollectionFn(ctx, req)
	}
	return nil
}

func (m *mockClient) CreateFieldIndex(
	ctx context.Context, req *qdrant.CreateFieldIndexCollection,
) (*qdrant.UpdateResult, error) {
	if m.createFieldIndexFn != nil {
		return nil, m.createFieldIndexFn(ctx, req)
	}
	return &qdrant.UpdateResult{}, nil
}

func (m *mockClient) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	if m.upsertFn != nil {
		return nil, m.upsertFn(ctx, req)
	}
	return &qdrant.UpdateResult{}, nil
}

func (m *mockClient) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, req)
	}
	return nil, nil
}

func (m *mockClient) Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	if m.deleteFn != nil {
		return nil, m.deleteFn(ctx, req)
	}
	return &qdrant.UpdateResult{}, nil
}

func (m *mockClient) HealthCheck(context.Context) (*qdrant.HealthCheckReply, error) {
	if m.healthErr != nil {
		return nil, m.healthErr
	}
	return &qdrant.HealthCheckReply{}, nil
}
