package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type slowChecker struct{}

func (slowChecker) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(WithDatabase(&mockPinger{}), WithEmbedding(&mockChecker{}), WithChat(&mockChecker{}))
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{CheckDatabase, CheckEmbedding, CheckChat} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(WithDatabase(&mockPinger{err: errors.New("conn refused")}), WithEmbedding(&mockChecker{}))
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[CheckDatabase])
	}
	if r.Checks[CheckEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[CheckEmbedding])
	}
}

func TestCheck_ChatError(t *testing.T) {
	svc := New(WithChat(&mockChecker{err: errors.New("401")}))
	r := svc.Check(context.Background())

	if r.Status != Degraded || r.Checks[CheckChat] != CheckError {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCheck_NilCheckersSkipped(t *testing.T) {
	var p Pinger
	svc := New(WithDatabase(p), WithEmbedding(nil), WithChat(nil))
	r := svc.Check(context.Background())

	if r.Status != Healthy || len(r.Checks) != 0 {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(WithEmbedding(slowChecker{}), WithTimeout(10*time.Millisecond))
	r := svc.Check(context.Background())

	if r.Checks[CheckEmbedding] != CheckError {
		t.Errorf("expected timed out check to fail, got %q", r.Checks[CheckEmbedding])
	}
}

func TestNames(t *testing.T) {
	svc := New(WithChat(&mockChecker{}), WithDatabase(&mockPinger{}))
	got := svc.Names()
	if len(got) != 2 || got[0] != CheckChat || got[1] != CheckDatabase {
		t.Errorf("Names() = %v", got)
	}
}
