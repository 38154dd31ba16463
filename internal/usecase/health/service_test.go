package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockIndexChecker struct {
	ready bool
	err   error
}

func (m *mockIndexChecker) IndexReady(_ context.Context) (bool, error) { return m.ready, m.err }

type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockIndexChecker{ready: true}, &mockEmbeddingChecker{}, zap.NewNop())
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentDatabase, ComponentIndex, ComponentEmbedding} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_DBErrorIsUnhealthy(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, nil, &mockEmbeddingChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[ComponentDatabase])
	}
	if r.Checks[ComponentEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_EmbeddingErrorIsDegraded(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, &mockEmbeddingChecker{err: errors.New("timeout")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[ComponentEmbedding])
	}
}

func TestCheck_MissingIndexIsDegraded(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockIndexChecker{ready: false}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentIndex] != CheckError {
		t.Errorf("expected index %q, got %q", CheckError, r.Checks[ComponentIndex])
	}
}

func TestCheck_NilOptionalCheckers(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the database check, got %v", r.Checks)
	}
}

func TestCheck_TimeoutBoundsSlowComponent(t *testing.T) {
	svc := New(blockingPinger{}, nil, nil, nil)
	svc.timeout = 20 * time.Millisecond

	start := time.Now()
	r := svc.Check(context.Background())

	if time.Since(start) > time.Second {
		t.Fatal("check did not honour its timeout")
	}
	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}
