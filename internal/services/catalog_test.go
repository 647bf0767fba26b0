package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type countingProgramRepo struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (r *countingProgramRepo) ListAll(dbc dbctx.Context) ([]*types.Program, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	if r.err != nil {
		return nil, r.err
	}
	return []*types.Program{{ID: uuid.New(), Name: "Alpha"}}, nil
}

func (r *countingProgramRepo) GetByIDs(dbctx.Context, []uuid.UUID) ([]*types.Program, error) {
	return nil, nil
}

func (r *countingProgramRepo) UpsertByName(dbctx.Context, *types.Program) (*types.Program, error) {
	return nil, nil
}

func (r *countingProgramRepo) UpdateReviews(dbctx.Context, string, float64, int, []string, string) error {
	return nil
}

func TestCatalogCachesWithinTTL(t *testing.T) {
	repo := &countingProgramRepo{}
	svc := NewCatalogService(logger.NewNop(), repo, time.Minute).(*catalogService)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.List(ctx); err != nil {
			t.Fatalf("List: %v", err)
		}
	}
	if n := repo.calls.Load(); n != 1 {
		t.Fatalf("calls within ttl: want=1 got=%d", n)
	}

	now = now.Add(2 * time.Minute)
	_, _ = svc.List(ctx)
	svc.Invalidate()
	_, _ = svc.List(ctx)
	if n := repo.calls.Load(); n != 3 {
		t.Fatalf("calls after expiry and invalidate: want=3 got=%d", n)
	}
}

func TestCatalogConcurrentMissesShareOneRead(t *testing.T) {
	repo := &countingProgramRepo{gate: make(chan struct{})}
	svc := NewCatalogService(logger.NewNop(), repo, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.List(context.Background())
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for repo.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	if n := repo.calls.Load(); n != 1 {
		t.Fatalf("calls: want=1 got=%d", n)
	}
}

func TestCatalogErrorIsNotCached(t *testing.T) {
	repo := &countingProgramRepo{err: errors.New("db down")}
	svc := NewCatalogService(logger.NewNop(), repo, time.Minute)
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatalf("want error")
	}
	repo.err = nil
	list, err := svc.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("want recovery got=%v err=%v", list, err)
	}
}
