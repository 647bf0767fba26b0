package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	repos "github.com/yungbote/mba-counselor/internal/data/repos/programs"
	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

const DefaultCatalogTTL = time.Minute

// CatalogService serves the program list from a short-lived cache. Concurrent misses
// share one database read.
type CatalogService interface {
	List(ctx context.Context) ([]*types.Program, error)
	Invalidate()
}

type catalogService struct {
	log      *logger.Logger
	programs repos.ProgramRepo
	ttl      time.Duration
	now      func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	cached   []*types.Program
	loadedAt time.Time
}

func NewCatalogService(baseLog *logger.Logger, programs repos.ProgramRepo, ttl time.Duration) CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &catalogService{
		log:      baseLog.With("service", "CatalogService"),
		programs: programs,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *catalogService) List(ctx context.Context) ([]*types.Program, error) {
	s.mu.RLock()
	if s.cached != nil && s.now().Sub(s.loadedAt) < s.ttl {
		out := s.cached
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("programs", func() (any, error) {
		list, err := s.programs.ListAll(dbctx.Context{Ctx: ctx})
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cached, s.loadedAt = list, s.now()
		s.mu.Unlock()
		s.log.Debug("program catalog refreshed", "count", len(list))
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*types.Program), nil
}

func (s *catalogService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
