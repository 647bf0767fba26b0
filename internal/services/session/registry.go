package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mba-counselor/internal/observability"
	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

const DefaultIdleTTL = 30 * time.Minute

// SnapshotStore persists sessions outside the process so another instance can resume them.
type SnapshotStore interface {
	Load(ctx context.Context, id string) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context, id string) error
}

type Config struct {
	IdleTTL time.Duration
	Store   SnapshotStore
}

type Registry struct {
	log     *logger.Logger
	idleTTL time.Duration
	store   SnapshotStore
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(log *logger.Logger, cfg Config) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	return &Registry{
		log:      log.With("service", "SessionRegistry"),
		idleTTL:  cfg.IdleTTL,
		store:    cfg.Store,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// GetOrCreate returns the live session for id. An unknown id is resumed from the
// snapshot store when possible. A blank or non-uuid id gets a fresh session.
func (r *Registry) GetOrCreate(ctx context.Context, id string) *Session {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	now := r.now()

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(now)
		return s
	}

	loaded := r.load(ctx, id, now)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		return s
	}
	r.sessions[id] = loaded
	observability.Current().SetActiveSessions(len(r.sessions))
	return loaded
}

func (r *Registry) load(ctx context.Context, id string, now time.Time) *Session {
	if r.store == nil {
		return newSession(id, now)
	}
	snap, err := r.store.Load(ctx, id)
	switch {
	case err == nil:
		snap.ID = id
		return fromSnapshot(snap, now)
	case errors.Is(err, pkgerrors.ErrNotFound):
	default:
		r.log.Warn("session snapshot load failed", "session_id", id, "error", err)
	}
	return newSession(id, now)
}

// Get returns a live session without creating one.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[strings.TrimSpace(id)]
	return s, ok
}

// Save writes the snapshot to the store, if one is configured. Caller holds the session lock.
// A session that has been evicted or reset is not written back.
func (r *Registry) Save(ctx context.Context, s *Session) {
	if r.store == nil || s == nil {
		return
	}
	r.mu.RLock()
	live := r.sessions[s.ID] == s
	r.mu.RUnlock()
	if !live {
		return
	}
	if err := r.store.Save(ctx, s.Snapshot()); err != nil {
		r.log.Warn("session snapshot save failed", "session_id", s.ID, "error", err)
	}
}

// Reset drops the session for id and returns a new, empty one under a fresh id.
func (r *Registry) Reset(ctx context.Context, id string) *Session {
	r.Evict(ctx, id)
	return r.GetOrCreate(ctx, uuid.NewString())
}

// Evict removes a session from memory and from the snapshot store. The snapshot is deleted
// only after any in-flight turn on the session has released its lock.
func (r *Registry) Evict(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	observability.Current().SetActiveSessions(n)

	if r.store == nil || id == "" {
		return ok
	}
	if ok {
		s.Lock()
		defer s.Unlock()
	}
	if err := r.store.Delete(ctx, id); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		r.log.Warn("session snapshot delete failed", "session_id", id, "error", err)
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// evictIdle drops in-memory sessions idle longer than the TTL. Snapshots expire on their own.
func (r *Registry) evictIdle() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.idleTTL {
			delete(r.sessions, id)
			evicted++
		}
	}
	observability.Current().SetActiveSessions(len(r.sessions))
	return evicted
}

// StartJanitor evicts idle sessions every interval until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 4
		if interval < time.Second {
			interval = time.Second
		}
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := r.evictIdle(); n > 0 {
					r.log.Info("evicted idle sessions", "count", n, "remaining", r.Len())
				}
			}
		}
	}()
}
