package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
	"github.com/yungbote/mba-counselor/internal/platform/envutil"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

const defaultKeyPrefix = "counselor:session:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

func RedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Addr:     envutil.String("REDIS_ADDR", ""),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		TTL:      envutil.Duration("SESSION_IDLE_TTL_MINUTES", 30, time.Minute),
		Prefix:   envutil.String("REDIS_SESSION_PREFIX", defaultKeyPrefix),
	}
}

type RedisSnapshotStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisSnapshotStore(log *logger.Logger, cfg RedisConfig) (*RedisSnapshotStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultIdleTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultKeyPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisSnapshotStore{
		log:    log.With("service", "RedisSnapshotStore"),
		rdb:    rdb,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
	}, nil
}

func (s *RedisSnapshotStore) key(id string) string { return s.prefix + id }

func (s *RedisSnapshotStore) Load(ctx context.Context, id string) (Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Snapshot{}, pkgerrors.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get session: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode session snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(snap.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

func (s *RedisSnapshotStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
