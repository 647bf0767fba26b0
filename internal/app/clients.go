package app

import (
	"context"
	"fmt"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/openai"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
	"github.com/yungbote/mba-counselor/internal/services/session"
)

type Clients struct {
	LLM          openai.Client
	VectorStore  pinecone.VectorStore
	SessionStore *session.RedisSnapshotStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// OpenAI
	raw, err := openai.NewClient(log, openai.ConfigFromEnv())
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	llm := openai.WithBreaker(raw, openai.BreakerConfig{
		Name:             "openai",
		FailureThreshold: uint32(cfg.LLMBreakerFailures),
		Cooldown:         cfg.LLMBreakerCooldown,
	}, log)

	// Vector index
	vs, err := resolveVectorStore(ctx, log, cfg.VectorProvider)
	if err != nil {
		return Clients{}, err
	}

	// Redis
	var store *session.RedisSnapshotStore
	if cfg.SessionStore == "redis" {
		rcfg := session.RedisConfigFromEnv()
		rcfg.Addr = cfg.RedisAddr
		rcfg.TTL = cfg.SessionIdleTTL
		store, err = session.NewRedisSnapshotStore(log, rcfg)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis session store: %w", err)
		}
	}

	return Clients{LLM: llm, VectorStore: vs, SessionStore: store}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SessionStore != nil {
		_ = c.SessionStore.Close()
	}
}
