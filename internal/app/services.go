package app

import (
	"github.com/yungbote/mba-counselor/internal/modules/counselor"
	"github.com/yungbote/mba-counselor/internal/modules/counselor/steps"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/services"
	"github.com/yungbote/mba-counselor/internal/services/session"
)

type Services struct {
	Sessions  *session.Registry
	Counselor services.CounselorService
	Catalog   services.CatalogService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos) Services {
	log.Info("Wiring services...")

	sql := &steps.SQLSearcher{Contents: reposet.Content}
	retriever := &steps.Retriever{Embed: clients.LLM, Primary: sql, Log: log}
	if clients.VectorStore != nil {
		retriever.Primary = &steps.VectorStoreSearcher{
			Store:     clients.VectorStore,
			Namespace: cfg.VectorNamespace,
			Contents:  reposet.Content,
			Log:       log,
		}
		retriever.Fallback = sql
	}

	engine := counselor.New(counselor.UsecasesDeps{
		Log:       log,
		Gen:       clients.LLM,
		Retriever: retriever,
		Persona:   steps.LoadPersona(cfg.PersonaPath, log),
		Thresholds: steps.Thresholds{
			Low:  cfg.LowFeeThreshold,
			Mid:  cfg.MidFeeThreshold,
			High: cfg.HighFeeThreshold,
		},
		RetrievalLimit: cfg.RetrievalLimit,
		TopN:           cfg.SynthTopN,
	})

	sessionCfg := session.Config{IdleTTL: cfg.SessionIdleTTL}
	if clients.SessionStore != nil {
		sessionCfg.Store = clients.SessionStore
	}
	registry := session.NewRegistry(log, sessionCfg)

	return Services{
		Sessions: registry,
		Counselor: services.NewCounselorService(log, engine, registry, reposet.ConversationLog, services.CounselorConfig{
			ContextTurns: cfg.ContextTurns,
		}),
		Catalog: services.NewCatalogService(log, reposet.Program, cfg.CatalogTTL),
	}
}
