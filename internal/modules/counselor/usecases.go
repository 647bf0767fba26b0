package counselor

import (
	"context"

	"github.com/yungbote/mba-counselor/internal/modules/counselor/steps"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type UsecasesDeps struct {
	Log *logger.Logger

	Gen       steps.Generator
	Retriever *steps.Retriever
	Persona   *steps.Persona

	Thresholds     steps.Thresholds
	RetrievalLimit int
	TopN           int
	Categories     []string
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Persona == nil {
		deps.Persona = steps.DefaultPersona()
	}
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type (
	Preferences        = steps.Preferences
	RecommendInput     = steps.RecommendInput
	RecommendOutput    = steps.RecommendOutput
	RecommendationCard = steps.RecommendationCard
)

func (u Usecases) Recommend(ctx context.Context, in RecommendInput) RecommendOutput {
	return steps.Recommend(ctx, steps.RecommendDeps{
		Log:            u.deps.Log,
		Gen:            u.deps.Gen,
		Retriever:      u.deps.Retriever,
		Persona:        u.deps.Persona,
		Thresholds:     u.deps.Thresholds,
		RetrievalLimit: u.deps.RetrievalLimit,
		TopN:           u.deps.TopN,
		Categories:     u.deps.Categories,
	}, in)
}

func (u Usecases) IsCasual(message string) bool { return steps.IsCasual(message) }

func (u Usecases) CasualReply(message string) string {
	return steps.CasualReply(u.deps.Persona, message)
}
