package steps

import (
	"context"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type RecommendDeps struct {
	Log        *logger.Logger
	Gen        Generator
	Retriever  *Retriever
	Persona    *Persona
	Thresholds Thresholds
	Strategies []MatchStrategy

	RetrievalLimit int
	TopN           int
	// Categories restricts retrieval; empty searches every category.
	Categories []string
}

type RecommendInput struct {
	Message     string
	Preferences Preferences
	Context     string
}

type RecommendOutput struct {
	Reply       string
	Cards       []RecommendationCard
	Preferences Preferences
	Extracted   Preferences
	Ranked      []ContentMatch
	ParseStatus ParseStatus
}

// Recommend runs extraction, retrieval, ranking, synthesis, and reconciliation for one
// substantive turn. Every stage degrades rather than failing.
func Recommend(ctx context.Context, deps RecommendDeps, in RecommendInput) RecommendOutput {
	extracted := ExtractPreferences(ctx, ExtractDeps{Gen: deps.Gen, Persona: deps.Persona, Log: deps.Log}, in.Message)
	prefs := in.Preferences.Merge(extracted)

	matches := deps.Retriever.Retrieve(ctx, in.Message, deps.RetrievalLimit, deps.Categories)
	th := deps.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}
	ranked := RankMatches(matches, prefs, th)

	synth := (&Synthesizer{Gen: deps.Gen, Persona: deps.Persona, TopN: deps.TopN, Log: deps.Log}).Synthesize(ctx, SynthesisInput{
		Message:     in.Message,
		Ranked:      ranked,
		Context:     in.Context,
		Preferences: prefs,
	})

	cards := (&Reconciler{Strategies: deps.Strategies, Log: deps.Log}).Reconcile(synth.Generated, synth.Candidates, ranked)
	return RecommendOutput{
		Reply:       synth.Reply,
		Cards:       cards,
		Preferences: prefs,
		Extracted:   extracted,
		Ranked:      ranked,
		ParseStatus: synth.Status,
	}
}
