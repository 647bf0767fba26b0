package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/openai"
)

const DefaultSynthTopN = 5

type SynthesisInput struct {
	Message     string
	Ranked      []ContentMatch
	Context     string
	Preferences Preferences
}

type Synthesis struct {
	Reply      string
	Generated  []GeneratedRecommendation
	Candidates []ContentMatch
	Status     ParseStatus
	Failed     bool
}

type Synthesizer struct {
	Gen     Generator
	Persona *Persona
	TopN    int
	Log     *logger.Logger
}

// Synthesize issues one generative call over the top-N candidates. A failed call yields
// GenerationErrorReply; the content is otherwise handled by ParseDualChannel.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) Synthesis {
	ctx, span := observability.StartSpan(ctx, "counselor.synthesize")
	defer span.End()
	start := time.Now()
	defer func() { observability.Current().ObserveStage("synthesize", time.Since(start)) }()

	topN := s.TopN
	if topN <= 0 {
		topN = DefaultSynthTopN
	}
	top := in.Ranked
	if len(top) > topN {
		top = top[:topN]
	}
	out := Synthesis{Candidates: top, Generated: []GeneratedRecommendation{}}

	if s.Gen == nil {
		observability.Current().IncFallback("synthesize", "no_model")
		out.Reply, out.Failed = GenerationErrorReply, true
		return out
	}
	persona := s.Persona
	if persona == nil {
		persona = DefaultPersona()
	}

	content, err := s.Gen.Complete(ctx, openai.CompletionRequest{
		System:      persona.SystemPrompt,
		User:        synthesisPrompt(persona, in, top),
		Temperature: 0.4,
		MaxTokens:   1500,
	})
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("response generation failed", "error", err)
		}
		observability.Current().IncFallback("synthesize", "call_failed")
		out.Reply, out.Failed = GenerationErrorReply, true
		return out
	}

	parsed := ParseDualChannel(content)
	if parsed.Status == ParseEmpty || parsed.Status == ParseNoBlock || parsed.Status == ParseMalformed {
		observability.Current().IncFallback("synthesize", string(parsed.Status))
		if s.Log != nil && parsed.Status != ParseEmpty {
			s.Log.Warn("recommendation block unusable; replying with prose only",
				"status", string(parsed.Status),
				"content_preview", truncateRunes(content, 300),
			)
		}
	}
	if parsed.Skipped > 0 && s.Log != nil {
		s.Log.Warn("skipped unusable recommendation entries", "skipped", parsed.Skipped)
	}
	out.Reply = parsed.Reply
	out.Generated = parsed.Recommendations
	out.Status = parsed.Status
	return out
}

// CandidateSummary renders "i. name - specialization - fee - accreditation" lines.
func CandidateSummary(top []ContentMatch) string {
	lines := make([]string, 0, len(top))
	for i, m := range top {
		if m.Program == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s - %s - %s",
			i+1,
			m.Program.Name,
			m.Program.Specialization,
			FormatFee(m.Program.FeesPerSemester),
			defaultString(m.Program.Accreditations, "To be verified"),
		))
	}
	return strings.Join(lines, "\n")
}

func synthesisPrompt(p *Persona, in SynthesisInput, top []ContentMatch) string {
	return strings.Join([]string{
		fmt.Sprintf("As %s, the MBA counselor, respond to the student's query in a natural, supportive way.", defaultString(p.Name, "Alex")),
		"",
		"Student's Message: \"" + in.Message + "\"",
		"",
		"Available Universities:",
		defaultString(CandidateSummary(top), "(none)"),
		"",
		"Previous Conversation: " + in.Context,
		"What I Know About This Student: " + in.Preferences.JSON(true),
		"",
		"SPECIAL CONS GUIDANCE:",
		strings.TrimSpace(p.ConsPolicy),
		"",
		"Instructions:",
		"1. Provide a warm, conversational response (2-3 sentences)",
		"2. If universities match their needs, follow your response with structured recommendations",
		"3. Analyze each university thoroughly for pros, cons, and reasons",
		"4. Be honest and helpful in your assessment",
		"5. Always ask for specific preferences if not provided before providing recommendations",
		"",
		"Format exactly like this if providing recommendations:",
		"[Your conversational response here]",
		"",
		RecommendationsMarker,
		codeFence + "json",
		`[{"name": "University Name", "specialization": "Specialization", "fees": "₹XX,XXX per semester", "accreditations": "Accreditations", "alumni_status": true, "review_rating": 4.2, "review_count": 150, "review_sentiment": ["..."], "review_source": "Google Reviews", "pros": ["..."], "cons": ["..."], "reasons": ["..."]}]`,
		codeFence,
		"",
		"Include as many pros, cons, and reasons as relevant.",
		"The system will use accurate database fees regardless of what you specify in the JSON.",
	}, "\n")
}
