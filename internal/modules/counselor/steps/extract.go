package steps

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/openai"
)

// Generator is the generative text function: one system+user exchange.
type Generator interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

type ExtractDeps struct {
	Gen     Generator
	Persona *Persona
	Log     *logger.Logger
}

// ExtractPreferences asks the model for a flat JSON object of preferences. Empty content,
// unparsable content, or a failed call fall back to KeywordPreferences; it never fails.
func ExtractPreferences(ctx context.Context, deps ExtractDeps, utterance string) Preferences {
	ctx, span := observability.StartSpan(ctx, "counselor.extract_preferences")
	defer span.End()
	start := time.Now()
	defer func() { observability.Current().ObserveStage("extract", time.Since(start)) }()

	if deps.Gen == nil {
		observability.Current().IncFallback("extract", "no_model")
		return KeywordPreferences(utterance)
	}
	persona := deps.Persona
	if persona == nil {
		persona = DefaultPersona()
	}

	content, err := deps.Gen.Complete(ctx, openai.CompletionRequest{
		System:      persona.ExtractionSystem,
		User:        extractionPrompt(utterance),
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		if deps.Log != nil {
			deps.Log.Warn("preference extraction call failed; using keyword fallback", "error", err)
		}
		observability.Current().IncFallback("extract", "call_failed")
		return KeywordPreferences(utterance)
	}

	cleaned := stripCodeFence(content)
	if cleaned == "" {
		observability.Current().IncFallback("extract", "empty")
		return KeywordPreferences(utterance)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		if deps.Log != nil {
			deps.Log.Warn("preference extraction returned unparsable content; using keyword fallback",
				"error", err,
				"content_preview", truncateRunes(cleaned, 200),
			)
		}
		observability.Current().IncFallback("extract", "unparsable")
		return KeywordPreferences(utterance)
	}
	return normalizePreferences(raw)
}

func extractionPrompt(utterance string) string {
	return strings.Join([]string{
		"Analyze this user message and extract their MBA preferences in JSON format:",
		"",
		"User message: \"" + utterance + "\"",
		"",
		"Extract and categorize these preferences:",
		"- specialization: (finance, marketing, analytics, hr, operations, general, etc.)",
		"- budget: (low/affordable, medium, high/premium, or specific amount)",
		"- career_goal: (their career aspirations)",
		"- priorities: (fees, placements, accreditation, ranking, etc.)",
		"- location_preference: (if mentioned)",
		"- experience_level: (fresher, experienced, years of experience)",
		"",
		"IMPORTANT: Return ONLY a valid JSON object with no additional text, explanations, or markdown formatting.",
		`Example: {"specialization": "finance", "budget": "low"}`,
		"If nothing is mentioned, return: {}",
	}, "\n")
}

// stripCodeFence removes a leading ```/```json and a trailing ``` around model output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var fallbackSpecializations = []string{"finance", "marketing", "analytics", "hr", "human resource", "operations", "general", "management"}

// KeywordPreferences is the deterministic extractor: first matching specialization,
// a budget tier, and priority keywords.
func KeywordPreferences(utterance string) Preferences {
	out := Preferences{}
	msg := strings.ToLower(utterance)

	for _, spec := range fallbackSpecializations {
		if strings.Contains(msg, spec) {
			out[PrefSpecialization] = spec
			break
		}
	}

	switch {
	case containsAny(msg, "low", "cheap", "affordable", "budget"):
		out[PrefBudget] = "low"
	case containsAny(msg, "high", "premium", "expensive"):
		out[PrefBudget] = "high"
	}

	var priorities []string
	if containsAny(msg, "fees", "cost", "price", "affordable") {
		priorities = append(priorities, "fees")
	}
	if containsAny(msg, "placement", "job", "career") {
		priorities = append(priorities, "placements")
	}
	if containsAny(msg, "accreditation", "accredited", "approved") {
		priorities = append(priorities, "accreditation")
	}
	if len(priorities) > 0 {
		out[PrefPriorities] = priorities
	}
	return out
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
