package steps

import (
	"strings"
	"time"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

// RecommendationCard is the outward card. Fees, links, alumni and review fields always come from the record.
type RecommendationCard struct {
	Name            string   `json:"name"`
	Specialization  string   `json:"specialization"`
	Fees            string   `json:"fees"`
	Accreditations  string   `json:"accreditations"`
	Website         string   `json:"website"`
	Brochure        string   `json:"brochure"`
	AlumniStatus    bool     `json:"alumni_status"`
	ReviewRating    float64  `json:"review_rating"`
	ReviewCount     int      `json:"review_count"`
	ReviewSentiment []string `json:"review_sentiment"`
	ReviewSource    string   `json:"review_source"`
	Pros            []string `json:"pros"`
	Cons            []string `json:"cons"`
	Reasons         []string `json:"reasons"`
}

var (
	defaultPros    = []string{"Good option", "Established institution"}
	defaultCons    = []string{"Limited information on program-specific drawbacks"}
	defaultReasons = []string{"Matches your requirements"}
)

// MatchStrategy resolves a generated name to a record. top is the synthesis candidate set;
// pool is the full ranked list.
type MatchStrategy interface {
	Name() string
	Match(name string, top, pool []*types.Program) *types.Program
}

// ExactMatch compares names case-insensitively within top.
type ExactMatch struct{}

func (ExactMatch) Name() string { return "exact" }

func (ExactMatch) Match(name string, top, _ []*types.Program) *types.Program {
	for _, p := range top {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p
		}
	}
	return nil
}

// SubstringMatch accepts either name containing the other, within top.
type SubstringMatch struct{}

func (SubstringMatch) Name() string { return "substring" }

func (SubstringMatch) Match(name string, top, _ []*types.Program) *types.Program {
	return substringMatch(name, top)
}

// FallbackPoolMatch repeats SubstringMatch over the broader ranked pool.
type FallbackPoolMatch struct{}

func (FallbackPoolMatch) Name() string { return "fallback_pool" }

func (FallbackPoolMatch) Match(name string, _, pool []*types.Program) *types.Program {
	return substringMatch(name, pool)
}

func substringMatch(name string, candidates []*types.Program) *types.Program {
	needle := strings.ToLower(name)
	for _, p := range candidates {
		hay := strings.ToLower(strings.TrimSpace(p.Name))
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return p
		}
	}
	return nil
}

// DefaultStrategies is the precedence order: exact, then substring, then the broader pool.
func DefaultStrategies() []MatchStrategy {
	return []MatchStrategy{ExactMatch{}, SubstringMatch{}, FallbackPoolMatch{}}
}

type Reconciler struct {
	Strategies []MatchStrategy
	Log        *logger.Logger
}

// Reconcile turns generated entries into cards. Entries without a name, or whose name no
// strategy resolves, are dropped with a warning.
func (r *Reconciler) Reconcile(generated []GeneratedRecommendation, top, pool []ContentMatch) []RecommendationCard {
	start := time.Now()
	defer func() { observability.Current().ObserveStage("reconcile", time.Since(start)) }()

	strategies := r.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	topPrograms := programsOf(top)
	poolPrograms := programsOf(pool)

	cards := make([]RecommendationCard, 0, len(generated))
	for _, g := range generated {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			r.warn("generated recommendation has no name; dropping")
			observability.Current().IncReconcile("dropped")
			continue
		}
		var (
			record  *types.Program
			matched string
		)
		for _, s := range strategies {
			if record = s.Match(name, topPrograms, poolPrograms); record != nil {
				matched = s.Name()
				break
			}
		}
		if record == nil {
			r.warn("no program record matches generated recommendation; dropping", "name", name)
			observability.Current().IncReconcile("dropped")
			continue
		}
		observability.Current().IncReconcile(matched)
		cards = append(cards, mergeCard(g, record))
	}
	return cards
}

func (r *Reconciler) warn(msg string, kv ...interface{}) {
	if r.Log != nil {
		r.Log.Warn(msg, kv...)
	}
}

func mergeCard(g GeneratedRecommendation, p *types.Program) RecommendationCard {
	sentiment := []string(p.ReviewSentiment)
	if sentiment == nil {
		sentiment = []string{}
	}
	return RecommendationCard{
		Name:            p.Name,
		Specialization:  defaultString(strings.TrimSpace(g.Specialization), p.Specialization),
		Fees:            FormatFee(p.FeesPerSemester),
		Accreditations:  defaultString(strings.TrimSpace(g.Accreditations), defaultString(p.Accreditations, "To be verified")),
		Website:         firstNonEmpty(p.Website, p.LandingPageURL, "#"),
		Brochure:        firstNonEmpty(p.BrochureURL, p.BrochureFilePath, "#"),
		AlumniStatus:    p.AlumniStatus,
		ReviewRating:    p.ReviewRating,
		ReviewCount:     p.ReviewCount,
		ReviewSentiment: sentiment,
		ReviewSource:    defaultString(p.ReviewSource, "Not Available"),
		Pros:            listOrDefault(g.Pros, defaultPros),
		Cons:            listOrDefault(g.Cons, defaultCons),
		Reasons:         listOrDefault(g.Reasons, defaultReasons),
	}
}

func programsOf(matches []ContentMatch) []*types.Program {
	out := make([]*types.Program, 0, len(matches))
	for _, m := range matches {
		if m.Program != nil {
			out = append(out, m.Program)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func listOrDefault(list, def []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
