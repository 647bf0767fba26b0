package steps

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mba-counselor/internal/observability"
)

// Thresholds are per-semester fee cut-offs for the budget rules.
type Thresholds struct {
	Low  float64
	Mid  float64
	High float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: 35000, Mid: 45000, High: 50000}
}

// RankMatches rescores every match from its Similarity (non-finite values count as 0), sorts by descending score (stable),
// and keeps the first match per program. The input slice is not modified.
func RankMatches(matches []ContentMatch, prefs Preferences, th Thresholds) []ContentMatch {
	start := time.Now()
	defer func() { observability.Current().ObserveStage("rank", time.Since(start)) }()

	scored := make([]ContentMatch, 0, len(matches))
	for _, m := range matches {
		if m.Program == nil {
			continue
		}
		if math.IsNaN(m.Similarity) || math.IsInf(m.Similarity, 0) {
			observability.Current().IncFallback("rank", "non_finite_similarity")
			m.Similarity = 0
		}
		m.Score, m.Reasons = scoreMatch(m, prefs, th)
		scored = append(scored, m)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	seen := make(map[uuid.UUID]struct{}, len(scored))
	out := make([]ContentMatch, 0, len(scored))
	for _, m := range scored {
		if _, dup := seen[m.Program.ID]; dup {
			continue
		}
		seen[m.Program.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func scoreMatch(m ContentMatch, prefs Preferences, th Thresholds) (float64, []string) {
	p := m.Program
	score := m.Similarity
	reasons := []string{}

	if prefs.Has(PrefBudget) {
		budget := strings.ToLower(prefs.Text(PrefBudget))
		fee := p.FeesPerSemester
		amount := FormatAmount(fee)
		switch {
		case containsAny(budget, "low", "affordable", "cheap"):
			switch {
			case fee < th.Low:
				score += 0.3
				reasons = append(reasons, fmt.Sprintf("Low fees (%s/semester)", amount))
			case fee < th.Mid:
				score += 0.1
				reasons = append(reasons, fmt.Sprintf("Moderate fees (%s/semester)", amount))
			default:
				score -= 0.1
				reasons = append(reasons, fmt.Sprintf("Higher fees (%s/semester)", amount))
			}
		case containsAny(budget, "high", "premium"):
			if fee > th.High {
				score += 0.2
				reasons = append(reasons, fmt.Sprintf("Premium program (%s/semester)", amount))
			}
		}
	}

	if prefs.Has(PrefSpecialization) && specializationMatches(prefs.Text(PrefSpecialization), p.Specialization) {
		score += 0.4
		reasons = append(reasons, fmt.Sprintf("Matches %s specialization", p.Specialization))
	}

	if prefs.WantsAccreditation() {
		acc := strings.ToLower(p.Accreditations)
		if strings.Contains(acc, "aicte") {
			score += 0.2
			reasons = append(reasons, "AICTE accredited")
		}
		if strings.Contains(acc, "ugc") {
			score += 0.15
			reasons = append(reasons, "UGC recognized")
		}
		if strings.Contains(acc, "naac a") {
			score += 0.25
			reasons = append(reasons, "NAAC A+ rated")
		}
	}

	if subsidy := strings.TrimSpace(p.SubsidyCashback); subsidy != "" {
		score += 0.1
		reasons = append(reasons, "Offers cashback: "+subsidy)
	}
	return score, reasons
}

// specializationMatches: the whole preference, or any of its words, occurs in the record's specialization.
func specializationMatches(pref, programSpec string) bool {
	pref = strings.ToLower(strings.TrimSpace(pref))
	spec := strings.ToLower(programSpec)
	if pref == "" || strings.TrimSpace(spec) == "" {
		return false
	}
	if strings.Contains(spec, pref) {
		return true
	}
	for _, word := range strings.Fields(pref) {
		if strings.Contains(spec, word) {
			return true
		}
	}
	return false
}
