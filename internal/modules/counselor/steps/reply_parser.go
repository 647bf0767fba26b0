package steps

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The dual-channel reply grammar:
//
//	reply      = prose [ marker block ]
//	marker     = "RECOMMENDATIONS:"            (first occurrence splits the content)
//	block      = fence [ lang ] LF payload fence
//	fence      = "```"
//	payload    = JSON array of recommendation objects
const (
	RecommendationsMarker = "RECOMMENDATIONS:"
	codeFence             = "```"
)

const (
	EmptyResponseReply   = "I apologize, but I received an empty response. Could you please rephrase your question?"
	GenerationErrorReply = "I apologize, but I'm having trouble processing your request right now. Could you please rephrase your question?"
)

// ParseStatus says which branch of the grammar the content took.
type ParseStatus string

const (
	ParseOK        ParseStatus = "ok"
	ParseEmpty     ParseStatus = "empty"
	ParseNoMarker  ParseStatus = "no_marker"
	ParseNoBlock   ParseStatus = "no_block"
	ParseMalformed ParseStatus = "malformed"
)

// GeneratedRecommendation is one untrusted entry from the structured block. Fee and review
// fields are accepted but never used; the reconciler takes them from the record.
type GeneratedRecommendation struct {
	Name           string          `json:"name"`
	Specialization string          `json:"specialization"`
	Fees           json.RawMessage `json:"fees,omitempty"`
	Accreditations string          `json:"accreditations"`
	Pros           []string        `json:"pros"`
	Cons           []string        `json:"cons"`
	Reasons        []string        `json:"reasons"`
}

type ParsedReply struct {
	Reply           string
	Recommendations []GeneratedRecommendation
	Status          ParseStatus
	// Skipped counts block entries that were not objects.
	Skipped int
}

// ParseDualChannel splits model output into prose and recommendations. It never fails:
// a missing or malformed block leaves the prose as the reply and no recommendations.
func ParseDualChannel(content string) ParsedReply {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ParsedReply{Reply: EmptyResponseReply, Recommendations: []GeneratedRecommendation{}, Status: ParseEmpty}
	}

	idx := strings.Index(trimmed, RecommendationsMarker)
	if idx < 0 {
		return ParsedReply{Reply: trimmed, Recommendations: []GeneratedRecommendation{}, Status: ParseNoMarker}
	}
	prose := strings.TrimSpace(trimmed[:idx])
	if prose == "" {
		prose = trimmed
	}
	out := ParsedReply{Reply: prose, Recommendations: []GeneratedRecommendation{}}

	payload, ok := fencedPayload(trimmed[idx+len(RecommendationsMarker):])
	if !ok {
		out.Status = ParseNoBlock
		return out
	}
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		out.Status = ParseMalformed
		return out
	}
	for _, raw := range entries {
		var rec GeneratedRecommendation
		if string(raw) == "null" {
			out.Skipped++
			continue
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			out.Skipped++
			continue
		}
		out.Recommendations = append(out.Recommendations, rec)
	}
	out.Status = ParseOK
	return out
}

// UnmarshalJSON accepts loosely typed text fields: a list where a string is expected is
// joined, a bare string where a list is expected becomes a one-element list. An entry that
// is not an object is an error.
func (g *GeneratedRecommendation) UnmarshalJSON(b []byte) error {
	var aux struct {
		Name           looseString     `json:"name"`
		Specialization looseString     `json:"specialization"`
		Fees           json.RawMessage `json:"fees,omitempty"`
		Accreditations looseString     `json:"accreditations"`
		Pros           looseStrings    `json:"pros"`
		Cons           looseStrings    `json:"cons"`
		Reasons        looseStrings    `json:"reasons"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*g = GeneratedRecommendation{
		Name:           string(aux.Name),
		Specialization: string(aux.Specialization),
		Fees:           aux.Fees,
		Accreditations: string(aux.Accreditations),
		Pros:           []string(aux.Pros),
		Cons:           []string(aux.Cons),
		Reasons:        []string(aux.Reasons),
	}
	return nil
}

type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = looseString(strings.Join(flattenText(v), ", "))
	return nil
}

type looseStrings []string

func (s *looseStrings) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*s = nil
		return nil
	}
	*s = flattenText(v)
	return nil
}

// flattenText renders scalars and nested lists as non-empty strings. Objects are dropped.
func flattenText(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t = strings.TrimSpace(t); t != "" {
			return []string{t}
		}
		return nil
	case bool:
		return []string{strconv.FormatBool(t)}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, flattenText(e)...)
		}
		return out
	}
	return nil
}

// fencedPayload returns the interior of the first complete fenced block, without its
// language tag.
func fencedPayload(s string) (string, bool) {
	open := strings.Index(s, codeFence)
	if open < 0 {
		return "", false
	}
	rest := s[open+len(codeFence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isLangTag(tag) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, codeFence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func isLangTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
