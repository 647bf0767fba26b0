package steps

import (
	"hash/fnv"
	"strings"
)

var casualPatterns = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"thank you", "thanks", "thank u", "thx", "appreciate", "grateful",
	"please", "excuse me", "sorry", "pardon",
	"bye", "goodbye", "see you", "take care", "have a good day",
	"ok", "okay", "alright", "sure", "yes", "no", "maybe",
	"i see", "understood", "got it", "makes sense",
}

var (
	thanksKeywords   = []string{"thank", "thanks", "thx", "appreciate", "grateful"}
	greetingKeywords = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}
	farewellKeywords = []string{"bye", "goodbye", "see you", "take care"}
)

type CasualCategory string

const (
	CasualThanks   CasualCategory = "thanks"
	CasualGreeting CasualCategory = "greeting"
	CasualFarewell CasualCategory = "farewell"
	CasualGeneral  CasualCategory = "general"
)

// IsCasual matches a phrase exactly, as a prefix followed by a space or comma, or anywhere
// inside an utterance of at most two words.
func IsCasual(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return false
	}
	for _, p := range casualPatterns {
		if msg == p || strings.HasPrefix(msg, p+" ") || strings.HasPrefix(msg, p+",") {
			return true
		}
	}
	if len(strings.Fields(msg)) <= 2 {
		return containsAny(msg, casualPatterns...)
	}
	return false
}

func ClassifyCasual(message string) CasualCategory {
	msg := strings.ToLower(strings.TrimSpace(message))
	switch {
	case containsAny(msg, thanksKeywords...):
		return CasualThanks
	case containsAny(msg, greetingKeywords...):
		return CasualGreeting
	case containsAny(msg, farewellKeywords...):
		return CasualFarewell
	default:
		return CasualGeneral
	}
}

// CasualReply picks from the category's pool by FNV-1a of the lowercased message, so the
// same utterance always gets the same reply.
func CasualReply(p *Persona, message string) string {
	if p == nil {
		p = DefaultPersona()
	}
	var pool []string
	switch ClassifyCasual(message) {
	case CasualThanks:
		pool = p.CasualReplies.Thanks
	case CasualGreeting:
		pool = p.CasualReplies.Greeting
	case CasualFarewell:
		pool = p.CasualReplies.Farewell
	default:
		pool = p.CasualReplies.General
	}
	if len(pool) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(message))))
	return pool[h.Sum32()%uint32(len(pool))]
}
