package steps

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

//go:embed persona.yaml
var defaultPersonaYAML []byte

// Persona is the counselor's fixed instruction set: tone, the pros/cons content policy,
// and the canned casual replies.
type Persona struct {
	Name             string        `yaml:"name"`
	SystemPrompt     string        `yaml:"system_prompt"`
	ConsPolicy       string        `yaml:"cons_policy"`
	ExtractionSystem string        `yaml:"extraction_system"`
	CasualReplies    CasualReplies `yaml:"casual_replies"`
}

type CasualReplies struct {
	Thanks   []string `yaml:"thanks"`
	Greeting []string `yaml:"greeting"`
	Farewell []string `yaml:"farewell"`
	General  []string `yaml:"general"`
}

func ParsePersona(raw []byte) (*Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return nil, fmt.Errorf("parse persona: system_prompt is required")
	}
	c := p.CasualReplies
	if len(c.Thanks) == 0 || len(c.Greeting) == 0 || len(c.Farewell) == 0 || len(c.General) == 0 {
		return nil, fmt.Errorf("parse persona: every casual reply pool needs at least one entry")
	}
	return &p, nil
}

// DefaultPersona returns the embedded persona.
func DefaultPersona() *Persona {
	p, err := ParsePersona(defaultPersonaYAML)
	if err != nil {
		panic(err)
	}
	return p
}

// LoadPersona reads the override file at path. An empty path, an unreadable file, or an
// invalid document yields the embedded default.
func LoadPersona(path string, log *logger.Logger) *Persona {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPersona()
	}
	raw, err := os.ReadFile(path)
	if err == nil {
		var p *Persona
		if p, err = ParsePersona(raw); err == nil {
			return p
		}
	}
	if log != nil {
		log.Warn("persona override unusable; using embedded default", "path", path, "error", err)
	}
	return DefaultPersona()
}
