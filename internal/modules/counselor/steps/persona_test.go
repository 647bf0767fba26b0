package steps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

func TestDefaultPersonaIsComplete(t *testing.T) {
	p := DefaultPersona()
	if p.Name != "Alex" {
		t.Fatalf("name: got=%q", p.Name)
	}
	if !strings.Contains(p.SystemPrompt, RecommendationsMarker) {
		t.Fatalf("system prompt must describe the recommendations marker")
	}
	if !strings.Contains(p.ConsPolicy, "high fees") {
		t.Fatalf("cons policy must forbid fee cons")
	}
	if len(p.CasualReplies.Thanks) != 4 || len(p.CasualReplies.Farewell) != 3 {
		t.Fatalf("casual pools: %+v", p.CasualReplies)
	}
}

func TestLoadPersonaOverrideAndFallback(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	body := strings.Join([]string{
		"name: Sam",
		"system_prompt: be kind",
		"casual_replies:",
		"  thanks: [t]",
		"  greeting: [g]",
		"  farewell: [f]",
		"  general: [x]",
	}, "\n")
	if err := os.WriteFile(good, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if p := LoadPersona(good, logger.NewNop()); p.Name != "Sam" || CasualReply(p, "bye") != "f" {
		t.Fatalf("override not applied: %+v", p)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("name: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, path := range []string{bad, filepath.Join(dir, "missing.yaml"), ""} {
		if p := LoadPersona(path, logger.NewNop()); p.Name != "Alex" {
			t.Fatalf("LoadPersona(%q) should fall back to default, got %q", path, p.Name)
		}
	}
}
