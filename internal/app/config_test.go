package app

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "VECTOR_PROVIDER", "SESSION_STORE", "RETRIEVAL_LIMIT", "LOW_FEE_THRESHOLD"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Port != 8080 || cfg.VectorProvider != "pgvector" || cfg.RetrievalLimit != 15 || cfg.SynthTopN != 5 {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.LowFeeThreshold != 35000 || cfg.MidFeeThreshold != 45000 || cfg.HighFeeThreshold != 50000 {
		t.Fatalf("thresholds: %+v", cfg)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("idle ttl: %v", cfg.SessionIdleTTL)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"port":               func(c *Config) { c.Port = 70000 },
		"provider":           func(c *Config) { c.VectorProvider = "milvus" },
		"redis without addr": func(c *Config) { c.SessionStore = "redis"; c.RedisAddr = "" },
		"threshold order":    func(c *Config) { c.MidFeeThreshold = c.LowFeeThreshold - 1 },
		"retrieval limit":    func(c *Config) { c.RetrievalLimit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := LoadConfig()
			mutate(&cfg)
			err := cfg.Validate()
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("want validation error got=%v", err)
			}
		})
	}
}
