package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/mba-counselor/internal/platform/envutil"
)

type Config struct {
	Port        int    `validate:"min=1,max=65535"`
	LogMode     string `validate:"omitempty,oneof=development production prod dev"`
	ServiceName string `validate:"required"`
	Environment string

	VectorProvider  string `validate:"oneof=pgvector qdrant pinecone"`
	VectorNamespace string `validate:"required"`

	LLMBreakerFailures int           `validate:"min=1"`
	LLMBreakerCooldown time.Duration `validate:"min=0"`

	SessionIdleTTL time.Duration `validate:"gt=0"`
	SessionStore   string        `validate:"oneof=memory redis"`
	RedisAddr      string        `validate:"required_if=SessionStore redis"`

	ChatRatePerMinute int `validate:"min=0"`

	RetrievalLimit int `validate:"min=1,max=100"`
	SynthTopN      int `validate:"min=1,max=20"`
	ContextTurns   int `validate:"min=1,max=100"`

	LowFeeThreshold  float64 `validate:"gt=0"`
	MidFeeThreshold  float64 `validate:"gtefield=LowFeeThreshold"`
	HighFeeThreshold float64 `validate:"gtefield=MidFeeThreshold"`

	PersonaPath    string
	AllowedOrigins []string
	CatalogTTL     time.Duration `validate:"gt=0"`
}

func LoadConfig() Config {
	return Config{
		Port:        envutil.Int("PORT", 8080),
		LogMode:     strings.ToLower(envutil.String("LOG_MODE", "development")),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "mba-counselor"),
		Environment: envutil.String("APP_ENV", "development"),

		VectorProvider:  strings.ToLower(envutil.String("VECTOR_PROVIDER", string(VectorProviderPGVector))),
		VectorNamespace: envutil.String("VECTOR_NAMESPACE", "programs"),

		LLMBreakerFailures: envutil.Int("LLM_BREAKER_FAILURES", 5),
		LLMBreakerCooldown: envutil.Duration("LLM_BREAKER_COOLDOWN_SECONDS", 30, time.Second),

		SessionIdleTTL: envutil.Duration("SESSION_IDLE_TTL_MINUTES", 30, time.Minute),
		SessionStore:   strings.ToLower(envutil.String("SESSION_STORE", "memory")),
		RedisAddr:      envutil.String("REDIS_ADDR", ""),

		ChatRatePerMinute: envutil.Int("CHAT_RATE_PER_MINUTE", 30),

		RetrievalLimit: envutil.Int("RETRIEVAL_LIMIT", 15),
		SynthTopN:      envutil.Int("SYNTH_TOP_N", 5),
		ContextTurns:   envutil.Int("CONTEXT_TURNS", 5),

		LowFeeThreshold:  envutil.Float("LOW_FEE_THRESHOLD", 35000),
		MidFeeThreshold:  envutil.Float("MID_FEE_THRESHOLD", 45000),
		HighFeeThreshold: envutil.Float("HIGH_FEE_THRESHOLD", 50000),

		PersonaPath:    envutil.String("COUNSELOR_PERSONA_YAML", ""),
		AllowedOrigins: envutil.Strings("CORS_ALLOWED_ORIGINS", nil),
		CatalogTTL:     envutil.Duration("CATALOG_CACHE_SECONDS", 60, time.Second),
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
