package openai

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Cooldown         time.Duration
	MaxHalfOpen      uint32
}

// breakerClient rejects calls with gobreaker.ErrOpenState once FailureThreshold
// consecutive calls have failed, until Cooldown elapses.
type breakerClient struct {
	inner    Client
	complete *gobreaker.CircuitBreaker[string]
	embed    *gobreaker.CircuitBreaker[[][]float32]
}

func WithBreaker(inner Client, cfg BreakerConfig, log *logger.Logger) Client {
	if inner == nil {
		return nil
	}
	if cfg.Name == "" {
		cfg.Name = "llm"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.MaxHalfOpen == 0 {
		cfg.MaxHalfOpen = 1
	}
	b := &breakerClient{
		inner:    inner,
		complete: gobreaker.NewCircuitBreaker[string](breakerSettings(cfg.Name+"_complete", cfg, log)),
		embed:    gobreaker.NewCircuitBreaker[[][]float32](breakerSettings(cfg.Name+"_embed", cfg, log)),
	}
	// State changes only fire on transitions; publish the initial closed state.
	m := observability.Current()
	m.SetBreakerState(b.complete.Name(), float64(gobreaker.StateClosed))
	m.SetBreakerState(b.embed.Name(), float64(gobreaker.StateClosed))
	return b
}

func breakerSettings(name string, cfg BreakerConfig, log *logger.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpen,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// canceled calls are not counted as failures
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.Current().SetBreakerState(name, float64(to))
			if log != nil {
				log.Warn("model circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	}
}

func (b *breakerClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	return b.embed.Execute(func() ([][]float32, error) {
		return b.inner.Embed(ctx, inputs)
	})
}

func (b *breakerClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return b.complete.Execute(func() (string, error) {
		return b.inner.Complete(ctx, req)
	})
}
