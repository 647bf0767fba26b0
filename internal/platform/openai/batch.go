package openai

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

const (
	DefaultEmbedDim         = 1536
	DefaultEmbedBatchSize   = 32
	DefaultEmbedConcurrency = 4
)

// Embedder is the single-call embedding surface EmbedBatch fans out over.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type BatchOptions struct {
	BatchSize   int
	Dim         int
	Concurrency int
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultEmbedBatchSize
	}
	if o.Dim <= 0 {
		o.Dim = DefaultEmbedDim
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultEmbedConcurrency
	}
	return o
}

// EmbedBatch returns exactly one vector per input. Every input of a batch that fails
// (or returns the wrong number of vectors) gets an all-zero vector of opts.Dim.
func EmbedBatch(ctx context.Context, e Embedder, inputs []string, opts BatchOptions, log *logger.Logger) [][]float32 {
	opts = opts.withDefaults()
	out := make([][]float32, len(inputs))
	if len(inputs) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for start := 0; start < len(inputs); start += opts.BatchSize {
		start := start
		end := start + opts.BatchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		g.Go(func() error {
			vecs, err := e.Embed(ctx, inputs[start:end])
			if err == nil && len(vecs) == end-start {
				copy(out[start:end], vecs)
				return nil
			}
			if log != nil {
				log.Warn("embedding batch failed; substituting zero vectors",
					"batch_start", start,
					"batch_size", end-start,
					"error", err,
				)
			}
			for i := start; i < end; i++ {
				out[i] = make([]float32, opts.Dim)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
