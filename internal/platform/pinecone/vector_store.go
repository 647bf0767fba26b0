package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/mba-counselor/internal/pkg/httpx"
	"github.com/yungbote/mba-counselor/internal/platform/ctxutil"
	"github.com/yungbote/mba-counselor/internal/platform/envutil"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

// VectorStore is the provider-neutral vector index used for program content.
// The qdrant adapter implements the same interface.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// QueryMatches returns IDs with their similarity scores (higher is better).
	QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

type Config struct {
	APIKey          string
	IndexHost       string
	NamespacePrefix string
}

func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		APIKey:          envutil.String("PINECONE_API_KEY", ""),
		IndexHost:       strings.TrimRight(envutil.String("PINECONE_INDEX_HOST", ""), "/"),
		NamespacePrefix: envutil.String("PINECONE_NAMESPACE_PREFIX", "mba"),
	}
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("missing PINECONE_API_KEY")
	}
	if cfg.IndexHost == "" {
		return Config{}, fmt.Errorf("missing PINECONE_INDEX_HOST")
	}
	if !strings.HasPrefix(cfg.IndexHost, "http://") && !strings.HasPrefix(cfg.IndexHost, "https://") {
		cfg.IndexHost = "https://" + cfg.IndexHost
	}
	return cfg, nil
}

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 250 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

type vectorStore struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client

	maxAttempts int
	backoff     time.Duration
}

// StatusError is a non-2xx pinecone response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinecone %s: http %d: %s", e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

func NewVectorStore(log *logger.Logger, cfg Config) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.APIKey == "" || cfg.IndexHost == "" {
		return nil, fmt.Errorf("pinecone api key and index host required")
	}
	if cfg.NamespacePrefix == "" {
		cfg.NamespacePrefix = "mba"
	}
	log.Info("Pinecone vector store selected", "provider", "pinecone", "index_host", cfg.IndexHost, "namespace_prefix", cfg.NamespacePrefix)
	return &vectorStore{
		log:         log.With("service", "PineconeVectorStore"),
		cfg:         cfg,
		http:        &http.Client{Timeout: 10 * time.Second},
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}, nil
}

type queryRequest struct {
	Namespace       string         `json:"namespace"`
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues"`
	IncludeMetadata bool           `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if s == nil || len(vectors) == 0 {
		return nil
	}
	for _, v := range vectors {
		if strings.TrimSpace(v.ID) == "" || len(v.Values) == 0 {
			return fmt.Errorf("pinecone upsert: vector id and values required")
		}
	}
	body := map[string]any{
		"namespace": s.qualifyNamespace(namespace),
		"vectors":   vectors,
	}
	return s.post(ctx, "/vectors/upsert", body, nil)
}

func (s *vectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]VectorMatch, error) {
	if s == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("pinecone query: vector required")
	}
	if topK <= 0 {
		topK = 10
	}
	var resp queryResponse
	err := s.post(ctx, "/query", queryRequest{
		Namespace:       s.qualifyNamespace(namespace),
		Vector:          q,
		TopK:            topK,
		Filter:          filter,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, VectorMatch{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if s == nil || len(ids) == 0 {
		return nil
	}
	body := map[string]any{
		"namespace": s.qualifyNamespace(namespace),
		"ids":       ids,
	}
	return s.post(ctx, "/vectors/delete", body, nil)
}

// post retries throttling, 5xx and transport errors. Every pinecone data-plane call
// used here is idempotent.
func (s *vectorStore) post(ctx context.Context, path string, in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("pinecone encode: %w", err)
	}
	attempts := s.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	ctx = ctxutil.Default(ctx)
	for attempt := 1; ; attempt++ {
		resp, err := s.postOnce(ctx, path, raw, out)
		if err == nil || attempt >= attempts || !httpx.IsRetryableError(err) || ctx.Err() != nil {
			return err
		}
		wait := httpx.JitterSleep(httpx.RetryAfterDuration(resp, s.backoff*time.Duration(attempt), maxBackoff))
		s.log.Warn("pinecone call failed; retrying", "path", path, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}
}

func (s *vectorStore) postOnce(ctx context.Context, path string, raw []byte, out any) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.IndexHost+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp, fmt.Errorf("pinecone %s read: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &StatusError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return resp, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp, fmt.Errorf("pinecone %s decode: %w", path, err)
	}
	return resp, nil
}

func (s *vectorStore) qualifyNamespace(ns string) string {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return s.cfg.NamespacePrefix
	}
	return s.cfg.NamespacePrefix + ":" + ns
}
