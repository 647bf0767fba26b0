package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mba-counselor/internal/pkg/httpx"
	"github.com/yungbote/mba-counselor/internal/platform/ctxutil"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
)

const (
	payloadNamespaceKey = "_mba_namespace"
	payloadVectorIDKey  = "_mba_vector_id"

	cosineDistance    = "Cosine"
	maxErrorBodyBytes = 1024
	maxResponseBytes  = 4 << 20
	maxBackoff        = 5 * time.Second
)

// Point ids are derived from (namespace, content id) so re-importing a program overwrites
// its points instead of duplicating them.
var pointIDNamespaceUUID = uuid.MustParse("6f1c2a9e-5b7d-4c3e-9a41-2d8e0b7f13c5")

type vectorStore struct {
	log         *logger.Logger
	cfg         Config
	baseURL     string
	nsPrefix    string
	http        *http.Client
	maxAttempts int
	backoff     time.Duration
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type searchRequest struct {
	Vector      []float32      `json:"vector"`
	Limit       int            `json:"limit"`
	WithPayload bool           `json:"with_payload"`
	WithVector  bool           `json:"with_vector"`
	Filter      map[string]any `json:"filter,omitempty"`
}

type searchHit struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type deleteRequest struct {
	Points []string `json:"points"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type collectionInfo struct {
	Config struct {
		Params struct {
			Vectors vectorParams `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

// NewVectorStore checks that qdrant is ready and that the content collection exists with
// cosine distance and the embedding dimension, creating it when missing.
func NewVectorStore(ctx context.Context, log *logger.Logger, cfg Config) (pinecone.VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	s := &vectorStore{
		log:         log.With("service", "QdrantVectorStore"),
		cfg:         cfg,
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		nsPrefix:    strings.TrimSpace(cfg.NamespacePrefix),
		http:        &http.Client{Timeout: 10 * time.Second},
		maxAttempts: 3,
		backoff:     250 * time.Millisecond,
	}
	if err := s.verifyReady(ctx); err != nil {
		return nil, err
	}
	s.log.Info("qdrant vector store ready",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"namespace_prefix", s.nsPrefix,
		"vector_dim", cfg.VectorDim,
	)
	return s, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	if s == nil || len(vectors) == 0 {
		return nil
	}
	const op = "upsert"

	ns := s.qualifyNamespace(namespace)
	req := upsertRequest{Points: make([]point, 0, len(vectors))}
	for _, v := range vectors {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return opErr(op, OperationErrorValidation, "vector id is required", nil)
		}
		if err := s.checkDim(op, "vector "+id, v.Values); err != nil {
			return err
		}
		payload := make(map[string]any, len(v.Metadata)+2)
		for k, val := range v.Metadata {
			payload[k] = val
		}
		payload[payloadNamespaceKey] = ns
		payload[payloadVectorIDKey] = id
		req.Points = append(req.Points, point{ID: s.pointID(ns, id), Vector: v.Values, Payload: payload})
	}
	return s.call(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), req, nil)
}

// QueryMatches returns hits by descending cosine score, ties broken by id. Bookkeeping
// payload keys are stripped from the returned metadata.
func (s *vectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	if s == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}
	const op = "query"
	if err := s.checkDim(op, "query vector", q); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	ns := s.qualifyNamespace(namespace)
	conditions := translatedFilter{Must: []any{matchCondition(payloadNamespaceKey, ns)}}
	if len(filter) > 0 {
		extra, err := translateFilterMap(filter)
		if err != nil {
			s.log.Warn("qdrant query filter unsupported", "namespace", ns, "error", err)
			return nil, err
		}
		conditions.merge(extra)
	}

	var hits []searchHit
	req := searchRequest{Vector: q, Limit: topK, WithPayload: true, Filter: conditions.asMap()}
	if err := s.call(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &hits); err != nil {
		return nil, err
	}

	out := make([]pinecone.VectorMatch, 0, len(hits))
	for _, h := range hits {
		id := hitVectorID(h)
		if id == "" {
			continue
		}
		meta := make(map[string]any, len(h.Payload))
		for k, v := range h.Payload {
			if k != payloadNamespaceKey && k != payloadVectorIDKey {
				meta[k] = v
			}
		}
		out = append(out, pinecone.VectorMatch{ID: id, Score: h.Score, Metadata: meta})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if s == nil || len(ids) == 0 {
		return nil
	}
	ns := s.qualifyNamespace(namespace)
	req := deleteRequest{Points: make([]string, 0, len(ids))}
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		pid := s.pointID(ns, id)
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		req.Points = append(req.Points, pid)
	}
	if len(req.Points) == 0 {
		return nil
	}
	return s.call(ctx, "delete", http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, nil)
}

func (s *vectorStore) checkDim(op, what string, v []float32) error {
	if len(v) == 0 {
		return opErr(op, OperationErrorValidation, what+" has no values", nil)
	}
	if s.cfg.VectorDim > 0 && len(v) != s.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("%s dimension mismatch: expected=%d got=%d", what, s.cfg.VectorDim, len(v)), nil)
	}
	return nil
}

// verifyReady pings /readyz, then ensures the collection. Scores are used as cosine
// similarities downstream, so any other distance is rejected.
func (s *vectorStore) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}

	var info collectionInfo
	err = s.callOnce(ctx, op, http.MethodGet, s.collectionPath(""), nil, &info)
	var missing *OperationError
	if errors.As(err, &missing) && missing.StatusCode == http.StatusNotFound {
		create := map[string]vectorParams{"vectors": {Size: s.cfg.VectorDim, Distance: cosineDistance}}
		if err := s.callOnce(ctx, "create_collection", http.MethodPut, s.collectionPath(""), create, nil); err != nil {
			return err
		}
		s.log.Info("qdrant collection created", "collection", s.cfg.Collection, "vector_dim", s.cfg.VectorDim)
		return nil
	}
	if err != nil {
		return err
	}

	got := info.Config.Params.Vectors
	if got.Size != 0 && got.Size != s.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("collection %q vector size mismatch: expected=%d actual=%d", s.cfg.Collection, s.cfg.VectorDim, got.Size), nil)
	}
	if d := strings.TrimSpace(got.Distance); d != "" && !strings.EqualFold(d, cosineDistance) {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("collection %q uses %s distance; cosine required", s.cfg.Collection, d), nil)
	}
	return nil
}

// call retries transport failures and 408/429/5xx. Every qdrant call made here is
// idempotent: point ids are deterministic and deletes are by id.
func (s *vectorStore) call(ctx context.Context, op, method, path string, in, out any) error {
	attempts := s.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	ctx = ctxutil.Default(ctx)
	for attempt := 1; ; attempt++ {
		err := s.callOnce(ctx, op, method, path, in, out)
		if err == nil || attempt >= attempts || !retryable(err) || ctx.Err() != nil {
			return err
		}
		wait := httpx.JitterSleep(minDuration(s.backoff*time.Duration(attempt), maxBackoff))
		s.log.Warn("qdrant call failed; retrying", "operation", op, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}
}

func (s *vectorStore) callOnce(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode envelope failed", err)
	}
	if msg := envelopeError(env.Status); msg != "" {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode result failed", err)
	}
	return nil
}

func retryable(err error) bool {
	var oe *OperationError
	if !errors.As(err, &oe) {
		return httpx.IsRetryableError(err)
	}
	switch oe.Code {
	case OperationErrorTimeout:
		return !errors.Is(oe.Cause, context.Canceled)
	case OperationErrorTransportFailed:
		return httpx.IsRetryableError(oe.Cause)
	case OperationErrorQueryFailed:
		return httpx.IsRetryableHTTPStatus(oe.StatusCode)
	}
	return false
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

// envelopeError returns "" for status "ok" or an absent status, else a readable message.
func envelopeError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		if strings.EqualFold(str, "ok") {
			return ""
		}
		return "status=" + str
	}
	var obj struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &obj) == nil && strings.TrimSpace(obj.Error) != "" {
		return strings.TrimSpace(obj.Error)
	}
	return "status=" + string(raw)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func (s *vectorStore) qualifyNamespace(namespace string) string {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		return s.nsPrefix
	}
	return s.nsPrefix + ":" + ns
}

func (s *vectorStore) pointID(ns, vectorID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(ns+"|"+vectorID)).String()
}

func (s *vectorStore) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}

// hitVectorID prefers the content id kept in the payload over the derived point id.
func hitVectorID(h searchHit) string {
	if id, ok := h.Payload[payloadVectorIDKey].(string); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	var id string
	if json.Unmarshal(h.ID, &id) == nil {
		return strings.TrimSpace(id)
	}
	return ""
}
