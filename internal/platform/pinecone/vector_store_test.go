package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestVectorStore(t *testing.T, rt func(*http.Request) (*http.Response, error)) *vectorStore {
	t.Helper()
	return &vectorStore{
		log:  logger.NewNop(),
		cfg:  Config{APIKey: "pk", IndexHost: "https://idx.pinecone.local", NamespacePrefix: "mba"},
		http: &http.Client{Transport: roundTripFunc(rt)},
	}
}

func jsonResponse(t *testing.T, v any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: io.NopCloser(bytes.NewReader(raw))}
}

func TestQueryMatchesRequestAndMetadata(t *testing.T) {
	var captured queryRequest
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/query" {
			t.Fatalf("path: want=/query got=%s", r.URL.Path)
		}
		if r.Header.Get("Api-Key") != "pk" {
			t.Fatalf("api key header missing")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return jsonResponse(t, map[string]any{
			"matches": []map[string]any{
				{"id": "c1", "score": 0.91, "metadata": map[string]any{"content_type": "webpage"}},
				{"id": "", "score": 0.5},
			},
		}), nil
	})

	filter := map[string]any{"content_type": map[string]any{"$in": []string{"webpage"}}}
	matches, err := s.QueryMatches(context.Background(), "programs", []float32{1, 0}, 15, filter)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if captured.Namespace != "mba:programs" || captured.TopK != 15 || !captured.IncludeMetadata {
		t.Fatalf("request: %+v", captured)
	}
	if len(matches) != 1 || matches[0].ID != "c1" || matches[0].Metadata["content_type"] != "webpage" {
		t.Fatalf("matches: %+v", matches)
	}
}

func TestQueryMatchesHTTPError(t *testing.T) {
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusTooManyRequests, Header: make(http.Header), Body: io.NopCloser(bytes.NewBufferString("slow down"))}, nil
	})
	if _, err := s.QueryMatches(context.Background(), "programs", []float32{1}, 3, nil); err == nil {
		t.Fatalf("want error on 429")
	}
}

func TestUpsertValidatesAndQualifiesNamespace(t *testing.T) {
	var body map[string]any
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/vectors/upsert" {
			t.Fatalf("path: got=%s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		return jsonResponse(t, map[string]any{"upsertedCount": 1}), nil
	})
	if err := s.Upsert(context.Background(), "programs", []Vector{{ID: "", Values: []float32{1}}}); err == nil {
		t.Fatalf("want validation error for empty id")
	}
	if err := s.Upsert(context.Background(), "programs", []Vector{{ID: "c1", Values: []float32{1}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if body["namespace"] != "mba:programs" {
		t.Fatalf("namespace: got=%v", body["namespace"])
	}
}

func TestResolveConfigFromEnv(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "k")
	t.Setenv("PINECONE_INDEX_HOST", "idx.svc.pinecone.io")
	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.IndexHost != "https://idx.svc.pinecone.io" || cfg.NamespacePrefix != "mba" {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestPostRetriesServerErrors(t *testing.T) {
	calls := 0
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return &http.Response{StatusCode: http.StatusServiceUnavailable, Header: make(http.Header), Body: io.NopCloser(bytes.NewBufferString("busy"))}, nil
		}
		return jsonResponse(t, map[string]any{}), nil
	})
	s.maxAttempts, s.backoff = 3, time.Millisecond

	if err := s.DeleteIDs(context.Background(), "programs", []string{"c1"}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestPostDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	s := newTestVectorStore(t, func(r *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: http.StatusBadRequest, Header: make(http.Header), Body: io.NopCloser(bytes.NewBufferString("bad filter"))}, nil
	})
	s.maxAttempts, s.backoff = 3, time.Millisecond

	_, err := s.QueryMatches(context.Background(), "programs", []float32{1}, 3, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		t.Fatalf("want StatusError 400 got=%v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}
