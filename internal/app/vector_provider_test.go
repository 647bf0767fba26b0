package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
	"github.com/yungbote/mba-counselor/internal/platform/qdrant"
)

func stubVectorConstructors(t *testing.T) {
	t.Helper()
	origQC, origPC := resolveQdrantConfig, resolvePineconeConfig
	origQ, origP := newQdrantVectorStore, newPineconeVectorStore
	t.Cleanup(func() {
		resolveQdrantConfig, resolvePineconeConfig = origQC, origPC
		newQdrantVectorStore, newPineconeVectorStore = origQ, origP
	})
}

func TestResolveVectorStorePGVectorHasNoIndex(t *testing.T) {
	stubVectorConstructors(t)
	calls := 0
	newQdrantVectorStore = func(context.Context, *logger.Logger, qdrant.Config) (pinecone.VectorStore, error) {
		calls++
		return &testVectorStore{}, nil
	}
	newPineconeVectorStore = func(*logger.Logger, pinecone.Config) (pinecone.VectorStore, error) {
		calls++
		return &testVectorStore{}, nil
	}

	vs, err := resolveVectorStore(context.Background(), logger.NewNop(), "pgvector")
	if err != nil || vs != nil {
		t.Fatalf("pgvector: want nil/nil got=%v/%v", vs, err)
	}
	if calls != 0 {
		t.Fatalf("external stores should not be constructed; calls=%d", calls)
	}
}

func TestResolveVectorStoreQdrantSelected(t *testing.T) {
	stubVectorConstructors(t)
	resolveQdrantConfig = func() (qdrant.Config, error) {
		return qdrant.Config{URL: "http://qdrant:6333", Collection: "mba_content", NamespacePrefix: "mba", VectorDim: 1536}, nil
	}
	stub := &testVectorStore{}
	var captured qdrant.Config
	newQdrantVectorStore = func(_ context.Context, _ *logger.Logger, cfg qdrant.Config) (pinecone.VectorStore, error) {
		captured = cfg
		return stub, nil
	}
	pineconeCalls := 0
	newPineconeVectorStore = func(*logger.Logger, pinecone.Config) (pinecone.VectorStore, error) {
		pineconeCalls++
		return &testVectorStore{}, nil
	}

	vs, err := resolveVectorStore(context.Background(), logger.NewNop(), "QDRANT")
	if err != nil {
		t.Fatalf("resolveVectorStore: %v", err)
	}
	if err := vs.Upsert(context.Background(), "programs", []pinecone.Vector{{ID: "v1", Values: []float32{1}}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if stub.upsertCalls != 1 {
		t.Fatalf("underlying qdrant store not called; upsert_calls=%d", stub.upsertCalls)
	}
	if captured.Collection != "mba_content" || captured.URL != "http://qdrant:6333" {
		t.Fatalf("captured config: %+v", captured)
	}
	if pineconeCalls != 0 {
		t.Fatalf("pinecone should not be constructed in qdrant mode; calls=%d", pineconeCalls)
	}
}

func TestResolveVectorStorePineconeSelected(t *testing.T) {
	stubVectorConstructors(t)
	resolvePineconeConfig = func() (pinecone.Config, error) {
		return pinecone.Config{APIKey: "pk", IndexHost: "https://idx.pinecone.local", NamespacePrefix: "mba"}, nil
	}
	var captured pinecone.Config
	newPineconeVectorStore = func(_ *logger.Logger, cfg pinecone.Config) (pinecone.VectorStore, error) {
		captured = cfg
		return &testVectorStore{}, nil
	}

	vs, err := resolveVectorStore(context.Background(), logger.NewNop(), "pinecone")
	if err != nil || vs == nil {
		t.Fatalf("pinecone: want store got=%v/%v", vs, err)
	}
	if captured.APIKey != "pk" || captured.IndexHost != "https://idx.pinecone.local" {
		t.Fatalf("captured config: %+v", captured)
	}
}

func TestResolveVectorStorePineconeMissingConfig(t *testing.T) {
	stubVectorConstructors(t)
	resolvePineconeConfig = func() (pinecone.Config, error) {
		return pinecone.Config{}, errors.New("missing PINECONE_API_KEY")
	}

	_, err := resolveVectorStore(context.Background(), logger.NewNop(), "pinecone")
	var got *VectorProviderBootstrapError
	if !errors.As(err, &got) || got.Code != VectorProviderBootstrapErrorPineconeConfig {
		t.Fatalf("want pinecone config bootstrap error got=%v", err)
	}
}

func TestResolveVectorStoreQdrantMissingURL(t *testing.T) {
	stubVectorConstructors(t)
	resolveQdrantConfig = func() (qdrant.Config, error) {
		return qdrant.Config{}, &qdrant.ConfigError{Code: qdrant.ConfigErrorMissingURL}
	}

	_, err := resolveVectorStore(context.Background(), logger.NewNop(), "qdrant")
	if code := vectorProviderBootstrapErrorCode(err); code != VectorProviderBootstrapErrorMissingQdrantURL {
		t.Fatalf("code: want=%q got=%q", VectorProviderBootstrapErrorMissingQdrantURL, code)
	}
}

func TestClassifyVectorProviderBootstrapError(t *testing.T) {
	cases := []struct {
		err  error
		want VectorProviderBootstrapErrorCode
	}{
		{&qdrant.ConfigError{Code: qdrant.ConfigErrorInvalidVectorDim}, VectorProviderBootstrapErrorInvalidQdrantVector},
		{&qdrant.ConfigError{Code: qdrant.ConfigErrorMissingCollection}, VectorProviderBootstrapErrorMissingQdrantColl},
		{errors.New("qdrant ready check failed: status 503"), VectorProviderBootstrapErrorConnectFailed},
		{errors.New("something else"), VectorProviderBootstrapErrorProviderInitFailed},
	}
	for _, tc := range cases {
		err := classifyVectorProviderBootstrapError("qdrant", tc.err)
		var got *VectorProviderBootstrapError
		if !errors.As(err, &got) {
			t.Fatalf("expected VectorProviderBootstrapError, got=%T", err)
		}
		if got.Code != tc.want {
			t.Fatalf("%v: want=%q got=%q", tc.err, tc.want, got.Code)
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("cause not preserved for %v", tc.err)
		}
	}
}

func TestResolveVectorStoreInvalidProvider(t *testing.T) {
	_, err := resolveVectorStore(context.Background(), logger.NewNop(), "milvus")
	var got *VectorProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected VectorProviderBootstrapError, got=%T", err)
	}
	if got.Code != VectorProviderBootstrapErrorInvalidProvider {
		t.Fatalf("code: want=%q got=%q", VectorProviderBootstrapErrorInvalidProvider, got.Code)
	}
}

type testVectorStore struct {
	upsertCalls int
}

func (t *testVectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	t.upsertCalls++
	return nil
}

func (t *testVectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	return nil, nil
}

func (t *testVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	return nil
}
