package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
)

func TestInstrumentVectorStorePassThrough(t *testing.T) {
	inner := &fakeInstrumentedInner{}
	vs := instrumentVectorStore("qdrant", inner)
	if vs == nil {
		t.Fatalf("instrumentVectorStore: expected non-nil wrapper")
	}

	if err := vs.Upsert(context.Background(), "ns", []pinecone.Vector{{ID: "v1", Values: []float32{1, 2, 3}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := vs.QueryMatches(context.Background(), "ns", []float32{1, 2, 3}, 3, nil); err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if err := vs.DeleteIDs(context.Background(), "ns", []string{"v1"}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}

	if inner.upsertCalls != 1 || inner.queryMatchesCalls != 1 || inner.deleteCalls != 1 {
		t.Fatalf(
			"unexpected call counts: upsert=%d query_matches=%d delete=%d",
			inner.upsertCalls,
			inner.queryMatchesCalls,
			inner.deleteCalls,
		)
	}
}

func TestInstrumentVectorStoreErrorPassThrough(t *testing.T) {
	want := errors.New("delete failed")
	inner := &fakeInstrumentedInner{deleteErr: want}
	vs := instrumentVectorStore("qdrant", inner)

	err := vs.DeleteIDs(context.Background(), "ns", []string{"v1"})
	if !errors.Is(err, want) {
		t.Fatalf("DeleteIDs: expected wrapped error %v, got=%v", want, err)
	}
}

func TestInstrumentVectorStoreRecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	vs := &instrumentedVectorStore{provider: "pinecone", inner: &fakeInstrumentedInner{deleteErr: errors.New("boom")}, metrics: m}

	_, _ = vs.QueryMatches(context.Background(), "ns", []float32{1}, 1, nil)
	_ = vs.DeleteIDs(context.Background(), "ns", []string{"v1"})

	if n := testutil.CollectAndCount(reg, "counselor_vector_store_duration_seconds"); n != 2 {
		t.Fatalf("series: want=2 got=%d", n)
	}
}

func TestInstrumentVectorStoreNil(t *testing.T) {
	if vs := instrumentVectorStore("qdrant", nil); vs != nil {
		t.Fatalf("want nil wrapper for nil store")
	}
}

type fakeInstrumentedInner struct {
	upsertCalls       int
	queryMatchesCalls int
	deleteCalls       int

	deleteErr error
}

func (f *fakeInstrumentedInner) Upsert(_ context.Context, _ string, _ []pinecone.Vector) error {
	f.upsertCalls++
	return nil
}

func (f *fakeInstrumentedInner) QueryMatches(_ context.Context, _ string, _ []float32, _ int, _ map[string]any) ([]pinecone.VectorMatch, error) {
	f.queryMatchesCalls++
	return []pinecone.VectorMatch{{ID: "v1", Score: 0.9}}, nil
}

func (f *fakeInstrumentedInner) DeleteIDs(_ context.Context, _ string, _ []string) error {
	f.deleteCalls++
	return f.deleteErr
}
