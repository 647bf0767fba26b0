package ingest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	repos "github.com/yungbote/mba-counselor/internal/data/repos/programs"
	"github.com/yungbote/mba-counselor/internal/data/repos/testutil"
	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	"github.com/yungbote/mba-counselor/internal/pkg/pointers"
	"github.com/yungbote/mba-counselor/internal/platform/openai"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
)

const testDim = 1536

type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	for _, in := range inputs {
		if f.failOn != "" && strings.Contains(in, f.failOn) {
			return nil, errors.New("embedding rejected")
		}
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		v := make([]float32, testDim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

type fakeVectorStore struct {
	mu       sync.Mutex
	upserted []pinecone.Vector
	deleted  []string
}

func (f *fakeVectorStore) Upsert(ctx context.Context, ns string, vs []pinecone.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, vs...)
	return nil
}

func (f *fakeVectorStore) QueryMatches(ctx context.Context, ns string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteIDs(ctx context.Context, ns string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

func newTestImporter(t *testing.T, embed openai.Embedder, vs pinecone.VectorStore) (*Importer, ImporterDeps) {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	deps := ImporterDeps{
		DB:        tx,
		Log:       log,
		Programs:  repos.NewProgramRepo(tx, log),
		Contents:  repos.NewContentRepo(tx, log),
		Embed:     embed,
		Vectors:   vs,
		Namespace: "programs",
		Batch:     openai.BatchOptions{Dim: testDim, BatchSize: 1},
	}
	return NewImporter(deps), deps
}

func uniqueCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatal(err)
	}
	suffix := " " + uuid.NewString()[:8]
	for i := range cat.Programs {
		cat.Programs[i].Name += suffix
	}
	return cat, suffix
}

func TestImportWritesProgramsContentAndVectors(t *testing.T) {
	vs := &fakeVectorStore{}
	im, deps := newTestImporter(t, &fakeEmbedder{}, vs)
	cat, suffix := uniqueCatalog(t)
	ctx := context.Background()

	rep, err := im.Import(ctx, cat)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	// alpha: webpage + generated info; beta: generated info
	if rep.Programs != 2 || rep.Chunks != 3 || rep.Vectors != 3 || rep.ReviewsSaved != 1 {
		t.Fatalf("report: %+v", rep)
	}

	all, err := deps.Programs.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatal(err)
	}
	var alpha *types.Program
	for _, p := range all {
		if p.Name == "Alpha Business School"+suffix {
			alpha = p
		}
	}
	if alpha == nil {
		t.Fatalf("alpha not stored")
	}
	if alpha.FeesPerSemester != 120000 || alpha.ReviewCount != 130 || alpha.ReviewSource != "Shiksha" {
		t.Fatalf("alpha row: %+v", alpha)
	}

	var kinds []string
	for _, v := range vs.upserted {
		if v.Metadata["program_id"] == alpha.ID.String() {
			kinds = append(kinds, v.Metadata["content_type"].(string))
		}
	}
	sort.Strings(kinds)
	if strings.Join(kinds, ",") != "university_info,webpage" {
		t.Fatalf("alpha vector metadata: %v", kinds)
	}
}

func TestReimportReplacesContent(t *testing.T) {
	vs := &fakeVectorStore{}
	im, deps := newTestImporter(t, &fakeEmbedder{}, vs)
	cat, _ := uniqueCatalog(t)
	ctx := context.Background()

	if _, err := im.Import(ctx, cat); err != nil {
		t.Fatalf("Import 1: %v", err)
	}
	first := make([]string, 0, len(vs.upserted))
	for _, v := range vs.upserted {
		first = append(first, v.ID)
	}
	if _, err := im.Import(ctx, cat); err != nil {
		t.Fatalf("Import 2: %v", err)
	}

	sort.Strings(first)
	deleted := append([]string(nil), vs.deleted...)
	sort.Strings(deleted)
	if strings.Join(first, ",") != strings.Join(deleted, ",") {
		t.Fatalf("stale vectors: want deleted=%v got=%v", first, deleted)
	}

	var n int64
	if err := deps.DB.Model(&types.ContentEmbedding{}).
		Joins("JOIN program ON program.id = content_embedding.program_id").
		Where("program.name IN ?", []string{cat.Programs[0].Name, cat.Programs[1].Name}).
		Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("content rows after reimport: want=3 got=%d", n)
	}
}

func TestImportSkipsZeroVectorsInIndex(t *testing.T) {
	vs := &fakeVectorStore{}
	im, _ := newTestImporter(t, &fakeEmbedder{failOn: "two year online MBA"}, vs)
	cat, _ := uniqueCatalog(t)

	rep, err := im.Import(context.Background(), cat)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Chunks != 3 || rep.ZeroVectors != 1 || rep.Vectors != 2 {
		t.Fatalf("report: %+v", rep)
	}
}

func TestProgramFromEntry(t *testing.T) {
	p, err := programFromEntry(CatalogProgram{
		Name:         "Gamma Online MBA",
		Fee:          "INR 1,20,000 per semester",
		Website:      " https://gamma.example ",
		AlumniStatus: pointers.Ptr(false),
	})
	if err != nil {
		t.Fatalf("programFromEntry: %v", err)
	}
	if p.AlumniStatus {
		t.Fatalf("explicit alumni_status=false was ignored")
	}
	if p.FeesPerSemester != 120000 || p.Website != "https://gamma.example" {
		t.Fatalf("program: %+v", p)
	}

	p, err = programFromEntry(CatalogProgram{Name: "Delta MBA"})
	if err != nil {
		t.Fatalf("programFromEntry: %v", err)
	}
	if !p.AlumniStatus || p.FeesPerSemester != 0 {
		t.Fatalf("defaults: %+v", p)
	}
}
