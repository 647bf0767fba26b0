package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	programrepos "github.com/yungbote/mba-counselor/internal/data/repos/programs"
	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
)

// ContentMatch is one retrieval hit joined with its owning program. Score and Reasons are
// recomputed from Similarity by RankMatches.
type ContentMatch struct {
	Program       *types.Program
	ContentID     uuid.UUID
	ContentType   string
	ContentSource string
	Text          string
	Similarity    float64
	Score         float64
	Reasons       []string
}

// Embedder turns texts into vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// ContentSearcher returns nearest content by cosine similarity, highest first. An empty
// categories slice searches every category.
type ContentSearcher interface {
	Search(ctx context.Context, q []float32, limit int, categories []string) ([]ContentMatch, error)
}

// Retriever embeds the query and searches Primary, then Fallback when Primary fails.
type Retriever struct {
	Embed    Embedder
	Primary  ContentSearcher
	Fallback ContentSearcher
	Log      *logger.Logger
}

// Retrieve never fails: embedding or search errors yield an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int, categories []string) []ContentMatch {
	ctx, span := observability.StartSpan(ctx, "counselor.retrieve", attribute.Int("limit", limit))
	defer span.End()
	start := time.Now()
	defer func() { observability.Current().ObserveStage("retrieve", time.Since(start)) }()

	if r == nil || r.Embed == nil || r.Primary == nil {
		observability.Current().IncFallback("retrieve", "unconfigured")
		return []ContentMatch{}
	}
	if limit <= 0 {
		limit = 15
	}

	vecs, err := r.Embed.Embed(ctx, []string{query})
	if err != nil || len(vecs) != 1 || len(vecs[0]) == 0 {
		r.warn("query embedding failed; returning no matches", "error", err)
		observability.Current().IncFallback("retrieve", "embed_failed")
		return []ContentMatch{}
	}

	matches, err := r.Primary.Search(ctx, vecs[0], limit, categories)
	if err != nil && r.Fallback != nil {
		r.warn("primary content search failed; trying fallback searcher", "error", err)
		observability.Current().IncFallback("retrieve", "primary_failed")
		matches, err = r.Fallback.Search(ctx, vecs[0], limit, categories)
	}
	if err != nil {
		r.warn("content search failed; returning no matches", "error", err)
		observability.Current().IncFallback("retrieve", "search_failed")
		return []ContentMatch{}
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))
	return matches
}

func (r *Retriever) warn(msg string, kv ...interface{}) {
	if r.Log != nil {
		r.Log.Warn(msg, kv...)
	}
}

// SQLSearcher searches the content table: pgvector on postgres, an in-process cosine scan otherwise.
type SQLSearcher struct {
	Contents programrepos.ContentRepo
}

func (s *SQLSearcher) Search(ctx context.Context, q []float32, limit int, categories []string) ([]ContentMatch, error) {
	hits, err := s.Contents.Nearest(dbctx.Context{Ctx: ctx}, q, limit, categories)
	if err != nil {
		return nil, fmt.Errorf("nearest content: %w", err)
	}
	out := make([]ContentMatch, 0, len(hits))
	for _, h := range hits {
		out = append(out, matchFromContent(h.Content, h.Similarity))
	}
	return out, nil
}

// VectorStoreSearcher queries a qdrant or pinecone index whose vector ids are content row
// ids, then joins the hits to their rows and programs.
type VectorStoreSearcher struct {
	Store     pinecone.VectorStore
	Namespace string
	Contents  programrepos.ContentRepo
	Log       *logger.Logger
}

func (s *VectorStoreSearcher) Search(ctx context.Context, q []float32, limit int, categories []string) ([]ContentMatch, error) {
	var filter map[string]any
	if len(categories) > 0 {
		filter = map[string]any{"content_type": map[string]any{"$in": categories}}
	}

	vm, err := s.Store.QueryMatches(ctx, s.Namespace, q, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("vector store query: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(vm))
	for _, m := range vm {
		id, perr := uuid.Parse(m.ID)
		if perr != nil {
			if s.Log != nil {
				s.Log.Warn("vector id is not a content id; skipping", "vector_id", m.ID)
			}
			continue
		}
		ids = append(ids, id)
	}
	rows, err := s.Contents.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, fmt.Errorf("join vector hits: %w", err)
	}
	byID := make(map[uuid.UUID]*types.ContentEmbedding, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := make([]ContentMatch, 0, len(vm))
	for _, m := range vm {
		id, perr := uuid.Parse(m.ID)
		if perr != nil {
			continue
		}
		row := byID[id]
		if row == nil || row.Program == nil {
			continue
		}
		out = append(out, matchFromContent(row, m.Score))
	}
	return out, nil
}

func matchFromContent(c *types.ContentEmbedding, similarity float64) ContentMatch {
	return ContentMatch{
		Program:       c.Program,
		ContentID:     c.ID,
		ContentType:   c.ContentType,
		ContentSource: c.ContentSource,
		Text:          c.ContentText,
		Similarity:    similarity,
		Score:         similarity,
	}
}
