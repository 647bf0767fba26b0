package programs

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

// ContentHit is one nearest-neighbour result with its owning program preloaded.
type ContentHit struct {
	Content    *types.ContentEmbedding
	Similarity float64
}

type ContentRepo interface {
	CreateBatch(dbc dbctx.Context, rows []*types.ContentEmbedding) ([]*types.ContentEmbedding, error)
	// Nearest returns up to limit rows ordered by descending cosine similarity to q.
	// An empty contentTypes searches every category.
	Nearest(dbc dbctx.Context, q []float32, limit int, contentTypes []string) ([]ContentHit, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentEmbedding, error)
	DeleteByProgram(dbc dbctx.Context, programID uuid.UUID) ([]uuid.UUID, error)
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, log *logger.Logger) ContentRepo {
	return &contentRepo{db: db, log: log.With("repo", "ContentRepo")}
}

func (r *contentRepo) CreateBatch(dbc dbctx.Context, rows []*types.ContentEmbedding) ([]*types.ContentEmbedding, error) {
	if len(rows) == 0 {
		return []*types.ContentEmbedding{}, nil
	}
	if err := dbc.DB(r.db).CreateInBatches(&rows, 100).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentEmbedding, error) {
	if len(ids) == 0 {
		return []*types.ContentEmbedding{}, nil
	}
	var out []*types.ContentEmbedding
	if err := dbc.DB(r.db).
		Preload("Program").
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepo) DeleteByProgram(dbc dbctx.Context, programID uuid.UUID) ([]uuid.UUID, error) {
	if programID == uuid.Nil {
		return nil, fmt.Errorf("missing program_id")
	}
	txx := dbc.DB(r.db)
	var ids []uuid.UUID
	if err := txx.Model(&types.ContentEmbedding{}).
		Where("program_id = ?", programID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := txx.Where("program_id = ?", programID).Delete(&types.ContentEmbedding{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *contentRepo) Nearest(dbc dbctx.Context, q []float32, limit int, contentTypes []string) ([]ContentHit, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if limit <= 0 {
		limit = 15
	}
	if r.db.Dialector.Name() == "postgres" {
		hits, err := r.nearestPGVector(dbc, q, limit, contentTypes)
		if err == nil {
			return hits, nil
		}
		if !isMissingVectorSupport(err) {
			return nil, err
		}
		r.log.Warn("pgvector unavailable; scanning embeddings in process", "error", err)
	}
	return r.nearestScan(dbc, q, limit, contentTypes)
}

type similarityRow struct {
	ID         uuid.UUID
	Similarity float64
}

func (r *contentRepo) nearestPGVector(dbc dbctx.Context, q []float32, limit int, contentTypes []string) ([]ContentHit, error) {
	vec := types.Vector(q)
	// Zero vectors from failed embedding batches have no cosine distance.
	sql := `SELECT id, 1 - (embedding <=> ?::vector) AS similarity FROM content_embedding WHERE vector_norm(embedding) > 0`
	args := []interface{}{vec}
	if len(contentTypes) > 0 {
		sql += ` AND content_type IN ?`
		args = append(args, contentTypes)
	}
	sql += ` ORDER BY embedding <=> ?::vector LIMIT ?`
	args = append(args, vec, limit)

	var rows []similarityRow
	if err := dbc.DB(r.db).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []ContentHit{}, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	contents, err := r.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.ContentEmbedding, len(contents))
	for _, c := range contents {
		byID[c.ID] = c
	}

	out := make([]ContentHit, 0, len(rows))
	for _, row := range rows {
		c := byID[row.ID]
		if c == nil || c.Program == nil || math.IsNaN(row.Similarity) || math.IsInf(row.Similarity, 0) {
			continue
		}
		out = append(out, ContentHit{Content: c, Similarity: row.Similarity})
	}
	return out, nil
}

func (r *contentRepo) nearestScan(dbc dbctx.Context, q []float32, limit int, contentTypes []string) ([]ContentHit, error) {
	var rows []*types.ContentEmbedding
	txx := dbc.DB(r.db).Preload("Program")
	if len(contentTypes) > 0 {
		txx = txx.Where("content_type IN ?", contentTypes)
	}
	if err := txx.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ContentHit, 0, len(rows))
	for _, c := range rows {
		if c.Program == nil || len(c.Embedding) == 0 || c.Embedding.IsZero() {
			continue
		}
		out = append(out, ContentHit{Content: c, Similarity: types.Cosine(q, c.Embedding)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// isMissingVectorSupport reports errors raised when the pgvector extension, its operator,
// or the table itself is absent.
func isMissingVectorSupport(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P01", "42883", "42704":
		return true
	}
	return false
}
