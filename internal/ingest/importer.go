package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	repos "github.com/yungbote/mba-counselor/internal/data/repos/programs"
	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/platform/openai"
	"github.com/yungbote/mba-counselor/internal/platform/pinecone"
)

type ImporterDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Programs repos.ProgramRepo
	Contents repos.ContentRepo
	Embed    openai.Embedder

	// Vectors mirrors content rows into qdrant or pinecone; nil keeps pgvector only.
	Vectors   pinecone.VectorStore
	Namespace string

	ChunkSize    int
	ChunkOverlap int
	Batch        openai.BatchOptions
}

type Importer struct {
	deps ImporterDeps
	log  *logger.Logger
}

// Report counts what one import wrote.
type Report struct {
	Programs     int
	Chunks       int
	ZeroVectors  int
	Vectors      int
	ReviewsSaved int
}

func NewImporter(deps ImporterDeps) *Importer {
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = DefaultChunkSize
	}
	if deps.ChunkOverlap <= 0 {
		deps.ChunkOverlap = DefaultChunkOverlap
	}
	return &Importer{deps: deps, log: deps.Log.With("service", "CatalogImporter")}
}

type pendingChunk struct {
	contentType string
	source      string
	text        string
}

// Import replaces each program's content with freshly embedded chunks. Programs are
// written one transaction each; the first failure stops the import.
func (im *Importer) Import(ctx context.Context, cat *Catalog) (Report, error) {
	var rep Report
	if cat == nil {
		return rep, nil
	}
	for _, entry := range cat.Programs {
		if err := im.importOne(ctx, entry, &rep); err != nil {
			return rep, fmt.Errorf("import %q: %w", entry.Name, err)
		}
		rep.Programs++
	}
	im.log.Info("catalog import complete",
		"programs", rep.Programs,
		"chunks", rep.Chunks,
		"zero_vectors", rep.ZeroVectors,
		"vectors", rep.Vectors,
		"reviews", rep.ReviewsSaved,
	)
	return rep, nil
}

func (im *Importer) importOne(ctx context.Context, entry CatalogProgram, rep *Report) error {
	chunks := im.chunksFor(entry)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.text
	}
	vecs := openai.EmbedBatch(ctx, im.deps.Embed, texts, im.deps.Batch, im.log)

	record, err := programFromEntry(entry)
	if err != nil {
		return err
	}

	var (
		stored  *types.Program
		oldIDs  []uuid.UUID
		created []*types.ContentEmbedding
	)
	err = im.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := im.deps.Programs.UpsertByName(dbc, record)
		if err != nil {
			return err
		}
		stored = p
		if oldIDs, err = im.deps.Contents.DeleteByProgram(dbc, p.ID); err != nil {
			return fmt.Errorf("clear content: %w", err)
		}
		rows := make([]*types.ContentEmbedding, len(chunks))
		for i, c := range chunks {
			rows[i] = &types.ContentEmbedding{
				ProgramID:     p.ID,
				ContentType:   c.contentType,
				ContentSource: c.source,
				ContentText:   c.text,
				Embedding:     types.Vector(vecs[i]),
			}
		}
		if created, err = im.deps.Contents.CreateBatch(dbc, rows); err != nil {
			return fmt.Errorf("write content: %w", err)
		}
		if r := entry.Reviews; r != nil {
			if err := im.deps.Programs.UpdateReviews(dbc, p.Name, r.Rating, r.Count, r.Sentiment, r.Source); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	rep.Chunks += len(created)
	if entry.Reviews != nil {
		rep.ReviewsSaved++
	}
	for _, v := range vecs {
		if types.Vector(v).IsZero() {
			rep.ZeroVectors++
		}
	}
	if im.deps.Vectors != nil {
		n, err := im.mirror(ctx, stored, oldIDs, created)
		if err != nil {
			return err
		}
		rep.Vectors += n
	}
	return nil
}

func (im *Importer) chunksFor(entry CatalogProgram) []pendingChunk {
	var out []pendingChunk
	hasInfo := false
	for _, ex := range entry.Excerpts {
		source := strings.TrimSpace(ex.Source)
		if source == "" {
			source = ex.Type
		}
		if ex.Type == types.ContentTypeUniversityInfo {
			hasInfo = true
		}
		for _, text := range ChunkText(ex.Text, im.deps.ChunkSize, im.deps.ChunkOverlap) {
			out = append(out, pendingChunk{contentType: ex.Type, source: source, text: text})
		}
	}
	if !hasInfo {
		out = append(out, pendingChunk{contentType: types.ContentTypeUniversityInfo, source: "catalog", text: InfoText(entry)})
	}
	return out
}

// mirror deletes the program's previous vectors and upserts the new ones. Zero vectors from
// failed embedding batches are kept in the database but not indexed.
func (im *Importer) mirror(ctx context.Context, p *types.Program, oldIDs []uuid.UUID, rows []*types.ContentEmbedding) (int, error) {
	if len(oldIDs) > 0 {
		ids := make([]string, len(oldIDs))
		for i, id := range oldIDs {
			ids[i] = id.String()
		}
		if err := im.deps.Vectors.DeleteIDs(ctx, im.deps.Namespace, ids); err != nil {
			return 0, fmt.Errorf("delete stale vectors: %w", err)
		}
	}

	vectors := make([]pinecone.Vector, 0, len(rows))
	for _, row := range rows {
		if row.Embedding.IsZero() {
			im.log.Warn("skipping zero vector", "program", p.Name, "content_id", row.ID)
			continue
		}
		vectors = append(vectors, pinecone.Vector{
			ID:     row.ID.String(),
			Values: row.Embedding,
			Metadata: map[string]any{
				"program_id":     p.ID.String(),
				"content_type":   row.ContentType,
				"content_source": row.ContentSource,
			},
		})
	}
	if len(vectors) == 0 {
		return 0, nil
	}
	if err := im.deps.Vectors.Upsert(ctx, im.deps.Namespace, vectors); err != nil {
		return 0, fmt.Errorf("upsert vectors: %w", err)
	}
	return len(vectors), nil
}

func programFromEntry(entry CatalogProgram) (*types.Program, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	alumni := true
	if entry.AlumniStatus != nil {
		alumni = *entry.AlumniStatus
	}
	return &types.Program{
		Name:             entry.Name,
		Specialization:   strings.TrimSpace(entry.Specialization),
		FeesPerSemester:  ParseFee(entry.Fee),
		SubsidyCashback:  strings.TrimSpace(entry.Subsidy),
		Accreditations:   strings.TrimSpace(entry.Accreditation),
		Website:          strings.TrimSpace(entry.Website),
		LandingPageURL:   strings.TrimSpace(entry.LandingPage),
		BrochureURL:      strings.TrimSpace(entry.BrochureURL),
		BrochureFilePath: strings.TrimSpace(entry.BrochureFile),
		RawData:          datatypes.JSON(raw),
		AlumniStatus:     alumni,
	}, nil
}
