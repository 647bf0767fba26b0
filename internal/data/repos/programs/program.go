package programs

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type ProgramRepo interface {
	ListAll(dbc dbctx.Context) ([]*types.Program, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Program, error)
	// UpsertByName inserts or updates the catalog columns of the program with the same name.
	// Review columns are left untouched on update; see UpdateReviews.
	UpsertByName(dbc dbctx.Context, p *types.Program) (*types.Program, error)
	UpdateReviews(dbc dbctx.Context, name string, rating float64, count int, sentiment []string, source string) error
}

type programRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepo(db *gorm.DB, log *logger.Logger) ProgramRepo {
	return &programRepo{db: db, log: log.With("repo", "ProgramRepo")}
}

var catalogColumns = []string{
	"specialization",
	"fees_per_semester",
	"subsidy_cashback",
	"accreditations",
	"website",
	"landing_page_url",
	"brochure_url",
	"brochure_file_path",
	"raw_data",
	"alumni_status",
	"updated_at",
}

func (r *programRepo) ListAll(dbc dbctx.Context) ([]*types.Program, error) {
	var out []*types.Program
	if err := dbc.DB(r.db).
		Model(&types.Program{}).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *programRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Program, error) {
	if len(ids) == 0 {
		return []*types.Program{}, nil
	}
	var out []*types.Program
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *programRepo) UpsertByName(dbc dbctx.Context, p *types.Program) (*types.Program, error) {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("upsert program: %w: name required", pkgerrors.ErrInvalidArgument)
	}
	p.Name = strings.TrimSpace(p.Name)
	txx := dbc.DB(r.db)
	if err := txx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns(catalogColumns),
	}).Create(p).Error; err != nil {
		return nil, fmt.Errorf("upsert program %q: %w", p.Name, err)
	}

	// On conflict the stored id differs from the one minted by BeforeCreate.
	var stored types.Program
	if err := txx.Where("name = ?", p.Name).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload program %q: %w", p.Name, err)
	}
	return &stored, nil
}

func (r *programRepo) UpdateReviews(dbc dbctx.Context, name string, rating float64, count int, sentiment []string, source string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("update reviews: %w: name required", pkgerrors.ErrInvalidArgument)
	}
	if count < 0 {
		count = 0
	}
	if sentiment == nil {
		sentiment = []string{}
	}
	if strings.TrimSpace(source) == "" {
		source = "Not Available"
	}
	res := dbc.DB(r.db).
		Model(&types.Program{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"review_rating":    rating,
			"review_count":     count,
			"review_sentiment": datatypes.JSONSlice[string](sentiment),
			"review_source":    source,
		})
	if res.Error != nil {
		return fmt.Errorf("update reviews %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update reviews %q: %w", name, pkgerrors.ErrNotFound)
	}
	return nil
}
