package programs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Program is the authoritative record for one MBA program offering. The engine only reads it;
// rows are written by the catalog importer and review fields by UpdateReviews.
type Program struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string                      `gorm:"uniqueIndex;not null" json:"name"`
	Specialization   string                      `gorm:"column:specialization" json:"specialization"`
	FeesPerSemester  float64                     `gorm:"column:fees_per_semester" json:"fees_per_semester"`
	SubsidyCashback  string                      `gorm:"column:subsidy_cashback" json:"subsidy_cashback"`
	Accreditations   string                      `gorm:"column:accreditations" json:"accreditations"`
	Website          string                      `gorm:"column:website" json:"website"`
	LandingPageURL   string                      `gorm:"column:landing_page_url" json:"landing_page_url"`
	BrochureURL      string                      `gorm:"column:brochure_url" json:"brochure_url"`
	BrochureFilePath string                      `gorm:"column:brochure_file_path" json:"brochure_file_path"`
	RawData          datatypes.JSON              `gorm:"column:raw_data" json:"raw_data,omitempty"`
	AlumniStatus     bool                        `gorm:"column:alumni_status;not null" json:"alumni_status"`
	ReviewRating     float64                     `gorm:"column:review_rating;index;not null;default:0" json:"review_rating"`
	ReviewCount      int                         `gorm:"column:review_count;not null;default:0" json:"review_count"`
	ReviewSentiment  datatypes.JSONSlice[string] `gorm:"column:review_sentiment" json:"review_sentiment"`
	ReviewSource     string                      `gorm:"column:review_source;not null;default:'Not Available'" json:"review_source"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

func (Program) TableName() string { return "program" }

func (p *Program) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
