package programs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Content categories stored in ContentEmbedding.ContentType.
const (
	ContentTypeWebpage        = "webpage"
	ContentTypeBrochure       = "brochure"
	ContentTypeUniversityInfo = "university_info"
)

// AllContentTypes lists every category the importer writes.
var AllContentTypes = []string{ContentTypeWebpage, ContentTypeBrochure, ContentTypeUniversityInfo}

// ContentEmbedding is one embedded text excerpt owned by a Program.
type ContentEmbedding struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProgramID     uuid.UUID `gorm:"type:uuid;index;not null" json:"program_id"`
	Program       *Program  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProgramID;references:ID" json:"program,omitempty"`
	ContentType   string    `gorm:"column:content_type;index;size:50;not null" json:"content_type"`
	ContentSource string    `gorm:"column:content_source;size:100" json:"content_source"`
	ContentText   string    `gorm:"column:content_text;not null" json:"content_text"`
	Embedding     Vector    `gorm:"column:embedding;type:vector(1536)" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ContentEmbedding) TableName() string { return "content_embedding" }

func (c *ContentEmbedding) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
