package programs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConversationLogEntry is one durably logged turn. Context holds the session's preference
// snapshot as of that turn.
type ConversationLogEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   string         `gorm:"column:session_id;index;size:255;not null" json:"session_id"`
	UserMessage string         `gorm:"column:user_message;not null" json:"user_message"`
	BotResponse string         `gorm:"column:bot_response;not null" json:"bot_response"`
	Context     datatypes.JSON `gorm:"column:context" json:"context,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (ConversationLogEntry) TableName() string { return "conversation_log" }

func (e *ConversationLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
