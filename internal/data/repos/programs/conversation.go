package programs

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type ConversationLogRepo interface {
	Append(dbc dbctx.Context, entry *types.ConversationLogEntry) error
	// Recent returns the last n entries of a session, oldest first.
	Recent(dbc dbctx.Context, sessionID string, n int) ([]*types.ConversationLogEntry, error)
}

type conversationLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationLogRepo(db *gorm.DB, log *logger.Logger) ConversationLogRepo {
	return &conversationLogRepo{db: db, log: log.With("repo", "ConversationLogRepo")}
}

func (r *conversationLogRepo) Append(dbc dbctx.Context, entry *types.ConversationLogEntry) error {
	if entry == nil || strings.TrimSpace(entry.SessionID) == "" {
		return fmt.Errorf("missing session_id")
	}
	return dbc.DB(r.db).Create(entry).Error
}

func (r *conversationLogRepo) Recent(dbc dbctx.Context, sessionID string, n int) ([]*types.ConversationLogEntry, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("missing session_id")
	}
	if n <= 0 || n > 100 {
		n = 5
	}
	var out []*types.ConversationLogEntry
	if err := dbc.DB(r.db).
		Model(&types.ConversationLogEntry{}).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(n).
		Find(&out).Error; err != nil {
		return nil, err
	}
	// Normalize to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
