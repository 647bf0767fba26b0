package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/mba-counselor/internal/domain/programs"
)

// Migrate creates the pgvector extension (postgres only) and the three tables, then the
// postgres-only indexes.
func Migrate(db *gorm.DB) error {
	postgres := db.Dialector.Name() == DriverPostgres
	if postgres {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
			return fmt.Errorf("enable pgvector: %w", err)
		}
	}
	if err := db.AutoMigrate(
		&programs.Program{},
		&programs.ContentEmbedding{},
		&programs.ConversationLogEntry{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if postgres {
		return EnsureSearchIndexes(db)
	}
	return nil
}

func EnsureSearchIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_content_embedding_vector
		ON content_embedding
		USING hnsw (embedding vector_cosine_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_content_embedding_vector: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_conversation_log_session_created ON conversation_log(session_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_conversation_log_session_created: %w", err)
	}
	return nil
}
