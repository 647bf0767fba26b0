package app

import (
	"gorm.io/gorm"

	repos "github.com/yungbote/mba-counselor/internal/data/repos/programs"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type Repos struct {
	Program         repos.ProgramRepo
	Content         repos.ContentRepo
	ConversationLog repos.ConversationLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Program:         repos.NewProgramRepo(db, log),
		Content:         repos.NewContentRepo(db, log),
		ConversationLog: repos.NewConversationLogRepo(db, log),
	}
}
