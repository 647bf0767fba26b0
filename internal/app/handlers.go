package app

import (
	"database/sql"

	httpH "github.com/yungbote/mba-counselor/internal/http/handlers"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type Handlers struct {
	Counselor *httpH.CounselorHandler
	Program   *httpH.ProgramHandler
	Health    *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, services Services, sqlDB *sql.DB) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Counselor: httpH.NewCounselorHandler(services.Counselor),
		Program:   httpH.NewProgramHandler(services.Catalog),
		Health:    httpH.NewHealthHandler(sqlDB),
	}
}
