package app

import (
	server "github.com/yungbote/mba-counselor/internal/http"
	httpMW "github.com/yungbote/mba-counselor/internal/http/middleware"
	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, limiter *httpMW.SessionRateLimiter) *server.Server {
	return server.NewServer(server.RouterConfig{
		Log:              log,
		Metrics:          observability.Current(),
		AllowedOrigins:   cfg.AllowedOrigins,
		ServiceName:      cfg.ServiceName,
		CounselorHandler: handlers.Counselor,
		ProgramHandler:   handlers.Program,
		HealthHandler:    handlers.Health,
		ChatLimiter:      limiter,
	})
}
