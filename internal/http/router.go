package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/mba-counselor/internal/http/handlers"
	httpMW "github.com/yungbote/mba-counselor/internal/http/middleware"
	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	ServiceName    string

	CounselorHandler *httpH.CounselorHandler
	ProgramHandler   *httpH.ProgramHandler
	HealthHandler    *httpH.HealthHandler

	// ChatLimiter throttles POST /api/chat; nil disables throttling.
	ChatLimiter *httpMW.SessionRateLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.CounselorHandler != nil {
			chat := []gin.HandlerFunc{cfg.CounselorHandler.Chat}
			if cfg.ChatLimiter != nil {
				chat = append([]gin.HandlerFunc{cfg.ChatLimiter.Middleware()}, chat...)
			}
			api.POST("/chat", chat...)
			api.POST("/reset", cfg.CounselorHandler.Reset)
			api.GET("/sessions/:id", cfg.CounselorHandler.GetSession)
		}
		if cfg.ProgramHandler != nil {
			api.GET("/programs", cfg.ProgramHandler.List)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "route not found"}})
	})
	return r
}
