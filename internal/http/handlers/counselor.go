package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mba-counselor/internal/http/response"
	"github.com/yungbote/mba-counselor/internal/modules/counselor"
	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
	"github.com/yungbote/mba-counselor/internal/platform/apierr"
	"github.com/yungbote/mba-counselor/internal/platform/ctxutil"
	"github.com/yungbote/mba-counselor/internal/services"
	"github.com/yungbote/mba-counselor/internal/services/session"
)

type CounselorHandler struct {
	counselor services.CounselorService
}

func NewCounselorHandler(counselor services.CounselorService) *CounselorHandler {
	return &CounselorHandler{counselor: counselor}
}

type chatReq struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required,max=4000"`
}

type chatResp struct {
	SessionID          string                         `json:"session_id"`
	Response           string                         `json:"response"`
	Timestamp          string                         `json:"timestamp"`
	Preferences        counselor.Preferences          `json:"preferences"`
	UniversityCards    []counselor.RecommendationCard `json:"university_cards"`
	HasRecommendations bool                           `json:"has_recommendations"`
}

// POST /api/chat
func (h *CounselorHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.counselor.Chat(c.Request.Context(), services.ChatInput{SessionID: req.SessionID, Message: req.Message})
	if err != nil {
		response.RespondAPIError(c, mapServiceError(err))
		return
	}
	tagSession(c, res.SessionID)

	prefs := res.Preferences
	if prefs == nil {
		prefs = counselor.Preferences{}
	}
	response.RespondOK(c, chatResp{
		SessionID:          res.SessionID,
		Response:           res.Reply,
		Timestamp:          res.Timestamp.Format(time.RFC3339),
		Preferences:        prefs,
		UniversityCards:    res.Cards,
		HasRecommendations: res.HasRecommendations,
	})
}

type resetReq struct {
	SessionID string `json:"session_id"`
}

// POST /api/reset
func (h *CounselorHandler) Reset(c *gin.Context) {
	var req resetReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	id := h.counselor.Reset(c.Request.Context(), strings.TrimSpace(req.SessionID))
	tagSession(c, id)
	response.RespondOK(c, gin.H{"session_id": id, "status": "reset"})
}

type turnResp struct {
	User      string `json:"user"`
	Reply     string `json:"reply"`
	Timestamp string `json:"timestamp"`
}

// GET /api/sessions/:id
func (h *CounselorHandler) GetSession(c *gin.Context) {
	view, err := h.counselor.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, mapServiceError(err))
		return
	}
	response.RespondOK(c, gin.H{
		"session_id":  view.SessionID,
		"preferences": view.Preferences,
		"history":     historyResp(view.History),
	})
}

func historyResp(turns []session.Turn) []turnResp {
	out := make([]turnResp, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResp{User: t.User, Reply: t.Reply, Timestamp: t.Timestamp.Format(time.RFC3339)})
	}
	return out
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		return apierr.New(http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, pkgerrors.ErrUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "unavailable", err)
	default:
		return err
	}
}

func tagSession(c *gin.Context, id string) {
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		td.SessionID = id
	}
}
