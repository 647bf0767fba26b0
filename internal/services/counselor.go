package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	repos "github.com/yungbote/mba-counselor/internal/data/repos/programs"
	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/modules/counselor"
	"github.com/yungbote/mba-counselor/internal/observability"
	"github.com/yungbote/mba-counselor/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
	"github.com/yungbote/mba-counselor/internal/services/session"
)

// ApologyReply is returned when a turn fails unexpectedly.
const ApologyReply = "I apologize, but I encountered an issue while processing your request. Could you please try asking your question in a different way?"

const DefaultContextTurns = 5

const (
	routeCasual   = "casual"
	routePipeline = "pipeline"
	routeError    = "error"
)

// Engine is the recommendation pipeline as seen by the session controller.
type Engine interface {
	IsCasual(message string) bool
	CasualReply(message string) string
	Recommend(ctx context.Context, in counselor.RecommendInput) counselor.RecommendOutput
}

type ChatInput struct {
	SessionID string
	Message   string
}

type ChatResult struct {
	SessionID          string
	Reply              string
	Timestamp          time.Time
	Preferences        counselor.Preferences
	Cards              []counselor.RecommendationCard
	HasRecommendations bool
}

type SessionView struct {
	SessionID   string
	Preferences counselor.Preferences
	History     []session.Turn
}

type CounselorService interface {
	// Chat runs one turn. The only error is ErrInvalidArgument for an empty message;
	// every internal failure becomes ApologyReply.
	Chat(ctx context.Context, in ChatInput) (ChatResult, error)
	// Reset discards the session and returns the id of its empty replacement.
	Reset(ctx context.Context, sessionID string) string
	Session(ctx context.Context, sessionID string) (SessionView, error)
}

type CounselorConfig struct {
	ContextTurns int
}

type counselorService struct {
	log      *logger.Logger
	engine   Engine
	sessions *session.Registry
	convLog  repos.ConversationLogRepo
	cfg      CounselorConfig
	now      func() time.Time
}

func NewCounselorService(
	baseLog *logger.Logger,
	engine Engine,
	sessions *session.Registry,
	convLog repos.ConversationLogRepo,
	cfg CounselorConfig,
) CounselorService {
	if cfg.ContextTurns <= 0 {
		cfg.ContextTurns = DefaultContextTurns
	}
	return &counselorService{
		log:      baseLog.With("service", "CounselorService"),
		engine:   engine,
		sessions: sessions,
		convLog:  convLog,
		cfg:      cfg,
		now:      time.Now,
	}
}

type turnOutcome struct {
	route       string
	reply       string
	cards       []counselor.RecommendationCard
	preferences counselor.Preferences
}

func (s *counselorService) Chat(ctx context.Context, in ChatInput) (ChatResult, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return ChatResult{}, fmt.Errorf("empty message: %w", pkgerrors.ErrInvalidArgument)
	}
	start := s.now()

	sess := s.sessions.GetOrCreate(ctx, in.SessionID)
	sess.Lock()
	defer sess.Unlock()

	ctx, span := observability.StartSpan(ctx, "counselor.turn")
	defer span.End()

	out := s.safeTurn(ctx, sess.ID, sess.Preferences, msg)
	if out.preferences != nil {
		sess.Preferences = out.preferences
	}
	at := s.now().UTC()
	sess.AppendTurn(msg, out.reply, at)
	s.appendLog(ctx, sess.ID, msg, out.reply, sess.Preferences)
	s.sessions.Save(ctx, sess)

	span.SetAttributes(attribute.String("route", out.route), attribute.Int("cards", len(out.cards)))
	dur := s.now().Sub(start)
	observability.Current().ObserveTurn(out.route, dur)
	s.log.Info("turn complete",
		"session_id", sess.ID,
		"route", out.route,
		"cards", len(out.cards),
		"latency_ms", dur.Milliseconds(),
	)

	return ChatResult{
		SessionID:          sess.ID,
		Reply:              out.reply,
		Timestamp:          at,
		Preferences:        sess.Preferences.Clone(),
		Cards:              out.cards,
		HasRecommendations: len(out.cards) > 0,
	}, nil
}

// safeTurn never panics; anything escaping the engine becomes ApologyReply.
func (s *counselorService) safeTurn(ctx context.Context, sessionID string, prefs counselor.Preferences, msg string) (out turnOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("turn failed", "session_id", sessionID, "panic", r)
			observability.Current().IncFallback("turn", "panic")
			out = turnOutcome{route: routeError, reply: ApologyReply, cards: []counselor.RecommendationCard{}}
		}
	}()

	if s.engine.IsCasual(msg) {
		return turnOutcome{route: routeCasual, reply: s.engine.CasualReply(msg), cards: []counselor.RecommendationCard{}}
	}

	res := s.engine.Recommend(ctx, counselor.RecommendInput{
		Message:     msg,
		Preferences: prefs,
		Context:     s.recentContext(ctx, sessionID),
	})
	cards := res.Cards
	if cards == nil {
		cards = []counselor.RecommendationCard{}
	}
	return turnOutcome{route: routePipeline, reply: res.Reply, cards: cards, preferences: res.Preferences}
}

// recentContext renders the last turns oldest first as "User: ...\nAssistant: ...".
func (s *counselorService) recentContext(ctx context.Context, sessionID string) string {
	if s.convLog == nil {
		return ""
	}
	entries, err := s.convLog.Recent(dbctx.Context{Ctx: ctx}, sessionID, s.cfg.ContextTurns)
	if err != nil {
		s.log.Warn("conversation context unavailable", "session_id", sessionID, "error", err)
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, "User: "+e.UserMessage+"\nAssistant: "+e.BotResponse)
	}
	return strings.Join(parts, "\n\n")
}

func (s *counselorService) appendLog(ctx context.Context, sessionID, user, reply string, prefs counselor.Preferences) {
	if s.convLog == nil {
		return
	}
	entry := &types.ConversationLogEntry{
		SessionID:   sessionID,
		UserMessage: user,
		BotResponse: reply,
		Context:     datatypes.JSON(prefs.JSON(false)),
	}
	if err := s.convLog.Append(dbctx.Context{Ctx: ctx}, entry); err != nil {
		s.log.Warn("conversation log append failed", "session_id", sessionID, "error", err)
	}
}

func (s *counselorService) Reset(ctx context.Context, sessionID string) string {
	next := s.sessions.Reset(ctx, sessionID)
	s.log.Info("session reset", "session_id", sessionID, "new_session_id", next.ID)
	return next.ID
}

func (s *counselorService) Session(ctx context.Context, sessionID string) (SessionView, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, fmt.Errorf("session %q: %w", sessionID, pkgerrors.ErrNotFound)
	}
	sess.Lock()
	snap := sess.Snapshot()
	sess.Unlock()
	return SessionView{SessionID: snap.ID, Preferences: snap.Preferences, History: snap.History}, nil
}
