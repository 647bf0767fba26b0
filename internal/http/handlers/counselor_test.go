package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/mba-counselor/internal/domain/programs"
	"github.com/yungbote/mba-counselor/internal/modules/counselor"
	pkgerrors "github.com/yungbote/mba-counselor/internal/pkg/errors"
	"github.com/yungbote/mba-counselor/internal/services"
	"github.com/yungbote/mba-counselor/internal/services/session"
)

type fakeCounselor struct {
	lastChat  services.ChatInput
	lastReset string
}

func (f *fakeCounselor) Chat(ctx context.Context, in services.ChatInput) (services.ChatResult, error) {
	f.lastChat = in
	if strings.TrimSpace(in.Message) == "" {
		return services.ChatResult{}, fmt.Errorf("empty message: %w", pkgerrors.ErrInvalidArgument)
	}
	id := in.SessionID
	if id == "" {
		id = "new-session"
	}
	return services.ChatResult{
		SessionID:   id,
		Reply:       "Here are two options.",
		Timestamp:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Preferences: counselor.Preferences{"specialization": "finance"},
		Cards: []counselor.RecommendationCard{{
			Name: "Alpha", Fees: "₹30,000 per semester", Pros: []string{"x"}, Cons: []string{"y"}, Reasons: []string{"z"},
		}},
		HasRecommendations: true,
	}, nil
}

func (f *fakeCounselor) Reset(ctx context.Context, id string) string {
	f.lastReset = id
	return "fresh-session"
}

func (f *fakeCounselor) Session(ctx context.Context, id string) (services.SessionView, error) {
	if id != "known" {
		return services.SessionView{}, pkgerrors.ErrNotFound
	}
	return services.SessionView{
		SessionID:   id,
		Preferences: counselor.Preferences{"budget": "low"},
		History:     []session.Turn{{User: "hi", Reply: "hello", Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}},
	}, nil
}

type fakeCatalog struct{ err error }

func (f *fakeCatalog) List(ctx context.Context) ([]*types.Program, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*types.Program{{ID: uuid.New(), Name: "Alpha", Specialization: "Finance", FeesPerSemester: 35000}}, nil
}

func (f *fakeCatalog) Invalidate() {}

func newTestRouter(c services.CounselorService, cat services.CatalogService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCounselorHandler(c)
	r.POST("/api/chat", h.Chat)
	r.POST("/api/reset", h.Reset)
	r.GET("/api/sessions/:id", h.GetSession)
	r.GET("/api/programs", NewProgramHandler(cat).List)
	r.GET("/healthcheck", NewHealthHandler(nil).HealthCheck)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestChatResponseShape(t *testing.T) {
	fc := &fakeCounselor{}
	r := newTestRouter(fc, &fakeCatalog{})

	rec := do(r, http.MethodPost, "/api/chat", `{"message": "finance with low fees"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"session_id", "response", "timestamp", "preferences", "university_cards", "has_recommendations"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing key %q in %v", key, got)
		}
	}
	if got["timestamp"] != "2026-03-01T10:00:00Z" || got["has_recommendations"] != true {
		t.Fatalf("body: %v", got)
	}
	cards := got["university_cards"].([]any)
	card := cards[0].(map[string]any)
	if card["fees"] != "₹30,000 per semester" {
		t.Fatalf("card: %v", card)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	r := newTestRouter(&fakeCounselor{}, &fakeCatalog{})
	for _, body := range []string{`{}`, `{"message": ""}`, `{"message": "   "}`, `not json`} {
		rec := do(r, http.MethodPost, "/api/chat", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400 got=%d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"code":"invalid_request"`) {
			t.Fatalf("%s: body=%s", body, rec.Body.String())
		}
	}
}

func TestResetReturnsNewSession(t *testing.T) {
	fc := &fakeCounselor{}
	r := newTestRouter(fc, &fakeCatalog{})
	rec := do(r, http.MethodPost, "/api/reset", `{"session_id": "old"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if fc.lastReset != "old" || !strings.Contains(rec.Body.String(), `"session_id":"fresh-session"`) {
		t.Fatalf("reset: last=%q body=%s", fc.lastReset, rec.Body.String())
	}

	rec = do(r, http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"reset"`) {
		t.Fatalf("reset without body: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetSession(t *testing.T) {
	r := newTestRouter(&fakeCounselor{}, &fakeCatalog{})
	rec := do(r, http.MethodGet, "/api/sessions/known", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"user":"hi"`) {
		t.Fatalf("known: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(r, http.MethodGet, "/api/sessions/missing", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "session_not_found") {
		t.Fatalf("missing: %d %s", rec.Code, rec.Body.String())
	}
}

func TestListPrograms(t *testing.T) {
	r := newTestRouter(&fakeCounselor{}, &fakeCatalog{})
	rec := do(r, http.MethodGet, "/api/programs", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "₹35,000 per semester") {
		t.Fatalf("programs: %d %s", rec.Code, rec.Body.String())
	}

	r = newTestRouter(&fakeCounselor{}, &fakeCatalog{err: errors.New("db down")})
	rec = do(r, http.MethodGet, "/api/programs", "")
	if rec.Code != http.StatusServiceUnavailable || strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("catalog error: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(&fakeCounselor{}, &fakeCatalog{})
	rec := do(r, http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}
}
