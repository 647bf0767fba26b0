package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mba-counselor/internal/http/response"
	"github.com/yungbote/mba-counselor/internal/modules/counselor/steps"
	"github.com/yungbote/mba-counselor/internal/services"
)

var errCatalogUnavailable = errors.New("program catalog unavailable")

type ProgramHandler struct {
	catalog services.CatalogService
}

func NewProgramHandler(catalog services.CatalogService) *ProgramHandler {
	return &ProgramHandler{catalog: catalog}
}

type programResp struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	Fees           string  `json:"fees"`
	Accreditations string  `json:"accreditations"`
	Website        string  `json:"website,omitempty"`
	ReviewRating   float64 `json:"review_rating"`
	ReviewCount    int     `json:"review_count"`
}

// GET /api/programs
func (h *ProgramHandler) List(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "catalog_unavailable", errCatalogUnavailable)
		return
	}
	out := make([]programResp, 0, len(list))
	for _, p := range list {
		out = append(out, programResp{
			ID:             p.ID.String(),
			Name:           p.Name,
			Specialization: p.Specialization,
			Fees:           steps.FormatFee(p.FeesPerSemester),
			Accreditations: p.Accreditations,
			Website:        p.Website,
			ReviewRating:   p.ReviewRating,
			ReviewCount:    p.ReviewCount,
		})
	}
	response.RespondOK(c, gin.H{"programs": out})
}
