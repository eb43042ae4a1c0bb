package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/middleware"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

// dashboardService picks the summary matching the caller's role and reports
// whether it was served from cache.
type dashboardService interface {
	Dashboard(ctx context.Context, scope models.Scope) (interface{}, bool, error)
}

// DashboardHandler serves GET /dashboard.
type DashboardHandler struct {
	service dashboardService
}

func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Role specific dashboard
// @Description Student, supervisor or admin summary depending on the caller's role
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "dashboard unavailable"))
		return
	}
	_, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	summary, cacheHit, err := h.service.Dashboard(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "dashboard", strings.ToLower(string(scope.Role)))
	respondWithMeta(c, http.StatusOK, summary, nil)
}
