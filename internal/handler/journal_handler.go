package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

type journalService interface {
	Submit(ctx context.Context, userID string, req dto.SubmitJournalRequest) (*models.JournalEntry, error)
	Review(ctx context.Context, scope models.Scope, reviewerID, entryID string, req dto.ReviewRequest) (*models.JournalEntry, error)
	ListOwn(ctx context.Context, userID string) ([]models.JournalEntry, error)
	Get(ctx context.Context, scope models.Scope, entryID string) (*models.JournalEntry, error)
}

// JournalHandler exposes journal submission and review.
type JournalHandler struct {
	service journalService
}

// NewJournalHandler constructs the handler.
func NewJournalHandler(svc journalService) *JournalHandler {
	return &JournalHandler{service: svc}
}

// Submit godoc
// @Summary Submit a daily journal
// @Tags Journals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitJournalRequest true "Journal entry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /journals [post]
func (h *JournalHandler) Submit(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	var req dto.SubmitJournalRequest
	if !bindJSON(c, &req, "invalid journal payload") {
		return
	}
	entry, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Review godoc
// @Summary Review a journal entry
// @Tags Journals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Journal ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /journals/{id}/review [patch]
func (h *JournalHandler) Review(c *gin.Context) {
	claims, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	entry, err := h.service.Review(c.Request.Context(), scope, claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// ListOwn godoc
// @Summary Own journals
// @Tags Journals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /journals/me [get]
func (h *JournalHandler) ListOwn(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	entries, err := h.service.ListOwn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Get godoc
// @Summary Journal entry by id
// @Tags Journals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Journal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /journals/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	_, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	entry, err := h.service.Get(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
