package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

type linkedStudentLister interface {
	LinkedStudents(ctx context.Context, scope models.Scope) ([]models.LinkedStudent, error)
}

// SupervisorHandler serves supervisor-only views.
type SupervisorHandler struct {
	visibility linkedStudentLister
}

// NewSupervisorHandler constructs the handler.
func NewSupervisorHandler(visibility linkedStudentLister) *SupervisorHandler {
	return &SupervisorHandler{visibility: visibility}
}

// Students godoc
// @Summary Students linked to the calling supervisor
// @Tags Supervisor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /supervisor/students [get]
func (h *SupervisorHandler) Students(c *gin.Context) {
	_, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	students, err := h.visibility.LinkedStudents(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
