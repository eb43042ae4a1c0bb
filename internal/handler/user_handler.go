package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/service"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Create(ctx context.Context, req service.CreateUserRequest, actorID string, meta models.ClientInfo) (*models.User, error)
	SetActive(ctx context.Context, id string, req service.UpdateUserStatusRequest, actorID string, meta models.ClientInfo) (*models.User, error)
	Deactivate(ctx context.Context, id string, actorID string, meta models.ClientInfo) (*models.User, error)
	StudentByIdentifier(ctx context.Context, identifier string) (*models.StudentDetail, error)
	AssignSupervisor(ctx context.Context, studentID string, req service.AssignSupervisorRequest, actorID string, meta models.ClientInfo) error
	ListSupervisors(ctx context.Context) ([]models.SupervisorOverview, error)
	SupervisorSummary(ctx context.Context, supervisorID string) (*models.SupervisorSummary, error)
}

// UserHandler manages user endpoints for administrators.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "STUDENT, ADMIN or SUPERVISOR"
// @Param active query bool false "Active flag"
// @Param search query string false "Identifier, name or email"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown role filter").WithField("role", "oneof"))
			return
		}
		filter.Role = &role
	}
	if active := c.Query("active"); active != "" {
		value, err := strconv.ParseBool(active)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be true or false"))
			return
		}
		filter.Active = &value
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(models.DefaultPageSize)))

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Create godoc
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateUserRequest
	if !bindJSON(c, &req, "invalid user payload") {
		return
	}
	user, err := h.service.Create(c.Request.Context(), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// SetStatus godoc
// @Summary Activate or deactivate a user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/status [patch]
func (h *UserHandler) SetStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateUserStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	user, err := h.service.SetActive(c.Request.Context(), c.Param("id"), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Delete godoc
// @Summary Deactivate a user
// @Description Users are never hard deleted
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Deactivate(c.Request.Context(), c.Param("id"), claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Student godoc
// @Summary Student by identifier
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param identifier path string true "Student identifier (NIM)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/by-identifier/{identifier} [get]
func (h *UserHandler) Student(c *gin.Context) {
	detail, err := h.service.StudentByIdentifier(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AssignSupervisor godoc
// @Summary Assign or clear a student's supervisor
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student user ID"
// @Param payload body service.AssignSupervisorRequest true "Supervisor"
// @Success 204
// @Router /admin/students/{id}/supervisor [put]
func (h *UserHandler) AssignSupervisor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AssignSupervisorRequest
	if !bindJSON(c, &req, "invalid supervisor payload") {
		return
	}
	if err := h.service.AssignSupervisor(c.Request.Context(), c.Param("id"), req, claims.UserID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Supervisors godoc
// @Summary List supervisors with linked student counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/supervisors [get]
func (h *UserHandler) Supervisors(c *gin.Context) {
	supervisors, err := h.service.ListSupervisors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisors, nil)
}

// SupervisorSummary godoc
// @Summary Review counters of a supervisor
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Router /admin/supervisors/{id}/summary [get]
func (h *UserHandler) SupervisorSummary(c *gin.Context) {
	summary, err := h.service.SupervisorSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
