package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

type attendanceService interface {
	Status(ctx context.Context, userID, rawDate string) (*models.DayStatus, error)
	CheckIn(ctx context.Context, userID string) (*models.AttendanceRecord, error)
	CheckOut(ctx context.Context, userID string) (*models.AttendanceRecord, error)
	RequestLeave(ctx context.Context, userID string, req dto.LeaveRequestPayload) (*models.LeaveRequest, error)
	ReviewLeave(ctx context.Context, scope models.Scope, reviewerID, leaveID string, req dto.ReviewRequest) (*models.LeaveRequest, error)
	AttendanceHistory(ctx context.Context, userID string, limit int) ([]models.AttendanceRecord, error)
	LeaveHistory(ctx context.Context, userID string, limit int) ([]models.LeaveRequest, error)
}

// AttendanceHandler exposes the daily attendance and leave endpoints. Every
// write uses the caller id from the token.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Today godoc
// @Summary Attendance state for a date
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	status, err := h.service.Status(c.Request.Context(), claims.UserID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// CheckIn godoc
// @Summary Check in for today
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	record, err := h.service.CheckIn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// CheckOut godoc
// @Summary Check out for today
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/check-out [post]
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	record, err := h.service.CheckOut(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// History godoc
// @Summary Own attendance history
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 5)"
// @Success 200 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	records, err := h.service.AttendanceHistory(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// RequestLeave godoc
// @Summary Request leave for a date
// @Tags Leaves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.LeaveRequestPayload true "Leave request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves [post]
func (h *AttendanceHandler) RequestLeave(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	var req dto.LeaveRequestPayload
	if !bindJSON(c, &req, "invalid leave payload") {
		return
	}
	leave, err := h.service.RequestLeave(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// LeaveHistory godoc
// @Summary Own leave history
// @Tags Leaves
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 5)"
// @Success 200 {object} response.Envelope
// @Router /leaves/history [get]
func (h *AttendanceHandler) LeaveHistory(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	leaves, err := h.service.LeaveHistory(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// ReviewLeave godoc
// @Summary Approve or reject a leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leave ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/review [patch]
func (h *AttendanceHandler) ReviewLeave(c *gin.Context) {
	claims, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	leave, err := h.service.ReviewLeave(c.Request.Context(), scope, claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}
