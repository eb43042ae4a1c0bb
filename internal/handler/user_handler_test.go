package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/service"
)

type fakeUserSrv struct {
	lastFilter  models.UserFilter
	lastCreate  service.CreateUserRequest
	lastActor   string
	lastAssign  service.AssignSupervisorRequest
	lastStudent string
}

func (f *fakeUserSrv) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.User{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeUserSrv) Create(_ context.Context, req service.CreateUserRequest, actorID string, _ models.ClientInfo) (*models.User, error) {
	f.lastCreate, f.lastActor = req, actorID
	return &models.User{ID: "u-1", Identifier: req.Identifier, Role: req.Role}, nil
}

func (f *fakeUserSrv) SetActive(_ context.Context, id string, req service.UpdateUserStatusRequest, _ string, _ models.ClientInfo) (*models.User, error) {
	return &models.User{ID: id, Active: *req.Active}, nil
}

func (f *fakeUserSrv) Deactivate(_ context.Context, id string, _ string, _ models.ClientInfo) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserSrv) StudentByIdentifier(context.Context, string) (*models.StudentDetail, error) {
	return &models.StudentDetail{}, nil
}

func (f *fakeUserSrv) AssignSupervisor(_ context.Context, studentID string, req service.AssignSupervisorRequest, _ string, _ models.ClientInfo) error {
	f.lastStudent, f.lastAssign = studentID, req
	return nil
}

func (f *fakeUserSrv) ListSupervisors(context.Context) ([]models.SupervisorOverview, error) {
	return []models.SupervisorOverview{}, nil
}

func (f *fakeUserSrv) SupervisorSummary(_ context.Context, id string) (*models.SupervisorSummary, error) {
	return &models.SupervisorSummary{SupervisorID: id}, nil
}

func TestUserHandlerListFilters(t *testing.T) {
	svc := &fakeUserSrv{}
	handler := NewUserHandler(svc)

	c, w := newGinContext(http.MethodGet, "/admin/users?role=supervisor&active=true&search=budi&page=2", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastFilter.Role)
	assert.Equal(t, models.RoleSupervisor, *svc.lastFilter.Role)
	require.NotNil(t, svc.lastFilter.Active)
	assert.True(t, *svc.lastFilter.Active)
	assert.Equal(t, "budi", svc.lastFilter.Search)
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 20, svc.lastFilter.PageSize)

	c, w = newGinContext(http.MethodGet, "/admin/users?active=maybe", nil)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/admin/users?role=guest", nil)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"oneof"`)
}

func TestUserHandlerCreate(t *testing.T) {
	svc := &fakeUserSrv{}
	handler := NewUserHandler(svc)
	c, w := newGinContext(http.MethodPost, "/admin/users", []byte(`{"identifier":"S1","full_name":"Budi","role":"SUPERVISOR","password":"secret1"}`))
	authenticate(c, "adm-1", models.RoleAdmin)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "adm-1", svc.lastActor)
	assert.Equal(t, models.RoleSupervisor, svc.lastCreate.Role)
}

func TestUserHandlerAssignSupervisor(t *testing.T) {
	svc := &fakeUserSrv{}
	handler := NewUserHandler(svc)
	c, w := newGinContext(http.MethodPut, "/admin/students/stu-1/supervisor", []byte(`{"supervisor_id":null}`))
	c.Params = append(c.Params, ginParam("id", "stu-1"))
	authenticate(c, "adm-1", models.RoleAdmin)

	handler.AssignSupervisor(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "stu-1", svc.lastStudent)
	assert.Nil(t, svc.lastAssign.SupervisorID)
}
