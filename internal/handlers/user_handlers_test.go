package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"userbase/internal/authz"
	"userbase/internal/common"
	"userbase/internal/models"
	"userbase/internal/repositories"
	"userbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, actor authz.Actor, req *services.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, actor authz.Actor, filter repositories.ListFilter) ([]*models.User, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, actor authz.Actor, targetID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, actor, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, actorID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, actor authz.Actor, targetID uuid.UUID, patch *services.UpdateUserPatch) (*models.User, error) {
	args := m.Called(ctx, actor, targetID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, actorID uuid.UUID, patch *services.ProfilePatch) (*models.User, error) {
	args := m.Called(ctx, actorID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor authz.Actor, targetID uuid.UUID) error {
	args := m.Called(ctx, actor, targetID)
	return args.Error(0)
}

func (m *MockUserService) ListInactive(ctx context.Context, actor authz.Actor) ([]*models.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) RefreshInactiveReport(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// doRequest runs a handler with an authenticated actor already in context,
// the way the JWT middleware leaves it.
func doRequest(handler echo.HandlerFunc, actor *authz.Actor, method, path, body string, pathParam ...string) *httptest.ResponseRecorder {
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != nil {
		req = req.WithContext(common.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(pathParam) == 2 {
		c.SetParamNames(pathParam[0])
		c.SetParamValues(pathParam[1])
	}
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func adminActor() authz.Actor {
	return authz.Actor{ID: uuid.New(), Email: "root@x.com", Role: models.RoleAdmin}
}

func userActor() authz.Actor {
	return authz.Actor{ID: uuid.New(), Email: "ana@x.com", Role: models.RoleUser}
}

func TestListUsers_ForwardsFilter(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := adminActor()
	role := models.RoleUser

	svc.On("List", mock.Anything, actor, repositories.ListFilter{Role: &role, SortBy: "name", Order: "DESC"}).
		Return([]*models.User{}, nil)

	rec := doRequest(h.ListUsers, &actor, http.MethodGet, "/v1/users?role=user&sortBy=name&order=DESC", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestListUsers_UnknownRoleFilter(t *testing.T) {
	h := NewUserHandlers(&MockUserService{})
	actor := adminActor()

	rec := doRequest(h.ListUsers, &actor, http.MethodGet, "/v1/users?role=wizard", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsers_ForbiddenForNonAdmin(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := userActor()

	svc.On("List", mock.Anything, actor, repositories.ListFilter{}).
		Return(nil, common.NewForbidden("only administrators can list users"))

	rec := doRequest(h.ListUsers, &actor, http.MethodGet, "/v1/users", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestGetUser_InvalidID(t *testing.T) {
	h := NewUserHandlers(&MockUserService{})
	actor := adminActor()

	rec := doRequest(h.GetUser, &actor, http.MethodGet, "/v1/users/nope", "", "id", "nope")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUser_NotFound(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := adminActor()
	targetID := uuid.New()

	svc.On("Get", mock.Anything, actor, targetID).Return(nil, common.NewNotFound("user"))

	rec := doRequest(h.GetUser, &actor, http.MethodGet, "/v1/users/"+targetID.String(), "", "id", targetID.String())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateUser_PatchPassthrough(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := adminActor()
	targetID := uuid.New()
	updated := &models.User{ID: targetID, Name: "New Name", Role: models.RoleAdmin}

	svc.On("Update", mock.Anything, actor, targetID, mock.AnythingOfType("*services.UpdateUserPatch")).
		Return(updated, nil).
		Run(func(args mock.Arguments) {
			patch := args.Get(3).(*services.UpdateUserPatch)
			assert.NotNil(t, patch.Role)
			assert.Equal(t, models.RoleAdmin, *patch.Role)
			assert.Nil(t, patch.Password)
		})

	rec := doRequest(h.UpdateUser, &actor, http.MethodPatch, "/v1/users/"+targetID.String(), `{"role":"admin"}`, "id", targetID.String())

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateUser_RejectsInvalidFields(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := adminActor()
	targetID := uuid.New()

	cases := []struct {
		name string
		body string
	}{
		{"short name", `{"name":"x"}`},
		{"short password", `{"password":"123"}`},
		{"both invalid", `{"name":"x","password":"123"}`},
		{"empty email", `{"email":""}`},
		{"oversized email", `{"email":"` + strings.Repeat("a", 151) + `"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(h.UpdateUser, &actor, http.MethodPatch, "/v1/users/"+targetID.String(), tc.body, "id", targetID.String())

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteUser_NoContent(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := adminActor()
	targetID := uuid.New()

	svc.On("Delete", mock.Anything, actor, targetID).Return(nil)

	rec := doRequest(h.DeleteUser, &actor, http.MethodDelete, "/v1/users/"+targetID.String(), "", "id", targetID.String())

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListInactive_EmptyReportIsAnEmptyArray(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := adminActor()

	svc.On("ListInactive", mock.Anything, actor).Return([]*models.User(nil), nil)

	rec := doRequest(h.ListInactive, &actor, http.MethodGet, "/v1/users/inactive", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestMe_ReturnsProfile(t *testing.T) {
	svc := &MockUserService{}
	h := NewUserHandlers(svc)
	actor := userActor()
	profile := &models.User{ID: actor.ID, Name: "Ana", Email: actor.Email, Role: models.RoleUser, IsActive: true}

	svc.On("GetProfile", mock.Anything, actor.ID).Return(profile, nil)

	rec := doRequest(h.Me, &actor, http.MethodGet, "/v1/me", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, actor.ID, got.ID)
}

func TestUpdateMe_ShortPassword(t *testing.T) {
	h := NewUserHandlers(&MockUserService{})
	actor := userActor()

	rec := doRequest(h.UpdateMe, &actor, http.MethodPatch, "/v1/me", `{"password":"abc"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_MissingActor(t *testing.T) {
	h := NewUserHandlers(&MockUserService{})

	rec := doRequest(h.Me, nil, http.MethodGet, "/v1/me", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
