package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"userbase/internal/authz"
	"userbase/internal/common"
	"userbase/internal/models"
	"userbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func performRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *authz.Actor) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured *authz.Actor
	handler := mw(func(c echo.Context) error {
		if actor, ok := common.GetActorFromContext(c.Request().Context()); ok {
			captured = &actor
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, captured
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	user := &models.User{ID: uuid.New(), Name: "Ana", Email: "ana@x.com", Role: models.RoleAdmin}
	token, err := tokens.Issue(user)
	assert.NoError(t, err)

	rec, actor := performRequest(t, JWTMiddleware(tokens), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, actor)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, models.RoleAdmin, actor.Role)
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)

	rec, actor := performRequest(t, JWTMiddleware(tokens), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, actor)
}

func TestJWTMiddleware_NotBearer(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)

	rec, _ := performRequest(t, JWTMiddleware(tokens), "Basic abc123")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_RotatedKeyInvalidatesTokens(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "ana@x.com", Role: models.RoleUser}
	token, err := services.NewTokenService("old-secret", time.Hour).Issue(user)
	assert.NoError(t, err)

	rec, _ := performRequest(t, JWTMiddleware(services.NewTokenService("new-secret", time.Hour)), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireDecision(t *testing.T) {
	tokens := services.NewTokenService("test-secret", time.Hour)
	adminToken, err := tokens.Issue(&models.User{ID: uuid.New(), Email: "a@x.com", Role: models.RoleAdmin})
	assert.NoError(t, err)
	userToken, err := tokens.Issue(&models.User{ID: uuid.New(), Email: "u@x.com", Role: models.RoleUser})
	assert.NoError(t, err)

	chain := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	mw := func(header string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := JWTMiddleware(tokens)(RequireDecision(authz.CanListUsers)(chain))
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec
	}

	assert.Equal(t, http.StatusOK, mw("Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusForbidden, mw("Bearer "+userToken).Code)
}
