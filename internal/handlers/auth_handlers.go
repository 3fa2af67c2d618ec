package handlers

import (
	"net/http"

	"userbase/internal/common"
	"userbase/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService    services.AuthService
	googleVerifier services.GoogleVerifier
}

func NewAuthHandlers(authService services.AuthService, googleVerifier services.GoogleVerifier) *AuthHandlers {
	return &AuthHandlers{
		authService:    authService,
		googleVerifier: googleVerifier,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and logs it in in one step
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if len(req.Name) < 2 || len(req.Name) > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "Name must be between 2 and 100 characters")
	}
	if req.Email == "" || len(req.Email) > 150 {
		return echo.NewHTTPError(http.StatusBadRequest, "A valid email of at most 150 characters is required")
	}
	if len(req.Password) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 6 characters")
	}

	result, err := h.authService.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// GoogleLoginRequest carries the ID token obtained by the frontend redirect flow
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// GoogleLogin verifies a Google ID token and signs the user in, provisioning
// an account on first sight
func (h *AuthHandlers) GoogleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.IDToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id_token is required")
	}

	profile, err := h.googleVerifier.Verify(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Google token")
	}

	result, err := h.authService.LoginWithGoogle(ctx, profile)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
