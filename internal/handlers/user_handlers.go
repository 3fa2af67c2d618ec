package handlers

import (
	"net/http"

	"userbase/internal/common"
	"userbase/internal/models"
	"userbase/internal/repositories"
	"userbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers handles user-related HTTP requests
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// ListUsersRequest represents query parameters for listing users
type ListUsersRequest struct {
	Role   string `query:"role"`
	SortBy string `query:"sortBy"`
	Order  string `query:"order"`
}

// ListUsers returns all users, optionally filtered by role and sorted
func (h *UserHandlers) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req ListUsersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	filter := repositories.ListFilter{SortBy: req.SortBy, Order: req.Order}
	if req.Role != "" {
		role := models.Role(req.Role)
		if !role.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown role filter")
		}
		filter.Role = &role
	}

	users, err := h.userService.List(ctx, actor, filter)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// ListInactive returns users with no authenticated access in the staleness window
func (h *UserHandlers) ListInactive(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	users, err := h.userService.ListInactive(ctx, actor)
	if err != nil {
		return common.WriteError(c, err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser handles admin-initiated user creation
func (h *UserHandlers) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req services.CreateUserRequest
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

	user, err := h.userService.Create(ctx, actor, &req)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetUser returns a single user; non-admins may only fetch themselves
func (h *UserHandlers) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	user, err := h.userService.Get(ctx, actor, targetID)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser applies a partial update to a user record
func (h *UserHandlers) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	var patch services.UpdateUserPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if patch.Name != nil && (len(*patch.Name) < 2 || len(*patch.Name) > 100) {
		return echo.NewHTTPError(http.StatusBadRequest, "Name must be between 2 and 100 characters")
	}
	if patch.Email != nil && (*patch.Email == "" || len(*patch.Email) > 150) {
		return echo.NewHTTPError(http.StatusBadRequest, "A valid email of at most 150 characters is required")
	}
	if patch.Password != nil && len(*patch.Password) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 6 characters")
	}

	user, err := h.userService.Update(ctx, actor, targetID, &patch)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user record
func (h *UserHandlers) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	if err := h.userService.Delete(ctx, actor, targetID); err != nil {
		return common.WriteError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's own record
func (h *UserHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userService.GetProfile(ctx, actor.ID)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe applies a self-service profile update (name and password only)
func (h *UserHandlers) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var patch services.ProfilePatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if patch.Name != nil && (len(*patch.Name) < 2 || len(*patch.Name) > 100) {
		return echo.NewHTTPError(http.StatusBadRequest, "Name must be between 2 and 100 characters")
	}
	if patch.Password != nil && len(*patch.Password) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 6 characters")
	}

	user, err := h.userService.UpdateProfile(ctx, actor.ID, &patch)
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
