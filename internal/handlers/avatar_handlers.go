package handlers

import (
	"errors"
	"net/http"
	"time"

	"userbase/internal/authz"
	"userbase/internal/common"
	"userbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const avatarURLExpiry = 15 * time.Minute

// AvatarHandlers handles profile picture upload and retrieval
type AvatarHandlers struct {
	avatars services.AvatarService
}

func NewAvatarHandlers(avatars services.AvatarService) *AvatarHandlers {
	return &AvatarHandlers{avatars: avatars}
}

// UploadAvatar stores the authenticated user's profile picture
func (h *AvatarHandlers) UploadAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read avatar file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if err := h.avatars.Upload(ctx, actor.ID, src, file.Size, contentType); err != nil {
		return common.WriteError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAvatar removes the authenticated user's profile picture
func (h *AvatarHandlers) DeleteAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.avatars.Delete(ctx, actor.ID); err != nil {
		return common.WriteError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAvatarURL returns a short-lived presigned URL for a user's avatar.
// The same view policy as GetUser applies.
func (h *AvatarHandlers) GetAvatarURL(c echo.Context) error {
	ctx := c.Request().Context()
	actor, ok := common.GetActorFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	if d := authz.CanViewUser(actor, targetID); !d.Allowed() {
		return echo.NewHTTPError(http.StatusForbidden, d.Reason())
	}

	url, err := h.avatars.PresignedURL(ctx, targetID, avatarURLExpiry)
	if errors.Is(err, services.ErrAvatarNotFound) {
		return common.WriteError(c, common.NewNotFound("avatar"))
	}
	if err != nil {
		return common.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
