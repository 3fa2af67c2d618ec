package handlers

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"userbase/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAvatarService struct {
	mock.Mock
}

func (m *MockAvatarService) Upload(ctx context.Context, userID uuid.UUID, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, userID, reader, size, contentType)
	return args.Error(0)
}

func (m *MockAvatarService) PresignedURL(ctx context.Context, userID uuid.UUID, expiry time.Duration) (string, error) {
	args := m.Called(ctx, userID, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockAvatarService) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAvatarService) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestGetAvatarURL_Success(t *testing.T) {
	avatars := &MockAvatarService{}
	h := NewAvatarHandlers(avatars)
	actor := userActor()

	avatars.On("PresignedURL", mock.Anything, actor.ID, mock.AnythingOfType("time.Duration")).
		Return("https://minio.local/avatars/"+actor.ID.String(), nil)

	rec := doRequest(h.GetAvatarURL, &actor, http.MethodGet, "/v1/users/"+actor.ID.String()+"/avatar-url", "", "id", actor.ID.String())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), actor.ID.String())
}

func TestGetAvatarURL_NoStoredAvatar(t *testing.T) {
	avatars := &MockAvatarService{}
	h := NewAvatarHandlers(avatars)
	actor := userActor()

	avatars.On("PresignedURL", mock.Anything, actor.ID, mock.AnythingOfType("time.Duration")).
		Return("", services.ErrAvatarNotFound)

	rec := doRequest(h.GetAvatarURL, &actor, http.MethodGet, "/v1/users/"+actor.ID.String()+"/avatar-url", "", "id", actor.ID.String())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAvatarURL_OtherUserForbidden(t *testing.T) {
	avatars := &MockAvatarService{}
	h := NewAvatarHandlers(avatars)
	actor := userActor()
	otherID := uuid.New()

	rec := doRequest(h.GetAvatarURL, &actor, http.MethodGet, "/v1/users/"+otherID.String()+"/avatar-url", "", "id", otherID.String())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	avatars.AssertNotCalled(t, "PresignedURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteAvatar_NoContent(t *testing.T) {
	avatars := &MockAvatarService{}
	h := NewAvatarHandlers(avatars)
	actor := userActor()

	avatars.On("Delete", mock.Anything, actor.ID).Return(nil)

	rec := doRequest(h.DeleteAvatar, &actor, http.MethodDelete, "/v1/me/avatar", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
