package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const avatarBucket = "avatars"

// ErrAvatarNotFound is returned when a user has no stored avatar.
var ErrAvatarNotFound = errors.New("avatar not found")

// AvatarService stores profile pictures in object storage and hands out
// short-lived presigned URLs for reads.
type AvatarService interface {
	Upload(ctx context.Context, userID uuid.UUID, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, userID uuid.UUID, expiry time.Duration) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	EnsureBucketExists(ctx context.Context) error
}

type avatarService struct {
	client *minio.Client
}

func NewAvatarService(endpoint, accessKey, secretKey string, useSSL bool) (AvatarService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &avatarService{client: client}, nil
}

func (s *avatarService) Upload(ctx context.Context, userID uuid.UUID, reader io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	_, err := s.client.PutObject(ctx, avatarBucket, userID.String(), reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *avatarService) PresignedURL(ctx context.Context, userID uuid.UUID, expiry time.Duration) (string, error) {
	// Presigning never touches the store, so confirm the object exists first
	// rather than handing out a URL that 404s on fetch.
	if _, err := s.client.StatObject(ctx, avatarBucket, userID.String(), minio.StatObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return "", ErrAvatarNotFound
		}
		return "", err
	}

	url, err := s.client.PresignedGetObject(ctx, avatarBucket, userID.String(), expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (s *avatarService) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.client.RemoveObject(ctx, avatarBucket, userID.String(), minio.RemoveObjectOptions{})
}

func (s *avatarService) EnsureBucketExists(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, avatarBucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, avatarBucket, minio.MakeBucketOptions{})
	}
	return nil
}
