package services

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// GoogleVerifier checks a Google-issued ID token and extracts the asserted
// identity. The redirect dance happens on the frontend; the backend only ever
// sees the resulting ID token.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleProfile, error)
	Close()
}

type googleVerifier struct {
	jwks     *keyfunc.JWKS
	clientID string
}

// NewGoogleVerifier starts a background-refreshing JWKS client for Google's
// signing keys.
func NewGoogleVerifier(ctx context.Context, clientID string) (GoogleVerifier, error) {
	jwks, err := keyfunc.Get(googleJWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load Google JWKS: %w", err)
	}
	return &googleVerifier{jwks: jwks, clientID: clientID}, nil
}

func (v *googleVerifier) Verify(ctx context.Context, idToken string) (*GoogleProfile, error) {
	token, err := jwt.Parse(idToken, v.jwks.Keyfunc,
		jwt.WithAudience(v.clientID),
		jwt.WithIssuer("https://accounts.google.com"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("google token validation failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid google token claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		return nil, fmt.Errorf("google token missing subject or email")
	}

	name, _ := claims["name"].(string)
	if name == "" {
		name = email
	}
	picture, _ := claims["picture"].(string)

	return &GoogleProfile{
		Subject: sub,
		Email:   email,
		Name:    name,
		Picture: picture,
	}, nil
}

func (v *googleVerifier) Close() {
	v.jwks.EndBackground()
}
