package services

import (
	"fmt"
	"time"

	"userbase/internal/authz"
	"userbase/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the signed claim set carried by a bearer token.
type TokenClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Name  string      `json:"name"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the policy actor they represent.
func (c *TokenClaims) Actor() (authz.Actor, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("invalid subject in token: %w", err)
	}
	if !c.Role.Valid() {
		return authz.Actor{}, fmt.Errorf("unknown role in token: %q", c.Role)
	}
	return authz.Actor{ID: userID, Email: c.Email, Name: c.Name, Role: c.Role}, nil
}

// TokenService issues and verifies stateless bearer tokens. There is no
// revocation: a token stays valid until its expiry.
type TokenService interface {
	Issue(user *models.User) (string, error)
	Verify(token string) (*TokenClaims, error)
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenService creates a token issuer with an explicit signing key and
// token lifetime. Rotating the key invalidates every outstanding token.
func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "userbase",
	}
}

func (s *tokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Email: user.Email,
		Role:  user.Role,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token claims")
}
