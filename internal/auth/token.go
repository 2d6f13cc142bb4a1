package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and parses signed, expiring session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token carrying the caller identity.
func (m *TokenManager) Issue(id shared.Identity) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", id.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a token string and returns the embedded identity.
func (m *TokenManager) Parse(tokenString string) (shared.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return shared.Identity{}, fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized)
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok {
		return shared.Identity{}, fmt.Errorf("%w: invalid token claims", httpx.ErrUnauthorized)
	}
	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return shared.Identity{}, fmt.Errorf("%w: invalid token subject", httpx.ErrUnauthorized)
	}
	return shared.Identity{UserID: userID, Username: claims.Username, Role: claims.Role}, nil
}
