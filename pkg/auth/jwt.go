package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims represents the session claims carried in the auth cookie
type Claims struct {
	Username string `json:"sub"`
	Name     string `json:"name"`
	Guest    bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing parameters for session tokens. The
// secret and lifetime come from the cookie section of the credential
// config file.
type TokenConfig struct {
	SecretKey string
	Issuer    string
	Lifetime  time.Duration
}

// TokenManager issues and validates HS256 session tokens
type TokenManager struct {
	secretKey []byte
	issuer    string
	lifetime  time.Duration
}

// NewTokenManager creates a new token manager
func NewTokenManager(config TokenConfig) (*TokenManager, error) {
	if config.SecretKey == "" {
		return nil, errors.New("secret key required")
	}
	lifetime := config.Lifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &TokenManager{
		secretKey: []byte(config.SecretKey),
		issuer:    config.Issuer,
		lifetime:  lifetime,
	}, nil
}

// Lifetime returns the configured token lifetime
func (m *TokenManager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue generates a signed session token for a user session
func (m *TokenManager) Issue(session Session) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: session.Username,
		Name:     session.Name,
		Guest:    session.Guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate validates a session token and returns the claims
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidClaims)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrInvalidClaims)
	}

	return claims, nil
}
