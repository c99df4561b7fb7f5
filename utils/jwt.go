package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gabigab117/platforum/config"
)

// Token purposes. Session tokens authenticate API calls; activation tokens
// are single-purpose links mailed to new accounts.
const (
	PurposeSession    = "session"
	PurposeActivation = "activation"
)

var ErrWrongTokenPurpose = errors.New("wrong token purpose")

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateToken issues a session JWT for the specified user identity.
func GenerateToken(userID uint, username string, duration time.Duration) (string, error) {
	return generate(userID, username, PurposeSession, duration)
}

// GenerateActivationToken issues a short-lived token embedded in the
// account activation link.
func GenerateActivationToken(userID uint, username string) (string, error) {
	return generate(userID, username, PurposeActivation, 48*time.Hour)
}

func generate(userID uint, username, purpose string, duration time.Duration) (string, error) {
	cfg := config.Get()

	claims := Claims{
		UserID:   userID,
		Username: username,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a session JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	return parse(tokenStr, PurposeSession)
}

// ParseActivationToken validates an activation JWT. A session token is not
// accepted here and vice versa.
func ParseActivationToken(tokenStr string) (*Claims, error) {
	return parse(tokenStr, PurposeActivation)
}

func parse(tokenStr, purpose string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	// Tokens issued before the purpose claim existed carry an empty purpose
	// and are treated as sessions.
	got := claims.Purpose
	if got == "" {
		got = PurposeSession
	}
	if got != purpose {
		return nil, ErrWrongTokenPurpose
	}

	return claims, nil
}
