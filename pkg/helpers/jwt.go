package helpers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrNoSigningKey          = errors.New("no signing key configured")
)

// JWTManager issues and verifies HS256 tokens. The first key signs; every
// key is accepted for verification so secrets can be rotated.
type JWTManager struct {
	keys [][]byte
	TTL  time.Duration
	now  func() time.Time
}

func NewJWTManager(secret string, previous []string, ttl time.Duration) *JWTManager {
	keys := make([][]byte, 0, 1+len(previous))
	if secret != "" {
		keys = append(keys, []byte(secret))
	}
	for _, p := range previous {
		if p != "" {
			keys = append(keys, []byte(p))
		}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTManager{keys: keys, TTL: ttl, now: time.Now}
}

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Issue signs a token for userID that expires after the manager TTL.
func (m *JWTManager) Issue(userID string) (string, time.Time, error) {
	if len(m.keys) == 0 {
		return "", time.Time{}, ErrNoSigningKey
	}
	now := m.now()
	exp := now.Add(m.TTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.keys[0])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (m *JWTManager) Verify(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenMalformed
	}
	if len(m.keys) == 0 {
		return nil, ErrNoSigningKey
	}
	var lastErr error
	for _, key := range m.keys {
		claims, err := m.parse(tokenStr, key)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, ErrTokenInvalidSignature) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (m *JWTManager) parse(tokenStr string, key []byte) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
