package jwt

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

const issuer = "go-inventory-ledger"

var (
	mu        sync.RWMutex
	secretKey = []byte("inventory-secret-key-change-in-production")
	tokenTTL  = 7 * 24 * time.Hour
)

// Claims represents the JWT claims structure
type Claims struct {
	UserID       uint     `json:"user_id"`
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	RoleCode     string   `json:"role_code"`
	Privileges   []string `json:"privileges"`
	TokenVersion string   `json:"token_version"`
	jwt.RegisteredClaims
}

// Configure sets the signing secret and token lifetime. Empty or zero values keep the defaults.
func Configure(secret string, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if secret != "" {
		secretKey = []byte(secret)
	}
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// GetSecretKey returns the configured signing secret
func GetSecretKey() []byte {
	mu.RLock()
	defer mu.RUnlock()
	return secretKey
}

// TTL returns the configured token lifetime.
func TTL() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return tokenTTL
}

// GenerateToken creates a new JWT token for a user
func GenerateToken(userID uint, username, name, roleCode string, privileges []string, tokenVersion string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       userID,
		Username:     username,
		Name:         name,
		RoleCode:     roleCode,
		Privileges:   privileges,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetSecretKey())
}

// ValidateToken parses and validates a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return GetSecretKey(), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
