package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// Claims identify the caller. Tokens are issued by the identity service;
// GenerateToken exists for tooling and tests.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// GenerateToken creates a signed HS256 token for subject with the given role.
func GenerateToken(secret []byte, subject, role string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateToken parses and validates a token string and returns its claims.
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}
	if claims.Role == "" {
		claims.Role = RoleClient
	}
	return claims, nil
}
