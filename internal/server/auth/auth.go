// Package auth issues and verifies the dashboard session tokens. Tokens are
// HS256 JWTs signed with the access password, so changing the password
// invalidates every outstanding session.
package auth

import (
	"time"

	"github.com/bestruirui/argus/internal/conf"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWTToken mints a session token.
// expiresMin: 0 means 15 minutes, -1 means 30 days.
func GenerateJWTToken(expiresMin int) (string, string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    conf.APP_NAME,
	}
	if expiresMin == 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(15 * time.Minute))
	} else if expiresMin > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(expiresMin) * time.Minute))
	} else if expiresMin == -1 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(30 * 24 * time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
	if err != nil {
		return "", "", err
	}
	return token, claims.ExpiresAt.Format(time.RFC3339), nil
}

func VerifyJWTToken(token string) bool {
	jwtToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return secret(), nil
	})
	if err != nil || !jwtToken.Valid {
		return false
	}
	return true
}

func secret() []byte {
	return []byte(conf.APP_NAME + conf.AppConfig.Auth.AccessPassword)
}
