package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// AdminTokenExpiration is the lifetime of tokens issued by the token subcommand.
	AdminTokenExpiration = 30 * 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "roombot"

	// TokenAudience restricts tokens to the status API.
	TokenAudience = "roombot-status-api"
)

var errUnexpectedClaims = errors.New("token was not issued for the status API")

// GenerateToken signs a token for name with the given role, valid for duration.
func GenerateToken(name, role, secretKey string, duration time.Duration) (string, error) {
	if name == "" {
		return "", errors.New("token name is required")
	}
	now := time.Now()

	claims := &Payload{
		StandardClaims: jwt.StandardClaims{
			Audience:  TokenAudience,
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
			Subject:   name,
		},
		Name: name,
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("signing token for %s: %w", name, err)
	}
	return signed, nil
}

// ParseToken validates the signature, expiry, issuer and audience of tokenString.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.Issuer != TokenIssuer || !claims.VerifyAudience(TokenAudience, true) {
		return nil, errUnexpectedClaims
	}
	return claims, nil
}
