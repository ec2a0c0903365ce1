package jwt

import "github.com/golang-jwt/jwt"

// RoleAdmin is the role allowed to mutate ban lists through the status API.
const RoleAdmin = "admin"

// Payload defines the claims of a status API bearer token.
type Payload struct {
	// StandardClaims carries expiry, issue time, issuer, audience and subject.
	jwt.StandardClaims `json:"standard_claims"`

	// Name identifies the operator the token was issued to. It is copied into the request log.
	Name string `json:"name"`

	// Role decides which endpoints the holder may call. Only RoleAdmin is recognized.
	Role string `json:"role"`
}

// IsAdmin reports whether the token grants ban list mutation.
func (p *Payload) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
