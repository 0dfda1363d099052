package model

import "github.com/golang-jwt/jwt"

// UserClaims are the JWT claims issued to creators.
type UserClaims struct {
	UserName string `json:"user_name"`
	jwt.StandardClaims
}

// OwnerID returns the creator identity carried by the token.
func (c UserClaims) OwnerID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Issuer
}
