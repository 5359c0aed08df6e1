package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims identifies the caller of a scheduling request. The service
// does not manage user accounts itself; tokens are issued by whatever
// identity provider sits in front of it and simply carry a subject and
// role this API trusts.
type JWTClaims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}
