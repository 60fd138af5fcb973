package models

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin grants access to the back-office routes
const RoleAdmin = "admin"

// AdminClaims are the JWT claims issued on admin login
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
