package models

import "github.com/golang-jwt/jwt/v5"

// Pagination describes list response paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// JWTClaims is the access-token payload. Only the owning user ID matters to
// this service; identity issuance lives elsewhere.
type JWTClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
