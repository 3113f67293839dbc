package jwttoken

import (
	"securelife/internal/platform/middleware"
	id "securelife/pkg/domain"
)

// ToMiddlewareClaims converts validated token claims into the shape the auth
// middleware threads through the request context.
func ToMiddlewareClaims(claims *Claims) (*middleware.JWTClaims, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID: userID,
		Role:   claims.Role,
	}, nil
}

type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
