package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies signed identity tokens. It wraps a
// jwtauth.JWTAuth so the same keypair drives both issuance here and
// verification in the router middleware.
type TokenService struct {
	auth   *jwtauth.JWTAuth
	expiry time.Duration
}

func NewTokenService(secret []byte, expiry time.Duration) *TokenService {
	return &TokenService{
		auth:   jwtauth.New("HS256", secret, nil),
		expiry: expiry,
	}
}

// JWTAuth exposes the underlying verifier for the router's jwtauth.Verify
// middleware.
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth {
	return s.auth
}

func (s *TokenService) Generate(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(s.expiry).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	return tokenString, err
}

// Helper functions to extract claims, used by the auth middleware.
func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims map[string]interface{}) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
