package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// AdminLogin authenticates the back-office user and returns a JWT token
func (s *Service) AdminLogin(email, password string) (string, error) {
	if s.config.AdminPasswordHash == "" || !strings.EqualFold(strings.TrimSpace(email), s.config.AdminEmail) {
		return "", ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// Generate JWT
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, models.AdminClaims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.config.AdminEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Admin logged in: %s", s.config.AdminEmail)
	return tokenString, nil
}
