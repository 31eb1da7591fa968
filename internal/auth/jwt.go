package auth

import (
	"fmt"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims oturum ID'sini jti'de taşır, asıl kaynak oturum satırı.
type Claims struct {
	UserID uint            `json:"user_id"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) issue(user *models.User, row models.Session) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        row.ID,
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(row.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(row.CreatedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("geçersiz imzalama yöntemi")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, apperr.ErrSessionClosed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, apperr.ErrSessionClosed
	}
	return claims, nil
}
