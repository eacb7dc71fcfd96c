package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JwtSecret is assigned from config at startup; the server refuses to start
// without one.
var JwtSecret []byte

type Claims struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	IsEmployee bool   `json:"is_employee,omitempty"`
	OwnerID    int64  `json:"owner_id,omitempty"`
	jwt.RegisteredClaims
}

func GenerateOwnerToken(userID int64, email, name string, ttl time.Duration) (string, time.Time, error) {
	return sign(&Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
	}, email, ttl)
}

func GenerateEmployeeToken(employeeID, ownerID int64, email, name, role string, ttl time.Duration) (string, time.Time, error) {
	return sign(&Claims{
		UserID:     employeeID,
		Email:      email,
		Name:       name,
		Role:       role,
		IsEmployee: true,
		OwnerID:    ownerID,
	}, email, ttl)
}

func sign(claims *Claims, subject string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Subject:   subject,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(JwtSecret)
	return s, exp, err
}

func ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return JwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("Invalid Token")
}
