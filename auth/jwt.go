package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 30 * time.Minute

// ErrInvalidToken covers every way a presented token can fail validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// Secret returns the HS256 signing key from the environment.
func Secret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("yoursupersecretkey")
}

// NewToken issues an access token carrying the identity the voting service
// trusts: user id, username and role.
func NewToken(userID, username, role string) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)

	claims["sub"] = username
	claims["uid"] = userID
	claims["role"] = role
	claims["exp"] = time.Now().Add(tokenTTL).Unix()

	return token.SignedString(Secret())
}

// ParseToken validates the token and extracts the identity claims.
func ParseToken(tokenString string) (userID, username, role string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return Secret(), nil
	})
	if err != nil || !token.Valid {
		return "", "", "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", "", ErrInvalidToken
	}

	userID, _ = claims["uid"].(string)
	username, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	if userID == "" || username == "" {
		return "", "", "", ErrInvalidToken
	}
	return userID, username, role, nil
}
