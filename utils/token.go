package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type JwtCustomClaim struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.StandardClaims
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "TrueBit-Secret"
	}
	return secret
}

func tokenLifespan(envKey string, fallbackHours int) time.Duration {
	hours, err := strconv.Atoi(os.Getenv(envKey))
	if err != nil || hours <= 0 {
		hours = fallbackHours
	}
	return time.Duration(hours) * time.Hour
}

func JwtGenerate(userID int, role string) (string, error) {
	return generateToken(userID, role, TokenTypeAccess, tokenLifespan("TOKEN_HOUR_LIFESPAN", 24))
}

// JwtGenerateRefresh issues the long-lived token exchanged for new access tokens.
func JwtGenerateRefresh(userID int, role string) (string, error) {
	return generateToken(userID, role, TokenTypeRefresh, tokenLifespan("REFRESH_TOKEN_HOUR_LIFESPAN", 24*7))
}

func generateToken(userID int, role string, tokenType string, lifespan time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:        userID,
		Role:      role,
		TokenType: tokenType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(lifespan).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	token, err := t.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return token, nil
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
}

// JwtValidateRefresh accepts only refresh tokens.
func JwtValidateRefresh(token string) (*JwtCustomClaim, error) {
	parsed, err := JwtValidate(token)
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid refresh token")
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || claims.TokenType != TokenTypeRefresh {
		return nil, errors.New("invalid refresh token")
	}
	return claims, nil
}
