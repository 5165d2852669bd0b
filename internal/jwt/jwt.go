// Package jwt issues and parses the HS256 reconnection tokens spec
// §4.4 hands clients on join so they can rejoin a disconnected game,
// grounded on the teacher's common/jwts package.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims identifies a player and the game they're seated in.
type CustomClaims struct {
	UserID string `json:"userID"`
	GameID string `json:"gameID"`
	jwt.RegisteredClaims
}

// GetToken signs claims with secret using HS256.
func GetToken(claims *CustomClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// IssueReconnectToken builds and signs a token for userID/gameID with
// the given lifetime.
func IssueReconnectToken(userID, gameID, secret string, lifetime time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		GameID: gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return GetToken(claims, secret)
}

// ParseToken validates tokenString against secret and returns its claims.
func ParseToken(tokenString, secret string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("jwt: unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("jwt: invalid token")
	}
	return claims, nil
}
