package api

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// validateJWT verifies an HS256 bearer token and returns the user id from
// its "sub" claim. User management lives elsewhere; this service only
// needs to attribute requests.
func validateJWT(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
