package utils

import (
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/postscheduler/internal/transfer"
)

// TokenIssuer is the issuer every accepted session token must carry.
const TokenIssuer = "postscheduler"

// ValidateToken checks a session token issued by the sign-in service, which
// shares SECRET_KEY with this process.
func ValidateToken(secretKey, tokenString string) (*transfer.CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(TokenIssuer))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	claims, ok := token.Claims.(*transfer.CustomClaims)
	if !ok || !token.Valid || claims.OwnerID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
