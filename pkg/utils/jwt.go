package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stateIssuer = "mission-control"

// StateClaims is carried in the OAuth state parameter so the callback can
// prove the flow was started by this server.
type StateClaims struct {
	Nonce  string `json:"nonce"`
	Return string `json:"ret,omitempty"`
	jwt.RegisteredClaims
}

func GenerateStateToken(secretKey, returnPath string, ttl time.Duration) (string, error) {
	nonce, err := GenerateRandomKey(16)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := StateClaims{
		Nonce:  nonce,
		Return: returnPath,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    stateIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

func ValidateStateToken(secretKey, tokenString string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(stateIssuer))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims, ok := token.Claims.(*StateClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
