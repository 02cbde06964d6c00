package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "arena-game"

// ErrInvalidToken токен не прошёл проверку
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims содержимое токена места за ареной
type Claims struct {
	Symbol string `json:"symbol"`
	jwt.RegisteredClaims
}

// Signer выпускает и проверяет токены HS256
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner создаёт подписчика; секрет не короче 32 байт
func NewSigner(secret []byte, ttl time.Duration) (*Signer, error) {
	if len(secret) < 32 {
		return nil, errors.New("secret key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue выпускает токен для символа игрока
func (s *Signer) Issue(symbol string) (string, error) {
	now := s.now()
	claims := &Claims{
		Symbol: symbol,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   symbol,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate проверяет токен и возвращает символ игрока
func (s *Signer) Validate(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Symbol == "" {
		return "", ErrInvalidToken
	}
	return claims.Symbol, nil
}

// GenerateSecureSecret генерирует случайный секрет в base64
func GenerateSecureSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeSecret разбирает секрет из base64
func DecodeSecret(secret string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, err
	}
	if len(decoded) < 32 {
		return nil, errors.New("secret key must be at least 32 bytes")
	}
	return decoded, nil
}
