package auth

import (
	"errors"
)

// ErrInvalidCredentials неизвестное место или неверный пароль
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Seats выдаёт токены на управление персонажами.
// Место - символ участника с bcrypt хешем пароля.
type Seats struct {
	signer *Signer
	hashes map[string]string
}

// NewSeats создаёт проверку мест по таблице символ -> хеш
func NewSeats(signer *Signer, hashes map[string]string) *Seats {
	copied := make(map[string]string, len(hashes))
	for symbol, hash := range hashes {
		copied[symbol] = hash
	}
	return &Seats{signer: signer, hashes: copied}
}

// Login проверяет пароль места и выпускает токен
func (s *Seats) Login(symbol, password string) (string, error) {
	hash, ok := s.hashes[symbol]
	if !ok || !CheckPassword(hash, password) {
		return "", ErrInvalidCredentials
	}
	return s.signer.Issue(symbol)
}

// Authorize возвращает символ, которым разрешено управлять по токену
func (s *Seats) Authorize(token string) (string, error) {
	symbol, err := s.signer.Validate(token)
	if err != nil {
		return "", err
	}
	if _, ok := s.hashes[symbol]; !ok {
		return "", ErrInvalidToken
	}
	return symbol, nil
}
