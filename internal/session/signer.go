package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "sqlassist"

var (
	ErrSecretRequired = errors.New("session: secret required")
	ErrInvalidToken   = errors.New("session: invalid token")
)

// Signer issues HS256 tokens whose subject is a chat session id.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue starts a new session and returns its id and signed token.
func (s *Signer) Issue() (string, string, error) {
	id := uuid.NewString()
	token, err := s.Sign(id)
	if err != nil {
		return "", "", err
	}
	return id, token, nil
}

func (s *Signer) Sign(sessionID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the session id carried by token.
func (s *Signer) Verify(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Refresh verifies token and, once more than half of its lifetime has passed,
// signs a new token for the same session. renewed is empty while token is
// still fresh.
func (s *Signer) Refresh(token string) (sessionID, renewed string, err error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", "", err
	}

	if claims.IssuedAt != nil && s.now().Sub(claims.IssuedAt.Time) < s.ttl/2 {
		return claims.Subject, "", nil
	}

	renewed, err = s.Sign(claims.Subject)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, renewed, nil
}

func (s *Signer) parse(token string) (*jwt.RegisteredClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
