package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaim is the JWT claim carrying the session id.
const SessionClaim = "sessionID"

var ErrInvalidToken = errors.New("invalid session token")

// AuthService issues anonymous device sessions. There are no accounts: a session is
// just a signed, expiring id that scopes location and filter state.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{jwtSecret: []byte(jwtSecret), ttl: ttl, now: time.Now}
}

// IssueSession mints a new session id and its signed token.
func (s *AuthService) IssueSession() (token, sessionID string, err error) {
	sessionID = uuid.New().String()
	now := s.now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		SessionClaim: sessionID,
		"iat":        now.Unix(),
		"exp":        now.Add(s.ttl).Unix(),
	})
	token, err = t.SignedString(s.jwtSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, sessionID, nil
}

// ParseSession validates a token and returns its session id.
func (s *AuthService) ParseSession(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sessionID, ok := claims[SessionClaim].(string)
	if !ok || sessionID == "" {
		return "", ErrInvalidToken
	}
	return sessionID, nil
}
