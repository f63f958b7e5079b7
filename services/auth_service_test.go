package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_IssueAndParse(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	token, sessionID, err := auth.IssueSession()
	require.NoError(t, err)
	_, err = uuid.Parse(sessionID)
	require.NoError(t, err)

	got, err := auth.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)
	other := NewAuthService("other-secret", time.Hour)

	foreign, _, err := other.IssueSession()
	require.NoError(t, err)

	expired := NewAuthService("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.IssueSession()
	require.NoError(t, err)

	noSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: old},
		{name: "missing session claim", token: noSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ParseSession(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
