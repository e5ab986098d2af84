package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentityMode(t *testing.T) {
	tests := []struct {
		in   string
		want IdentityMode
	}{
		{"", IdentityModeProfile},
		{"email", IdentityModeProfile},
		{"profile", IdentityModeProfile},
		{"session", IdentityModeSession},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIdentityMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentityMode_Unknown(t *testing.T) {
	_, err := ParseIdentityMode("cookie")

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthorizationRequest_IsExpired(t *testing.T) {
	now := time.Now()
	req := &AuthorizationRequest{CreatedAt: now.Add(-11 * time.Minute)}

	assert.True(t, req.IsExpired(10*time.Minute, now))
	assert.False(t, req.IsExpired(15*time.Minute, now))
	assert.False(t, req.IsExpired(0, now), "Non-positive TTL never expires")
}
