package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		wantHours  int
		wantErr    string
	}{
		{"default expiration is a week", "0123456789abcdef", "", 168, ""},
		{"custom expiration", "0123456789abcdef", "24", 24, ""},
		{"missing secret", "", "", 0, "JWT_SECRET is required"},
		{"short secret", "short", "", 0, "at least 16 characters"},
		{"zero hours", "0123456789abcdef", "0", 0, "at least 1 hour"},
		{"not a number", "0123456789abcdef", "soon", 0, "invalid JWT_EXPIRATION_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, tt.wantHours, cfg.ExpirationHours)
			assert.Equal(t, time.Duration(tt.wantHours)*time.Hour, cfg.TTL())
		})
	}
}
