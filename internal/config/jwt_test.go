package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWTConfig_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     JWTConfig
		wantErr string
	}{
		{"ok", JWTConfig{Secret: "0123456789abcdef", ExpirationHours: 1}, ""},
		{"empty", JWTConfig{ExpirationHours: 1}, "cannot be empty"},
		{"short", JWTConfig{Secret: "abc", ExpirationHours: 1}, "at least 16 characters"},
		{"expiration", JWTConfig{Secret: "0123456789abcdef", ExpirationHours: 0}, "at least 1 hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.normalize()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
