package config

import "fmt"

// MinSecretLength is the shortest accepted HS256 signing secret.
const MinSecretLength = 16

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("config error: 'jwt.secret' cannot be empty")
	}
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("config error: 'jwt.secret' must be at least %d characters", MinSecretLength)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("config error: 'jwt.expiration_hours' must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
