package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		DatabasePassword: "secret",
		AffiliateID:      31316,
		Year:             2024,
		OpenAgeCutoff:    35,
		MastersAgeCutoff: 55,
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate(), "A complete config should validate")

	cfg := validConfig()
	cfg.DatabasePassword = ""
	assert.Error(t, cfg.Validate(), "Missing database password should fail")

	cfg = validConfig()
	cfg.AffiliateID = 0
	assert.Error(t, cfg.Validate(), "Missing affiliate id should fail")

	cfg = validConfig()
	cfg.Year = 2005
	assert.Error(t, cfg.Validate(), "A year before the first Open should fail")

	cfg = validConfig()
	cfg.OpenAgeCutoff = 60
	assert.Error(t, cfg.Validate(), "Inverted age cutoffs should fail")
}

func TestConfig_EventName(t *testing.T) {
	cfg := &Config{EventNames: map[string]string{"1": "24.1", "2": "24.2"}}

	assert.Equal(t, "24.1", cfg.EventName(1), "Mapped ordinals use the configured name")
	assert.Equal(t, "Event 7", cfg.EventName(7), "Unmapped ordinals fall back to a generated name")
}

func TestConfig_RedisAddr(t *testing.T) {
	cfg := &Config{RedisHost: "cache.local", RedisPort: 6380}
	assert.Equal(t, "cache.local:6380", cfg.RedisAddr(), "Should join host and port")
}
