package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.Equal(t, "release", c.GinMode)
	assert.Equal(t, "platforum", c.DBName)
	assert.Equal(t, 6379, c.RedisPort)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 5, c.RegisterMaxPerIPPerDay)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := AppConfig{AppPort: "9000", DBName: "custom"}
	applyDefaults(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "http://localhost:9000", c.BaseURL)
	assert.Equal(t, "custom", c.DBName)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REGISTER_CAPTCHA_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, "9999", c.AppPort)
	assert.Equal(t, "from-env", c.JWTSecret)
	assert.Equal(t, 6380, c.RedisPort)
	assert.True(t, c.RegisterCaptchaEnabled)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,, "))
	assert.Empty(t, splitAndTrim("  ,  "))
}
