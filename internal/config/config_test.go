// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		Database:  DatabaseConfig{URL: "postgres://localhost/marketplace"},
		Redis:     RedisConfig{URL: "redis://localhost:6379/0"},
		JWT:       JWTConfig{Secret: testSecret, Issuer: "iss", Audience: "aud", AccessTokenExpire: time.Hour},
		Lifecycle: LifecycleConfig{RenewalPeriod: 24 * time.Hour},
		Server:    ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second},
	}
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://db/marketplace
redis:
  url: redis://cache:6379/0
jwt:
  secret: `+testSecret+`
lifecycle:
  renewal_period: 720h
server:
  port: 9090
`)

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/marketplace", c.Database.URL)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 720*time.Hour, c.Lifecycle.RenewalPeriod)

	assert.Equal(t, "marketplace-backend", c.JWT.Issuer)
	assert.Equal(t, "marketplace-api", c.JWT.Audience)
	assert.Equal(t, 24*time.Hour, c.JWT.AccessTokenExpire)
	assert.True(t, c.Database.AutoMigrate)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, "/metrics", c.Metrics.Path)
	assert.Equal(t, 10, c.RateLimit.LoginRequests)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://db/marketplace
redis:
  url: redis://cache:6379/0
jwt:
  secret: `+testSecret+`
`)
	t.Setenv("RENEWAL_PERIOD", "48h")
	t.Setenv("JWT_ISSUER", "issuer-from-env")

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, c.Lifecycle.RenewalPeriod)
	assert.Equal(t, "issuer-from-env", c.JWT.Issuer)
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://db/marketplace
redis:
  url: redis://cache:6379/0
jwt:
  secret: short
`)

	_, err := load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing database",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing redis",
			mutate:  func(c *Config) { c.Redis.URL = "" },
			wantErr: "REDIS_URL",
		},
		{
			name:    "secret one byte short",
			mutate:  func(c *Config) { c.JWT.Secret = testSecret[:31] },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "missing audience",
			mutate:  func(c *Config) { c.JWT.Audience = "" },
			wantErr: "jwt.audience",
		},
		{
			name:    "zero token lifetime",
			mutate:  func(c *Config) { c.JWT.AccessTokenExpire = 0 },
			wantErr: "access_token_expire",
		},
		{
			name:    "zero renewal period",
			mutate:  func(c *Config) { c.Lifecycle.RenewalPeriod = 0 },
			wantErr: "renewal_period",
		},
		{
			name: "wildcard with credentials",
			mutate: func(c *Config) {
				c.CORS.AllowCredentials = true
				c.CORS.AllowedOrigins = []string{"*"}
			},
			wantErr: "wildcard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := validate(c)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c := validConfig()
	c.Database.URL = ""
	c.Lifecycle.RenewalPeriod = -time.Hour

	err := validate(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "renewal_period")
}
