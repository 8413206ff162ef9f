//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Parse([]byte("storage:\n  driver: memory\nauth:\n  jwt_secret: dev\n"), true)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "session", cfg.Auth.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, DefaultAdminEmail, cfg.Bootstrap.DefaultAdminEmail)
	assert.Equal(t, DefaultAdminName, cfg.Bootstrap.DefaultAdminName)
	assert.Equal(t, time.Minute, cfg.Stats.Interval)
	assert.True(t, cfg.Runtime.Dev)
}

func TestParse_Validation(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	tests := []struct {
		name string
		yaml string
		dev  bool
	}{
		{"postgres without url", "auth:\n  jwt_secret: x\n", true},
		{"unknown driver", "storage:\n  driver: mongo\nauth:\n  jwt_secret: x\n", true},
		{"missing secret", "storage:\n  driver: memory\n", true},
		{"short secret in prod", "storage:\n  driver: memory\nauth:\n  jwt_secret: short\n", false},
		{"bad trusted proxy", "server:\n  trusted_proxies: [\"10.0.0.0/33\"]\nstorage:\n  driver: memory\nauth:\n  jwt_secret: x\n", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), tc.dev)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
database:
  url: postgres://file
redis:
  url: redis://file
security:
  encryption_key: 0123456789abcdef0123456789abcdef
auth:
  jwt_secret: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "redis://file", cfg.Redis.URL)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
}

func TestServerConfig_TrustedPrefixes(t *testing.T) {
	cfg := ServerConfig{TrustedProxies: []string{"10.0.0.0/8", " 192.168.1.7 ", "::1"}}
	ps, err := cfg.TrustedPrefixes()
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, "10.0.0.0/8", ps[0].String())
	assert.Equal(t, "192.168.1.7/32", ps[1].String())
	assert.Equal(t, "::1/128", ps[2].String())

	_, err = ServerConfig{TrustedProxies: []string{"proxy.local"}}.TrustedPrefixes()
	assert.Error(t, err)
}
