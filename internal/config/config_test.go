package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "@hourly", cfg.Reconcile.Schedule)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		"DB_DRIVER":        "mysql",
		"DB_DSN":           "ledger:pw@tcp(db:3306)/ledger",
		"JWT_SECRET":       "0123456789abcdef",
		"TOKEN_TTL":        "2h",
		"SMTP_PORT":        "2525",
		"RECONCILE_REPAIR": "true",
		"LOG_FORMAT":       "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "ledger:pw@tcp(db:3306)/ledger", cfg.DB.DSN)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.True(t, cfg.Reconcile.Repair)
	assert.Equal(t, "text", cfg.Log.Format, "empty values keep the default")
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_Invalid(t *testing.T) {
	for _, key := range []string{"TOKEN_TTL", "SMTP_PORT", "RECONCILE_REPAIR"} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(envMap(map[string]string{key: "nonsense"}))
			assert.Error(t, err)
		})
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "splitledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
db:
  dsn: /var/lib/ledger.db
auth:
  jwt_secret: from-yaml-secret-value
  token_ttl: 30m
currency: EUR
`), 0o600))

	t.Chdir(dir)
	t.Setenv("LISTEN_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/ledger.db", cfg.DB.DSN)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "EUR", cfg.Currency)
}

func TestLoad_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_adr: ':1'\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.Auth.JWTSecret = "0123456789abcdef"
	cfg.SMTP.Host = "smtp.example.com"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_FROM")
}

func TestValidateStorage(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ValidateStorage(), "storage checks do not need a JWT secret")

	cfg.DB.Driver = "postgres"
	cfg.DB.DSN = ""
	err := cfg.ValidateStorage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
	assert.Contains(t, err.Error(), "dsn")
}
