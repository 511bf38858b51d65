package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestConfig_Load_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionExpiry)
	assert.Equal(t, "Nedcloud Solutions", cfg.Auth.TOTPIssuer)
	assert.Equal(t, 8, cfg.Auth.BackupCodeCount)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.AuthMaxRequests)
	assert.Equal(t, 100, cfg.RateLimit.APIMaxRequests)
}

func TestConfig_Load_SessionSecretRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestConfig_Load_RejectsShortSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "short")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16 characters")
}

func TestConfig_Load_ProductionDemandsLongerSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", strings.Repeat("a", 20)) // fine in dev, short for prod
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("TWO_FACTOR_ENCRYPTION_KEY", strings.Repeat("k", 32))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestConfig_Load_ProductionRefusesDefaultEncryptionKey(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", strings.Repeat("a", 32))
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("TWO_FACTOR_ENCRYPTION_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TWO_FACTOR_ENCRYPTION_KEY")
}

func TestConfig_Load_DevelopmentAllowsDefaultEncryptionKey(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultEncryptionKey, cfg.Auth.EncryptionKey)
}

func TestConfig_Load_DBPasswordRequired(t *testing.T) {
	t.Setenv("SESSION_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestConfig_Load_ParsesLists(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://nedcloud.nl, https://www.nedcloud.nl")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://nedcloud.nl", "https://www.nedcloud.nl"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}

func TestConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Name:     "nedcloud",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=nedcloud")
}

func TestValidateSecret_RejectsWeakValues(t *testing.T) {
	err := validateSecret("SESSION_SECRET", "password", "development")
	require.Error(t, err)
}
