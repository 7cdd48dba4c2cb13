package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: dev
storage:
  driver: memory
jwt:
  secret_key: from-file
ai:
  provider: openai
  base_url: http://localhost:11434/v1
cors:
  origins: ["http://localhost:3000"]
`), 0o600))
	t.Setenv("JWT_SECRET_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "localhost:8081", cfg.HTTPServer.Address)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}
