package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("non-existent config file", func(t *testing.T) {
		cfg, err := Load("invalid/path/to/config.yml")

		assert.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, cfg)
	})

	t.Run("invalid config file", func(t *testing.T) {
		data := `http_server:
  port: not number
postgres:
  user: test
  password: test
  db: test`

		f := createTempFile(t, []byte(data))
		cfg, err := Load(f.Name())

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("success", func(t *testing.T) {
		data := `base_url: https://sho.rt
short_code:
  length: 6
cache:
  backend: memory
  ttl: 3600
postgres:
  user: test
  password: test
  db: test`

		f := createTempFile(t, []byte(data))
		cfg, err := Load(f.Name())

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		var wantCfg Config
		setDefaults(&wantCfg)

		wantCfg.BaseURL = "https://sho.rt"
		wantCfg.ShortCode.Length = 6
		wantCfg.Cache.Backend = CacheBackendMemory
		wantCfg.Cache.TTLSeconds = 3600
		wantCfg.Postgres.User = "test"
		wantCfg.Postgres.Password = "test"
		wantCfg.Postgres.DB = "test"

		assert.Equal(t, wantCfg, *cfg)
	})

	t.Run("defaults", func(t *testing.T) {
		f := createTempFile(t, []byte(`env: dev`))
		cfg, err := Load(f.Name())

		assert.NoError(t, err)
		assert.NotNil(t, cfg)
		assert.Equal(t, 5, cfg.ShortCode.Length)
		assert.Equal(t, "random", cfg.ShortCode.Strategy)
		assert.Equal(t, 5, cfg.ShortCode.MaxRetries)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL())
		assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	})
}

func createTempFile(t testing.TB, data []byte) *os.File {
	t.Helper()

	f, err := os.CreateTemp("", "config.yml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() {
		f.Close()
		os.Remove(f.Name())
	})

	if _, err := f.Write(data); err != nil {
		t.Fatalf("Failed to write to file: %v", err)
	}

	return f
}
