package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("API_PREFIX", "api/v2/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORE_TIMEOUT", "12s")
	t.Setenv("LOG_MAX_SIZE", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "/api/v2", cfg.Server.APIPrefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 12*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 7, cfg.Log.MaxSize)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_TomlFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "practice.toml")
	content := `
[server]
addr = ":9090"
shutdown_timeout = "2s"

[store]
driver = "postgres"

[database]
url = "postgres://file/db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("STORE_DRIVER", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.NotEmpty(t, cfg.Database.URL)
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_MAX_AGE", "forever")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_MAX_AGE")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "postgrest needs supabase settings",
			mutate:  func(c *Config) {},
			wantErr: "SUPABASE_URL",
		},
		{
			name: "postgrest complete",
			mutate: func(c *Config) {
				c.Supabase.URL = "https://x.supabase.co"
				c.Supabase.ServiceKey = "key"
			},
		},
		{
			name:    "postgres needs url",
			mutate:  func(c *Config) { c.Store.Driver = DriverPostgres },
			wantErr: "DATABASE_URL",
		},
		{
			name:   "mysql uses defaults",
			mutate: func(c *Config) { c.Store.Driver = DriverMySQL },
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "sqlite" },
			wantErr: "unknown STORE_DRIVER",
		},
		{
			name: "non-positive timeout",
			mutate: func(c *Config) {
				c.Store.Driver = DriverMemory
				c.Store.Timeout = 0
			},
			wantErr: "STORE_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_RootPrefix(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = DriverMemory
	cfg.Server.APIPrefix = "/"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "", cfg.Server.APIPrefix)
}
