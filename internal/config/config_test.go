package config_test

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/twsgraph/internal/config"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "twsgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no twsgraph.yaml around

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
	assert.Equal(t, rune(0), cfg.ParserOptions().Comma, "auto-detect")
	assert.True(t, cfg.ParserOptions().TrimHeaders)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
parser:
  delimiter: semicolon
  encoding: windows-1252
classify:
  operations: ["ops_*.csv", "*operazioni*"]
server:
  port: 9090
  redis:
    addr: localhost:6379
    ttl: 30m
log:
  level: debug
  format: json
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ';', cfg.ParserOptions().Comma)
	assert.Equal(t, "windows-1252", cfg.ParserOptions().Encoding)
	assert.Equal(t, []string{"ops_*.csv", "*operazioni*"}, cfg.Patterns()[domain.RoleOperations])
	assert.Empty(t, cfg.Patterns()[domain.RoleExternalSuccessors])
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Server.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Server.Redis.TTL)
	assert.Equal(t, "twsgraph:workspace:", cfg.Server.Redis.Prefix, "unset keys keep their default")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("TWSGRAPH_SERVER_PORT", "7070")
	t.Setenv("TWSGRAPH_SERVER_REDIS_TTL", "5m")
	t.Setenv("TWSGRAPH_PARSER_DELIMITER", "|")
	t.Setenv("TWSGRAPH_CLASSIFY_INTERNALRELS", "*rel*,*links*")
	t.Setenv("TWSGRAPH_UNRELATED", "ignored")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.Redis.TTL)
	assert.Equal(t, '|', cfg.ParserOptions().Comma)
	assert.Equal(t, []string{"*rel*", "*links*"}, cfg.Classify.InternalRelations)
}

func TestLoad_EnvSubtreeVariable(t *testing.T) {
	t.Chdir(t.TempDir())
	// A variable naming a section, not a key, must not shadow its keys.
	t.Setenv("TWSGRAPH_SERVER", "x")
	t.Setenv("TWSGRAPH_SERVER_REDIS", "y")
	t.Setenv("TWSGRAPH_SERVER_PORT", "9000")
	t.Setenv("TWSGRAPH_SERVER_REDIS_PREFIX", "tws:")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "tws:", cfg.Server.Redis.Prefix)
	assert.Equal(t, time.Hour, cfg.Server.Redis.TTL)
}

func TestLoad_EnvOverridesFileKeys(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n  format: json\n")
	t.Setenv("TWSGRAPH_LOG_LEVEL", "error")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "keys without a variable come from the file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"Unknown Key", "parser:\n  quote: \"'\"\n", "quote"},
		{"Bad Level", "log:\n  level: loud\n", "Log.Level"},
		{"Bad Port", "server:\n  port: 70000\n", "Server.Port"},
		{"Bad Encoding", "parser:\n  encoding: ebcdic\n", "Parser.Encoding"},
		{"Bad Delimiter", "parser:\n  delimiter: '\"'\n", "Parser.Delimiter"},
		{"Bad Redis Addr", "server:\n  redis:\n    addr: nowhere\n", "Server.Redis.Addr"},
		{"Malformed YAML", "parser: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_DiscoversDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte("log:\n  level: warn\n"), 0o644))
	t.Chdir(dir)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestRedisConfig_Encryption(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{3}, 32))

	t.Run("Unset", func(t *testing.T) {
		enc, err := config.RedisConfig{}.Encryption()
		require.NoError(t, err)
		assert.Nil(t, enc)
	})

	t.Run("FromFile", func(t *testing.T) {
		path := writeConfig(t, `
server:
  redis:
    addr: localhost:6379
    encryptionKey: `+key+`
    fallbackKeys: [`+old+`]
`)
		cfg, err := config.Load(path)
		require.NoError(t, err)

		enc, err := cfg.Server.Redis.Encryption()
		require.NoError(t, err)
		require.NotNil(t, enc)
		assert.Len(t, enc.ActiveKey, 32)
		assert.Len(t, enc.FallbackKeys, 1)
	})

	t.Run("ShortKey", func(t *testing.T) {
		path := writeConfig(t, `
server:
  redis:
    encryptionKey: c2hvcnQ=
`)
		_, err := config.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EncryptionKey")
	})
}
