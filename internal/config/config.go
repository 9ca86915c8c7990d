// Package config loads twsgraph settings from defaults, an optional YAML file
// and TWSGRAPH_* environment variables, in that order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/twsgraph/internal/csvio"
	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TWSGRAPH_SERVER_PORT.
const EnvPrefix = "TWSGRAPH_"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "twsgraph.yaml"

// Config is the full application configuration.
type Config struct {
	Parser   ParserConfig   `mapstructure:"parser"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// ParserConfig sets the CSV dialect.
type ParserConfig struct {
	// Delimiter is "auto", a single character, or one of comma, semicolon, tab, pipe.
	Delimiter       string `mapstructure:"delimiter" validate:"delimiter"`
	Encoding        string `mapstructure:"encoding" validate:"encoding"`
	StrictAuxiliary bool   `mapstructure:"strictAuxiliary"`
}

// ClassifyConfig overrides the file name patterns of each role. Empty lists
// keep the built-in patterns.
type ClassifyConfig struct {
	Operations           []string `mapstructure:"operations"`
	InternalRelations    []string `mapstructure:"internalRels"`
	ExternalPredecessors []string `mapstructure:"externalPreds"`
	ExternalSuccessors   []string `mapstructure:"externalSuccs"`
	OperatorInstructions []string `mapstructure:"operatorInstructions"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port  int         `mapstructure:"port" validate:"min=0,max=65535"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig enables the shared workspace store when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"min=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"min=0"`
	Prefix   string        `mapstructure:"prefix"`

	// EncryptionKey is a base64 AES-256 key. When set, workspaces are sealed
	// before they reach Redis.
	EncryptionKey string `mapstructure:"encryptionKey" validate:"omitempty,aeskey"`
	// FallbackKeys still open workspaces sealed before a key rotation.
	FallbackKeys []string `mapstructure:"fallbackKeys" validate:"dive,aeskey"`
}

// LogConfig selects level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Parser: ParserConfig{
			Delimiter: "auto",
			Encoding:  csvio.EncodingUTF8,
		},
		Server: ServerConfig{
			Port: 8080,
			Redis: RedisConfig{
				TTL:    time.Hour,
				Prefix: "twsgraph:workspace:",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. An empty path uses DefaultFile when it
// exists; an explicit path must exist. Environment variables override the
// file for every known key (TWSGRAPH_SERVER_REDIS_ADDR for server.redis.addr).
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(strings.TrimSuffix(EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v, "", reflect.TypeOf(cfg))

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.UnmarshalExact(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnv declares every leaf key of the config struct so that Unmarshal sees
// environment values for keys absent from the file. Unset keys keep the
// values already in the target.
func bindEnv(v *viper.Viper, prefix string, t reflect.Type) {
	for i := range t.NumField() {
		f := t.Field(i)
		key := prefix + f.Tag.Get("mapstructure")
		if f.Type.Kind() == reflect.Struct {
			bindEnv(v, key+".", f.Type)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// ParserOptions maps the parser settings to csvio options.
func (c *Config) ParserOptions() csvio.Options {
	return csvio.Options{
		Comma:       delimiterRune(c.Parser.Delimiter),
		Encoding:    c.Parser.Encoding,
		TrimHeaders: true,
	}
}

// Patterns returns the role patterns for the classifier.
func (c *Config) Patterns() map[domain.Role][]string {
	return map[domain.Role][]string{
		domain.RoleOperations:           c.Classify.Operations,
		domain.RoleInternalRelations:    c.Classify.InternalRelations,
		domain.RoleExternalPredecessors: c.Classify.ExternalPredecessors,
		domain.RoleExternalSuccessors:   c.Classify.ExternalSuccessors,
		domain.RoleOperatorInstructions: c.Classify.OperatorInstructions,
	}
}

// Logger creates the logger described by the log settings. debug forces the
// Debug level.
func (c *Config) Logger(debug bool) *slog.Logger {
	level := logging.ParseLevel(c.Log.Level)
	if debug {
		level = slog.LevelDebug
	}
	if c.Log.Format == "json" {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}

// Encryption returns the workspace encryption keys, or nil when no key is set.
func (r RedisConfig) Encryption() (*middleware.EncryptionConfig, error) {
	if r.EncryptionKey == "" {
		return nil, nil
	}
	active, err := decodeKey(r.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("server.redis.encryptionKey: %w", err)
	}
	enc := &middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range r.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("server.redis.fallbackKeys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not base64: %w", err)
	}
	if len(key) != middleware.KeySize {
		return nil, fmt.Errorf("want %d bytes, got %d", middleware.KeySize, len(key))
	}
	return key, nil
}

var namedDelimiters = map[string]rune{
	"comma":     ',',
	"semicolon": ';',
	"tab":       '\t',
	"pipe":      '|',
}

// delimiterRune returns 0 (auto-detect) for "" and "auto".
func delimiterRune(s string) rune {
	if r, ok := namedDelimiters[strings.ToLower(s)]; ok {
		return r
	}
	if r := []rune(s); len(r) == 1 {
		return r[0]
	}
	return 0
}
