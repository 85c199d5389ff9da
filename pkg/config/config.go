package config

import (
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	ProgressStoreDatabase = "database"
	ProgressStoreFile     = "file"
)

type Config struct {
	ContactRateBurst          int           `koanf:"contact_rate_burst" default:"3"`
	ContactRatePerMinute      int           `koanf:"contact_rate_per_minute" default:"5"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	EnableTestRoutes          bool          `koanf:"enable_test_routes"`
	FallbackDir               string        `koanf:"fallback_dir" default:"./data"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	PlaybackAdvanceDelay      time.Duration `koanf:"playback_advance_delay" default:"2s"`
	PlaybackSampleInterval    time.Duration `koanf:"playback_sample_interval" default:"1s"`
	PlaybackSessionTTL        time.Duration `koanf:"playback_session_ttl" default:"30m"`
	ProgressDir               string        `koanf:"progress_dir" default:"./tmp/progress"`
	ProgressStore             string        `koanf:"progress_store" default:"database"`
	SchemaFile                string        `koanf:"schema_file"`
	MetricsEnabled            bool          `koanf:"metrics_enabled" default:"true"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"3689"`
}

const configFileENV = "CONFIG_FILE"

func configFilePath() string {
	path := os.Getenv(configFileENV)
	if path == "" {
		path = "/config/config.yaml"
	}
	return path
}

// New builds the config from struct defaults, then the YAML file pointed at by
// CONFIG_FILE, then environment variables named after each key in upper case.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	err := k.Load(file.Provider(configFilePath()), yaml.Parser())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load config file")
	}

	known := knownKeys()
	err = k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config backed by an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.ProgressStore = ProgressStoreDatabase
	return cfg
}

func (cfg *Config) validate() error {
	var missing []string

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := toSnakeCase(field.Name)
			missing = append(missing, strings.ToUpper(key)+" ("+key+")")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if cfg.ContactRatePerMinute < 0 || cfg.ContactRateBurst < 0 {
		return errors.New("contact_rate_per_minute and contact_rate_burst can't be negative")
	}

	switch cfg.ProgressStore {
	case ProgressStoreDatabase, ProgressStoreFile:
	default:
		return errors.Errorf("invalid progress_store %q: must be %q or %q", cfg.ProgressStore, ProgressStoreDatabase, ProgressStoreFile)
	}

	return nil
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[t.Field(i).Tag.Get("koanf")] = struct{}{}
	}
	return keys
}

// toSnakeCase converts a Go field name into its config key. Runs of capitals
// (JWT, TTL) stay together.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
