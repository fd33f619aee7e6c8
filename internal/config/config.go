package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Gate     GateConfig     `mapstructure:"gate"`
	Search   SearchConfig   `mapstructure:"search"`
	Settings SettingsConfig `mapstructure:"settings"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Drafts   DraftsConfig   `mapstructure:"drafts"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

const (
	DatabaseDriverMongo  = "mongo"
	DatabaseDriverMemory = "memory"
)

type DatabaseConfig struct {
	// Driver is "mongo" or "memory"; memory keeps nothing across restarts.
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	// PublicBaseURL prefixes public object URLs; endpoint/bucket when empty.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	JSON   bool   `mapstructure:"json"`
	Stdout bool   `mapstructure:"stdout"`
}

// GateConfig bounds the two lookups of the role gate.
type GateConfig struct {
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	RoleTimeout    time.Duration `mapstructure:"role_timeout"`
}

type SearchConfig struct {
	PageSize int           `mapstructure:"page_size"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// SettingsConfig holds the per-call timeouts of a settings save.
type SettingsConfig struct {
	NameTimeout     time.Duration `mapstructure:"name_timeout"`
	EmailTimeout    time.Duration `mapstructure:"email_timeout"`
	PhoneTimeout    time.Duration `mapstructure:"phone_timeout"`
	PasswordTimeout time.Duration `mapstructure:"password_timeout"`
}

const (
	RealtimeSourceNotifier     = "notifier"
	RealtimeSourceChangeStream = "changestream"
)

type RealtimeConfig struct {
	Source string `mapstructure:"source"`
}

type DraftsConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LoadConfig reads configuration from config.yaml in path and from the
// environment; server.address is overridden by SERVER_ADDRESS and so on.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	var config Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := config.validate(); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", DatabaseDriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "fitcoach")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "avatars")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.stdout", true)
	v.SetDefault("gate.session_timeout", "2500ms")
	v.SetDefault("gate.role_timeout", "2s")
	v.SetDefault("search.page_size", 30)
	v.SetDefault("search.debounce", "300ms")
	v.SetDefault("settings.name_timeout", "15s")
	v.SetDefault("settings.email_timeout", "20s")
	v.SetDefault("settings.phone_timeout", "15s")
	v.SetDefault("settings.password_timeout", "30s")
	v.SetDefault("realtime.source", RealtimeSourceNotifier)
	v.SetDefault("drafts.ttl", "2h")
	v.SetDefault("drafts.cleanup_interval", "10m")
}

func (c Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) must be set")
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be positive, got %d", c.Search.PageSize)
	}
	switch c.Database.Driver {
	case DatabaseDriverMongo, DatabaseDriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q",
			DatabaseDriverMongo, DatabaseDriverMemory, c.Database.Driver)
	}
	if c.Database.Driver == DatabaseDriverMemory && c.Realtime.Source == RealtimeSourceChangeStream {
		return errors.New("realtime.source changestream needs database.driver mongo")
	}
	switch c.Realtime.Source {
	case RealtimeSourceNotifier, RealtimeSourceChangeStream:
	default:
		return fmt.Errorf("realtime.source must be %q or %q, got %q",
			RealtimeSourceNotifier, RealtimeSourceChangeStream, c.Realtime.Source)
	}
	return nil
}
