package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"` // sqlite / postgres
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// TokenTTL returns the configured token lifetime, 24h when unset.
func (c JWTConfig) TokenTTL() time.Duration {
	if c.ExpireHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ExpireHours) * time.Hour
}

type SecurityConfig struct {
	BcryptCost             int    `mapstructure:"bcrypt_cost"`
	LockoutThreshold       int    `mapstructure:"lockout_threshold"`
	RecoveryCodeTTLMinutes int    `mapstructure:"recovery_code_ttl_minutes"`
	EncryptionKey          string `mapstructure:"encryption_key"`
}

// RecoveryTTL returns the lifetime of password recovery codes.
func (c SecurityConfig) RecoveryTTL() time.Duration {
	return time.Duration(c.RecoveryCodeTTLMinutes) * time.Minute
}

type LogConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json / text
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	BaseURL  string `mapstructure:"base_url"`
}

// Enabled reports whether SMTP delivery is configured.
func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	Limit         int    `mapstructure:"limit"`
	WindowSeconds int    `mapstructure:"window_seconds"`
}

// Window returns the rate limit window.
func (c RedisConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type JobsConfig struct {
	RecoveryCleanup string `mapstructure:"recovery_cleanup"`
}

type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type DebugConfig struct {
	GopsAddr string `mapstructure:"gops_addr"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	Mail     MailConfig     `mapstructure:"mail"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Debug    DebugConfig    `mapstructure:"debug"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		appConfig, err = load(path)
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. GYM_JWT_SECRET=...
	v.SetEnvPrefix("GYM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/gym.db")

	v.SetDefault("jwt.issuer", "gym-api")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.lockout_threshold", 3)
	v.SetDefault("security.recovery_code_ttl_minutes", 15)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.base_url", "http://localhost:3000")

	v.SetDefault("redis.limit", 10)
	v.SetDefault("redis.window_seconds", 60)

	v.SetDefault("jobs.recovery_cleanup", "@every 5m")

	// keys without a useful default are still registered so that
	// environment-only values reach Unmarshal
	for _, key := range []string{
		"jwt.secret", "database.dsn", "security.encryption_key",
		"mail.host", "mail.username", "mail.password", "mail.from",
		"redis.addr", "redis.password",
		"admin.name", "admin.email", "admin.password",
		"debug.gops_addr",
	} {
		v.SetDefault(key, "")
	}
}
