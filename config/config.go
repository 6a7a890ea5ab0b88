package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Reaishma/Healthcare-informatics-solution/events"
	"github.com/Reaishma/Healthcare-informatics-solution/rules"
	"github.com/Reaishma/Healthcare-informatics-solution/validation"
)

// EnvPrefix prefixes every environment override, e.g. CAREFLOW_HTTP_ADDR.
const EnvPrefix = "CAREFLOW"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Log      LogConfig      `mapstructure:"log"`
	Hub      HubConfig      `mapstructure:"hub"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Seed     bool           `mapstructure:"seed"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory redis postgres"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type HubConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
}

// RelayConfig enables cross-instance fan-out over Redis pub/sub.
type RelayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

// RulesConfig holds the advisory expressions. An empty expression, from the file
// or a set-but-empty CAREFLOW_RULES_* variable, disables its level; with both
// empty the advisor falls back to rules.DefaultRules.
type RulesConfig struct {
	Critical   string `mapstructure:"critical"`
	Bottleneck string `mapstructure:"bottleneck"`
}

// Advisor turns the configured expressions into advisory rules.
func (r RulesConfig) Advisor() []rules.Rule {
	var out []rules.Rule
	if r.Critical != "" {
		out = append(out, rules.Rule{Name: "critical", Level: rules.LevelCritical, Expression: r.Critical})
	}
	if r.Bottleneck != "" {
		out = append(out, rules.Rule{Name: "bottleneck", Level: rules.LevelBottleneck, Expression: r.Bottleneck})
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.idle_timeout", 5*time.Minute)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.max_idle", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("hub.write_timeout", events.DefaultWriteTimeout)
	v.SetDefault("relay.enabled", false)
	v.SetDefault("relay.channel", events.DefaultRelayChannel)
	v.SetDefault("rules.critical", "utilization >= 95")
	v.SetDefault("rules.bottleneck", "utilization >= 80 || averageWaitTime >= 30")
	v.SetDefault("seed", false)
}

// Load reads defaults, then the config file, then CAREFLOW_* environment variables.
// With an empty path, careflow.yaml is looked up in the working directory and
// /etc/careflow and may be absent.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("careflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/careflow")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late at startup.
func (c Config) Validate() error {
	if err := validation.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver == "postgres" && c.Postgres.DSN == "" {
		return fmt.Errorf("invalid config: %w", validation.Fail("postgres.dsn", "required", "is required for the postgres driver"))
	}
	if (c.Storage.Driver == "redis" || c.Relay.Enabled) && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config: %w", validation.Fail("redis.addr", "required", "is required for redis storage and the relay"))
	}
	return nil
}
