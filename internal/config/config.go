package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Logger LoggerConfig
	Auth   AuthConfig
	AI     AIConfig
	Quota  QuotaConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggerConfig struct {
	Level string
	Env   string
}

type AuthConfig struct {
	JWTSecret string
}

// AIConfig carries the model-router tunables. DefaultModel and FallbackModel
// are provider model identifiers for the quiz_generation task.
type AIConfig struct {
	APIKey          string
	DefaultModel    string
	FallbackModel   string
	FallbackEnabled bool
	RetryEnabled    bool
}

// QuotaConfig governs the free-tier quiz limit. LimitOverride, when > 0,
// replaces the default limit (used by test and dev builds).
type QuotaConfig struct {
	FreeQuizLimit    int
	LimitOverride    int
	DemoInstantGrade bool
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetDefault("server.port", 8090)
	viper.SetDefault("ai.default_model", "gpt-4o-mini")
	viper.SetDefault("ai.fallback_model", "gpt-4o")
	viper.SetDefault("ai.fallback_enabled", true)
	viper.SetDefault("ai.retry_enabled", true)
	viper.SetDefault("quota.free_quiz_limit", 5)
	viper.SetDefault("quota.demo_instant_grade", true)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("auth.jwt_secret"),
		},
		AI: AIConfig{
			APIKey:          viper.GetString("ai.api_key"),
			DefaultModel:    viper.GetString("ai.default_model"),
			FallbackModel:   viper.GetString("ai.fallback_model"),
			FallbackEnabled: viper.GetBool("ai.fallback_enabled"),
			RetryEnabled:    viper.GetBool("ai.retry_enabled"),
		},
		Quota: QuotaConfig{
			FreeQuizLimit:    viper.GetInt("quota.free_quiz_limit"),
			LimitOverride:    viper.GetInt("quota.limit_override"),
			DemoInstantGrade: viper.GetBool("quota.demo_instant_grade"),
		},
	}

	// Environment overrides for deployment
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.APIKey = apiKey
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	return config, nil
}

// FreeQuizLimit returns the effective free-tier limit, honoring the
// test/dev override when set.
func (q QuotaConfig) EffectiveFreeQuizLimit() int {
	if q.LimitOverride > 0 {
		return q.LimitOverride
	}
	return q.FreeQuizLimit
}

// AIConfigured reports whether the model router has the identifiers it
// needs. Checked before any pipeline run so a misconfigured deployment
// fails fast with a server error instead of a provider error.
func (c *Config) AIConfigured() bool {
	return c.AI.APIKey != "" && c.AI.DefaultModel != ""
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
