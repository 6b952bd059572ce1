package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"community_hub/internal/pkg"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	Kafka     pkg.KafkaConfig
	Auth      AuthConfig
	Assistant AssistantConfig
	Media     MediaConfig
	SMTP      pkg.SMTPConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type StoreConfig struct {
	Driver string
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
}

type AssistantConfig struct {
	APIKey        string
	Model         string
	RatePerMinute int
	Burst         int
}

type MediaConfig struct {
	CloudinaryURL    string
	CloudinaryPreset string
	S3Bucket         string
	S3Region         string
	S3BaseURL        string
}

func Load() (*Config, error) {
	// 没有 .env 时直接使用环境变量
	if err := godotenv.Load(); err != nil {
		glog.Infof("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE", StoreMySQL),
			DSN:    getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: pkg.KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "community-changes"),
		},
		Auth: AuthConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		},
		Assistant: AssistantConfig{
			APIKey:        getEnv("GEMINI_API_KEY", ""),
			Model:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			RatePerMinute: getEnvAsInt("CHAT_RATE_PER_MINUTE", 20),
			Burst:         getEnvAsInt("CHAT_BURST", 3),
		},
		Media: MediaConfig{
			CloudinaryURL:    getEnv("CLOUDINARY_URL", ""),
			CloudinaryPreset: getEnv("CLOUDINARY_PRESET", "communities"),
			S3Bucket:         getEnv("S3_BUCKET", ""),
			S3Region:         getEnv("S3_REGION", "us-east-1"),
			S3BaseURL:        getEnv("S3_BASE_URL", ""),
		},
		SMTP: pkg.SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 465),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 助手 key 缺失时启动即失败
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Assistant.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	switch c.Store.Driver {
	case StoreMySQL:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required unless STORE=memory"))
		}
	case StoreMemory:
	default:
		errs = append(errs, errors.New("STORE must be mysql or memory"))
	}
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required"))
	}
	if c.Media.CloudinaryURL == "" && c.Media.S3Bucket == "" {
		errs = append(errs, errors.New("CLOUDINARY_URL or S3_BUCKET is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		glog.Warningf("invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
