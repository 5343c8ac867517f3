// Package config loads the application settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments recognised by APP_ENV / NODE_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、各コンポーネントへ明示的に渡す。
type Config struct {
	Env  string
	Port string

	// Database
	DatabaseURL   string
	RunMigrations bool

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Auth
	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration
	BcryptCost         int

	// Email
	EmailFrom     string
	EmailFromName string
	EmailHost     string
	EmailPort     int
	EmailUsername string
	EmailPassword string

	// Rate Limit
	RateLimitMax       int
	RateLimitWindow    time.Duration
	LoginRatePerMinute int

	// HTTP
	BodyLimit          int64
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	CacheTTL           time.Duration
}

// LoadDotEnv reads path into the environment when it exists. Variables
// already set win over the file.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.Env = getEnvString("APP_ENV", getEnvString("NODE_ENV", EnvDevelopment))
	if cfg.Env != EnvProduction {
		cfg.Env = EnvDevelopment
	}
	cfg.Port = getEnvString("PORT", "3000")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", false)

	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = getEnvString("REDIS_PORT", "6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.JWTExpiresIn = getEnvDuration("JWT_EXPIRES_IN", 90*24*time.Hour)
	cfg.JWTCookieExpiresIn = time.Duration(getEnvInt("JWT_COOKIE_EXPIRES_IN", 90)) * 24 * time.Hour
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12)

	cfg.EmailFrom = getEnvString("EMAIL_FROM", "hello@natours.io")
	cfg.EmailFromName = getEnvString("EMAIL_FROM_NAME", "Natours")
	cfg.EmailHost = os.Getenv("EMAIL_HOST")
	cfg.EmailPort = getEnvInt("EMAIL_PORT", 587)
	cfg.EmailUsername = os.Getenv("EMAIL_USERNAME")
	cfg.EmailPassword = os.Getenv("EMAIL_PASSWORD")

	cfg.RateLimitMax = getEnvInt("RATE_LIMIT_MAX", 100)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", time.Hour)
	cfg.LoginRatePerMinute = getEnvInt("LOGIN_RATE_PER_MINUTE", 10)

	cfg.BodyLimit = getEnvInt64("BODY_LIMIT", 10*1024)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"})
	cfg.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second)
	cfg.IdleTimeout = getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.ShutdownTimeout = getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", 5*time.Minute)

	return cfg, nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// RedisAddr returns host:port, or "" when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvDuration accepts time.ParseDuration syntax plus a whole-day form
// such as "90d".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return defaultVal
		}
		return time.Duration(n) * 24 * time.Hour
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
