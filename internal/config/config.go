package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

type Config struct {
	Env      Env
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string
	EnableSignup   bool
	// AdminUser is created at startup when AdminPassHash is set.
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	// Notification fan-out across instances; empty disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Domain events; empty uses a no-op publisher.
	AMQPURL      string
	AMQPExchange string

	SweepInterval   time.Duration
	SessionTTL      time.Duration
	ApplyAttempts   int
	ApplyBaseDelay  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads a .env file when present, then the environment.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	env := Env(envOr("APP_ENV", string(EnvProd)))
	return Config{
		Env:             env,
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		DBDriver:        envOr("DB_DRIVER", "sqlite"),
		DBDSN:           envOr("DB_DSN", ""),
		AuthHMACSecret:  envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		EnableSignup:    envBool("ENABLE_SIGNUP", env == EnvDev),
		AdminUser:       envOr("ADMIN_USER", "admin"),
		AdminPassHash:   os.Getenv("ADMIN_PASS_HASH"),
		CORSOrigins:     csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         envInt("REDIS_DB", 0),
		AMQPURL:         os.Getenv("AMQP_URL"),
		AMQPExchange:    envOr("AMQP_EXCHANGE", "assessment.events"),
		SweepInterval:   envDuration("SWEEP_INTERVAL", time.Minute),
		SessionTTL:      envDuration("SESSION_TTL", 2*time.Hour),
		ApplyAttempts:   envInt("APPLY_ATTEMPTS", 3),
		ApplyBaseDelay:  envDuration("APPLY_BASE_DELAY", 500*time.Millisecond),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// ClientConfig is what quizctl needs to reach the backend.
type ClientConfig struct {
	APIURL       string
	Token        string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

func ClientFromEnv() ClientConfig {
	return ClientConfig{
		APIURL:       envOr("JOBIAI_API_URL", "http://localhost:8080"),
		Token:        os.Getenv("JOBIAI_TOKEN"),
		ClientID:     os.Getenv("JOBIAI_CLIENT_ID"),
		ClientSecret: os.Getenv("JOBIAI_CLIENT_SECRET"),
		TokenURL:     os.Getenv("JOBIAI_TOKEN_URL"),
		Timeout:      envDuration("JOBIAI_TIMEOUT", 15*time.Second),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return v
}
func envDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
