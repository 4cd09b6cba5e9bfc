package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Env string `env:"APP_ENV" env-default:"development"`

	HTTP     HTTP
	Database Database
	Auth     Auth
	Stripe   Stripe
	Redis    Redis
	Events   Events
	Log      Log
}

type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Database struct {
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            string        `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD" env-default:"password"`
	Name            string        `env:"DB_NAME" env-default:"fitforge"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable"`
	TimeZone        string        `env:"DB_TIMEZONE" env-default:"UTC"`
	ConnectAttempts uint          `env:"DB_CONNECT_ATTEMPTS" env-default:"5"`
	ConnectDelay    time.Duration `env:"DB_CONNECT_DELAY" env-default:"1s"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
}

type Auth struct {
	JWTSecret           string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL            time.Duration `env:"JWT_TTL" env-default:"1h"`
	FirebaseCredentials string        `env:"FIREBASE_CREDENTIALS"`
	RateLimit           float64       `env:"AUTH_RATE_LIMIT" env-default:"5"`
	RateBurst           int           `env:"AUTH_RATE_BURST" env-default:"10"`
}

type Stripe struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

type Redis struct {
	URL         string        `env:"REDIS_URL"`
	FeaturedTTL time.Duration `env:"FEATURED_CACHE_TTL" env-default:"5m"`
}

type Events struct {
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`
	TopicPrefix  string   `env:"EVENTS_TOPIC_PREFIX" env-default:"fitforge."`
}

type Log struct {
	File       string `env:"LOG_FILE" env-default:"./logs/app.log"`
	AccessFile string `env:"ACCESS_LOG_FILE" env-default:"./logs/access.log"`
	Level      string `env:"LOG_LEVEL" env-default:"info"`
}

// Load reads .env when present and then decodes the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found – relying on env vars")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// DSN renders the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
