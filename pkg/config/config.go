package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	Server     ServerConfig     `envconfig:"SERVER"`
	Database   DatabaseConfig   `envconfig:"DB"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Storage    StorageConfig    `envconfig:"STORAGE"`
	NATS       NATSConfig       `envconfig:"NATS"`
	JWT        JWTConfig        `envconfig:"JWT"`
	Bot        BotConfig        `envconfig:"BOT"`
	AssemblyAI AssemblyAIConfig `envconfig:"ASSEMBLYAI"`
	Groq       GroqConfig       `envconfig:"GROQ"`
	Pipeline   PipelineConfig   `envconfig:"PIPELINE"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            string        `envconfig:"PORT" default:"8080"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	PublicURL       string        `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
}

// DatabaseConfig holds database configuration. Driver is "postgres" or "memory".
type DatabaseConfig struct {
	Driver   string `envconfig:"DRIVER" default:"postgres"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" default:"postgres"`
	Name     string `envconfig:"NAME" default:"meeting_intelligence"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"MIN_CONNS" default:"5"`
	Migrate  bool   `envconfig:"MIGRATE" default:"true"`
}

// RedisConfig holds Redis configuration. An empty host selects in-process meeting locks.
type RedisConfig struct {
	Host     string        `envconfig:"HOST"`
	Port     string        `envconfig:"PORT" default:"6379"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	LockTTL  time.Duration `envconfig:"LOCK_TTL" default:"30s"`
	LockWait time.Duration `envconfig:"LOCK_WAIT" default:"10s"`
}

// StorageConfig holds object storage configuration. An empty endpoint disables archiving.
type StorageConfig struct {
	Endpoint        string `envconfig:"ENDPOINT"`
	AccessKeyID     string `envconfig:"ACCESS_KEY"`
	SecretAccessKey string `envconfig:"SECRET_KEY"`
	BucketName      string `envconfig:"BUCKET" default:"meeting-intelligence"`
	UseSSL          bool   `envconfig:"USE_SSL" default:"false"`
}

// NATSConfig holds status event publishing configuration. An empty URL disables publishing.
type NATSConfig struct {
	URL           string `envconfig:"URL"`
	SubjectPrefix string `envconfig:"SUBJECT_PREFIX" default:"meetings.status"`
}

// JWTConfig holds access token validation configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"ACCESS_SECRET" default:"change-me-in-production"`
	AccessExpiry time.Duration `envconfig:"ACCESS_EXPIRY" default:"15m"`
	Issuer       string        `envconfig:"ISSUER" default:"meeting-intelligence"`
}

// BotConfig holds the meeting-bot service configuration
type BotConfig struct {
	BaseURL             string        `envconfig:"BASE_URL" default:"https://us-west-2.recall.ai/api/v1"`
	APIKey              string        `envconfig:"API_KEY"`
	WebhookSecret       string        `envconfig:"WEBHOOK_SECRET"`
	DefaultName         string        `envconfig:"DEFAULT_NAME" default:"Meeting Notetaker"`
	MaxDuration         time.Duration `envconfig:"MAX_DURATION" default:"4h"`
	WaitingRoomTimeout  time.Duration `envconfig:"WAITING_ROOM_TIMEOUT" default:"20m"`
	NoOneJoinedTimeout  time.Duration `envconfig:"NOONE_JOINED_TIMEOUT" default:"20m"`
	EveryoneLeftTimeout time.Duration `envconfig:"EVERYONE_LEFT_TIMEOUT" default:"2s"`
	RequestTimeout      time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// AssemblyAIConfig holds speech-to-text configuration
type AssemblyAIConfig struct {
	APIKey          string `envconfig:"API_KEY"`
	BaseURL         string `envconfig:"BASE_URL"`
	DefaultLanguage string `envconfig:"LANGUAGE" default:"en"`
}

// GroqConfig holds language model configuration
type GroqConfig struct {
	APIKey  string        `envconfig:"API_KEY"`
	BaseURL string        `envconfig:"BASE_URL" default:"https://api.groq.com"`
	Model   string        `envconfig:"MODEL" default:"llama-3.1-70b-versatile"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// PipelineConfig holds background generation configuration
type PipelineConfig struct {
	Workers      int           `envconfig:"WORKERS" default:"3"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	JobTimeout   time.Duration `envconfig:"JOB_TIMEOUT" default:"5m"`
	StaleAfter   time.Duration `envconfig:"STALE_AFTER" default:"15m"`
	MaxParallel  int           `envconfig:"MAX_PARALLEL" default:"4"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}
	if c.IsProduction() && c.Bot.WebhookSecret == "" {
		return fmt.Errorf("BOT_WEBHOOK_SECRET is required in production")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// BotWebhookURL is the callback the bot service posts status changes to
func (c *Config) BotWebhookURL() string {
	return c.Server.PublicURL + "/v1/webhooks/bot"
}
