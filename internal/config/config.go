package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	Log    LogConfig
	Ingest IngestConfig
	Email  EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadSize int64         `mapstructure:"max_upload_size_mb"`
	// AllowedOrigins lists CORS origins for the admin API.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for question bank sources and upload archives.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// IngestConfig holds question bank parsing and loading settings.
type IngestConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	Pause          time.Duration `mapstructure:"pause"`
	Concurrency    int           `mapstructure:"concurrency"`
	OmittedMarker  string        `mapstructure:"omitted_marker"`
	Lenient        bool          `mapstructure:"lenient"`
	CategoriesFile string        `mapstructure:"categories_file"`
	SourceDir      string        `mapstructure:"source_dir"`
	ArchiveUploads bool          `mapstructure:"archive_uploads"`
}

// EmailConfig holds run summary notification settings.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// Load reads configuration from environment variables with the QUIZBANK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUIZBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_size_mb", 10)
	v.SetDefault("server.allowed_origins", "http://localhost:3000")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "quizbank")
	v.SetDefault("db.password", "quizbank_secret")
	v.SetDefault("db.name", "quizbank_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "banks/")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	// Ingest defaults
	v.SetDefault("ingest.batch_size", 50)
	v.SetDefault("ingest.pause", "0s")
	v.SetDefault("ingest.concurrency", 1)
	v.SetDefault("ingest.omitted_marker", "[omitted]")
	v.SetDefault("ingest.lenient", false)
	v.SetDefault("ingest.categories_file", "categories.yaml")
	v.SetDefault("ingest.source_dir", "banks")
	v.SetDefault("ingest.archive_uploads", false)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-central-1")
	v.SetDefault("email.from_address", "noreply@quizbank.local")
	v.SetDefault("email.from_name", "Quizbank Ingestion")
	v.SetDefault("email.recipients", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "QUIZBANK_SERVER_PORT",
		"server.read_timeout":       "QUIZBANK_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "QUIZBANK_SERVER_WRITE_TIMEOUT",
		"server.environment":        "QUIZBANK_SERVER_ENVIRONMENT",
		"server.max_upload_size_mb": "QUIZBANK_SERVER_MAX_UPLOAD_SIZE_MB",
		"server.allowed_origins":    "QUIZBANK_SERVER_ALLOWED_ORIGINS",
		"db.host":                   "QUIZBANK_DB_HOST",
		"db.port":                   "QUIZBANK_DB_PORT",
		"db.user":                   "QUIZBANK_DB_USER",
		"db.password":               "QUIZBANK_DB_PASSWORD",
		"db.name":                   "QUIZBANK_DB_NAME",
		"db.sslmode":                "QUIZBANK_DB_SSLMODE",
		"db.max_open":               "QUIZBANK_DB_MAX_OPEN",
		"db.max_idle":               "QUIZBANK_DB_MAX_IDLE",
		"s3.region":                 "QUIZBANK_S3_REGION",
		"s3.bucket":                 "QUIZBANK_S3_BUCKET",
		"s3.prefix":                 "QUIZBANK_S3_PREFIX",
		"s3.endpoint":               "QUIZBANK_S3_ENDPOINT",
		"s3.access_key":             "QUIZBANK_S3_ACCESS_KEY",
		"s3.secret_key":             "QUIZBANK_S3_SECRET_KEY",
		"log.level":                 "QUIZBANK_LOG_LEVEL",
		"log.format":                "QUIZBANK_LOG_FORMAT",
		"log.file":                  "QUIZBANK_LOG_FILE",
		"ingest.batch_size":         "QUIZBANK_INGEST_BATCH_SIZE",
		"ingest.pause":              "QUIZBANK_INGEST_PAUSE",
		"ingest.concurrency":        "QUIZBANK_INGEST_CONCURRENCY",
		"ingest.omitted_marker":     "QUIZBANK_INGEST_OMITTED_MARKER",
		"ingest.lenient":            "QUIZBANK_INGEST_LENIENT",
		"ingest.categories_file":    "QUIZBANK_INGEST_CATEGORIES_FILE",
		"ingest.source_dir":         "QUIZBANK_INGEST_SOURCE_DIR",
		"ingest.archive_uploads":    "QUIZBANK_INGEST_ARCHIVE_UPLOADS",
		"email.provider":            "QUIZBANK_EMAIL_PROVIDER",
		"email.region":              "QUIZBANK_EMAIL_REGION",
		"email.from_address":        "QUIZBANK_EMAIL_FROM_ADDRESS",
		"email.from_name":           "QUIZBANK_EMAIL_FROM_NAME",
		"email.recipients":          "QUIZBANK_EMAIL_RECIPIENTS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if QUIZBANK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("QUIZBANK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:           serverPort,
		ReadTimeout:    v.GetDuration("server.read_timeout"),
		WriteTimeout:   v.GetDuration("server.write_timeout"),
		Environment:    v.GetString("server.environment"),
		MaxUploadSize:  v.GetInt64("server.max_upload_size_mb"),
		AllowedOrigins: splitList(v.GetString("server.allowed_origins")),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Prefix:    v.GetString("s3.prefix"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		File:   v.GetString("log.file"),
	}
	cfg.Ingest = IngestConfig{
		BatchSize:      v.GetInt("ingest.batch_size"),
		Pause:          v.GetDuration("ingest.pause"),
		Concurrency:    v.GetInt("ingest.concurrency"),
		OmittedMarker:  v.GetString("ingest.omitted_marker"),
		Lenient:        v.GetBool("ingest.lenient"),
		CategoriesFile: v.GetString("ingest.categories_file"),
		SourceDir:      v.GetString("ingest.source_dir"),
		ArchiveUploads: v.GetBool("ingest.archive_uploads"),
	}
	if cfg.Ingest.BatchSize < 1 {
		return nil, fmt.Errorf("ingest.batch_size must be positive, got %d", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.Concurrency < 1 {
		cfg.Ingest.Concurrency = 1
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Recipients:  splitList(v.GetString("email.recipients")),
	}

	return cfg, nil
}

// splitList parses a comma-separated env value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
