package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Coach    CoachConfig    `yaml:"coach"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Cache    CacheConfig    `yaml:"cache"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type DatabaseConfig struct {
	Type         string `yaml:"type"` // mysql, postgres, sqlite
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"` // file path for sqlite
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// CoachConfig points at the text-generation upstream (Anthropic Messages API).
type CoachConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RealtimeConfig points at the realtime-voice upstream.
type RealtimeConfig struct {
	BaseURL            string  `yaml:"base_url"`
	APIKey             string  `yaml:"api_key"`
	Model              string  `yaml:"model"`
	Voice              string  `yaml:"voice"`
	TranscriptionModel string  `yaml:"transcription_model"`
	VADThreshold       float64 `yaml:"vad_threshold"`
	PrefixPaddingMS    int     `yaml:"prefix_padding_ms"`
	SilenceDurationMS  int     `yaml:"silence_duration_ms"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
}

type CacheConfig struct {
	RedisURL            string `yaml:"redis_url"`
	DashboardTTLSeconds int    `yaml:"dashboard_ttl_seconds"`
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 9871, AllowOrigins: []string{"*"}},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Type: "sqlite", Name: "guardian.db", MaxOpenConns: 10},
		Auth:     AuthConfig{JWTSecret: "guardian-dev-secret", TokenTTLHours: 7 * 24},
		Coach: CoachConfig{
			BaseURL:        "https://api.anthropic.com",
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      500,
			TimeoutSeconds: 60,
		},
		Realtime: RealtimeConfig{
			BaseURL:            "https://api.openai.com",
			Model:              "gpt-4o-realtime-preview-2024-12-17",
			Voice:              "alloy",
			TranscriptionModel: "whisper-1",
			VADThreshold:       0.5,
			PrefixPaddingMS:    300,
			SilenceDurationMS:  500,
			TimeoutSeconds:     30,
		},
		Cache: CacheConfig{DashboardTTLSeconds: 60},
	}
}

func Load(configFile string) *Config {
	// .env never overrides variables that are already exported
	_ = godotenv.Load()

	c := Default()

	paths := []string{"etc/config-dev.yaml", "/etc/guardian/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	c.applyEnv()
	return c
}

func (c *Config) applyEnv() {
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Database.Type, "DB_TYPE")
	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASSWORD")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Auth.JWTSecret, "JWT_SECRET")
	envOverride(&c.Coach.BaseURL, "ANTHROPIC_BASE_URL")
	envOverride(&c.Coach.APIKey, "ANTHROPIC_API_KEY")
	envOverride(&c.Realtime.BaseURL, "OPENAI_BASE_URL")
	envOverride(&c.Realtime.APIKey, "OPENAI_API_KEY")
	envOverride(&c.Cache.RedisURL, "REDIS_URL")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "DB_PORT")
	envOverrideBool(&c.Log.Console, "LOG_CONSOLE")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowOrigins = strings.Split(v, ",")
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) DashboardTTL() time.Duration {
	return time.Duration(c.Cache.DashboardTTLSeconds) * time.Second
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch c.Database.Type {
	case "mysql", "mariadb":
		cfg := gomysql.NewConfig()
		cfg.User = c.Database.User
		cfg.Passwd = c.Database.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
		cfg.DBName = c.Database.Name
		cfg.ParseTime = true

		connector, err := gomysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("create connector: %w", err)
		}
		sqlDB := sql.OpenDB(connector)
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("ping db: %w", err)
		}
		dialector = mysql.New(mysql.Config{Conn: sqlDB})

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			c.Database.Host, c.Database.User, c.Database.Password, c.Database.Name, c.Database.Port)
		dialector = postgres.Open(dsn)

	case "sqlite", "":
		dialector = sqlite.Open(c.Database.Name)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Database.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying db: %w", err)
	}
	if c.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(c.Database.MaxOpenConns / 2)
	}
	return db, nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
