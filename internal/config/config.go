// Package config loads bot settings from defaults, an optional TOML file, a
// .env file and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Transport         string `toml:"transport" validate:"oneof=telegram line"`
	BotToken          string `toml:"bot_token" validate:"required_if=Transport telegram"`
	LineChannelSecret string `toml:"line_channel_secret" validate:"required_if=Transport line"`
	LineChannelToken  string `toml:"line_channel_token" validate:"required_if=Transport line"`
	HTTPAddr          string `toml:"http_addr" validate:"required"`
	StoreDriver       string `toml:"store_driver" validate:"oneof=memory postgres mongo"`
	DatabaseURL       string `toml:"database_url" validate:"required_if=StoreDriver postgres"`
	MongoURI          string `toml:"mongo_uri" validate:"required_if=StoreDriver mongo"`
	MongoDatabase     string `toml:"mongo_database"`
	S3Bucket          string `toml:"s3_bucket"`
	S3Region          string `toml:"s3_region"`
	S3Endpoint        string `toml:"s3_endpoint" validate:"omitempty,url"`
	S3AccessKey       string `toml:"s3_access_key"`
	S3SecretKey       string `toml:"s3_secret_key"`
	AssetPublicURL    string `toml:"asset_public_url" validate:"omitempty,url"`
	ThumbnailURL      string `toml:"thumbnail_url" validate:"omitempty,url"`
	NATSURL           string `toml:"nats_url"`
	Timezone          string `toml:"timezone" validate:"omitempty,timezone"`
	LogLevel          string `toml:"log_level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat         string `toml:"log_format" validate:"oneof=text json"`
	CommandPrefix     string `toml:"command_prefix" validate:"required"`
	MaxArgumentLength int    `toml:"max_argument_length" validate:"gte=0"`
}

func defaults() Config {
	return Config{
		Transport:         "telegram",
		HTTPAddr:          ":8080",
		StoreDriver:       "memory",
		MongoDatabase:     "schedule_bot",
		S3Region:          "us-east-1",
		LogLevel:          "info",
		LogFormat:         "text",
		CommandPrefix:     "!",
		MaxArgumentLength: 200,
	}
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	c := defaults()

	if path := os.Getenv("BOT_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &c); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := c.overlayEnv(); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

func (c *Config) overlayEnv() error {
	strs := map[string]*string{
		"BOT_TRANSPORT":       &c.Transport,
		"BOT_TOKEN":           &c.BotToken,
		"LINE_CHANNEL_SECRET": &c.LineChannelSecret,
		"LINE_CHANNEL_TOKEN":  &c.LineChannelToken,
		"HTTP_ADDR":           &c.HTTPAddr,
		"STORE_DRIVER":        &c.StoreDriver,
		"DATABASE_URL":        &c.DatabaseURL,
		"MONGO_URI":           &c.MongoURI,
		"MONGO_DATABASE":      &c.MongoDatabase,
		"S3_BUCKET":           &c.S3Bucket,
		"S3_REGION":           &c.S3Region,
		"S3_ENDPOINT":         &c.S3Endpoint,
		"S3_ACCESS_KEY":       &c.S3AccessKey,
		"S3_SECRET_KEY":       &c.S3SecretKey,
		"ASSET_PUBLIC_URL":    &c.AssetPublicURL,
		"THUMBNAIL_URL":       &c.ThumbnailURL,
		"NATS_URL":            &c.NATSURL,
		"BOT_TIMEZONE":        &c.Timezone,
		"LOG_LEVEL":           &c.LogLevel,
		"LOG_FORMAT":          &c.LogFormat,
		"COMMAND_PREFIX":      &c.CommandPrefix,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("MAX_ARGUMENT_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_ARGUMENT_LENGTH: %w", err)
		}
		c.MaxArgumentLength = n
	}
	return nil
}

// Location returns the time zone dates are parsed and displayed in.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
