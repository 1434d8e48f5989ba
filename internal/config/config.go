package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	JWT     JWTConfig     `yaml:"jwt"`
	Log     LogConfig     `yaml:"log"`
	Backup  BackupConfig  `yaml:"backup"`
	APNs    APNsConfig    `yaml:"apns"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port" env:"PORT"`
	Host string `yaml:"host" env:"HOST"`
}

// StorageConfig holds the flat-file store location
type StorageConfig struct {
	DataDir string `yaml:"data_dir" env:"DATA_DIR"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret" env:"JWT_SECRET"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// BackupConfig holds S3 backup configuration. Backups are off when Bucket is empty.
type BackupConfig struct {
	Region    string        `yaml:"region" env:"AWS_REGION"`
	Bucket    string        `yaml:"bucket" env:"BACKUP_BUCKET"`
	Prefix    string        `yaml:"prefix" env:"BACKUP_PREFIX"`
	AccessKey string        `yaml:"access_key" env:"AWS_ACCESS_KEY_ID"`
	SecretKey string        `yaml:"secret_key" env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint  string        `yaml:"endpoint" env:"BACKUP_ENDPOINT"`
	Interval  time.Duration `yaml:"interval" env:"BACKUP_INTERVAL"`
}

// Enabled reports whether backups are configured
func (c *BackupConfig) Enabled() bool {
	return c.Bucket != ""
}

// APNsConfig holds push notification configuration. Push is off when KeyPath is empty.
type APNsConfig struct {
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION"`
}

// Enabled reports whether push notifications are configured
func (c *APNsConfig) Enabled() bool {
	return c.KeyPath != ""
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 3000, Host: "0.0.0.0"},
		Storage: StorageConfig{DataDir: "./data"},
		Log:     LogConfig{Level: "info"},
		Backup:  BackupConfig{Region: "us-east-1", Prefix: "backups", Interval: time.Hour},
	}
}

// Load reads configuration from a YAML file, then a .env file, then the environment.
// A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data_dir is required")
	}
	if c.Backup.Enabled() && c.Backup.Interval <= 0 {
		return fmt.Errorf("backup interval must be positive")
	}
	if c.APNs.Enabled() && (c.APNs.KeyID == "" || c.APNs.TeamID == "" || c.APNs.Topic == "") {
		return fmt.Errorf("apns key_id, team_id and topic are required with key_path")
	}
	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
