package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	Storage     S3Config         `json:"storage"`
	Mail        MailConfig       `json:"mail"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type S3Config struct {
	Region         string `json:"region"`
	AccessKeyID    string `json:"access_key_id"`
	SecretKey      string `json:"secret_key"`
	Bucket         string `json:"bucket"`
	Endpoint       string `json:"endpoint"`
	PublicURL      string `json:"public_url"`
	ForcePathStyle bool   `json:"force_path_style"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database dsn or host/user/db_name are required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Storage.Region == "" || cfg.Storage.AccessKeyID == "" || cfg.Storage.SecretKey == "" ||
		cfg.Storage.Bucket == "" || cfg.Storage.Endpoint == "" || cfg.Storage.PublicURL == "" {
		return nil, fmt.Errorf("storage region/access_key_id/secret_key/bucket/endpoint/public_url are required")
	}
	if cfg.Mail.Host == "" || cfg.Mail.From == "" {
		return nil, fmt.Errorf("mail host/from are required")
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	return &cfg, nil
}
