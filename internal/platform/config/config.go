package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docuchat/docuchat-backend/internal/platform/envutil"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// Config is the full runtime configuration. Values come from the environment
// with defaults; an optional YAML file named by CONFIG_FILE is applied first,
// so env vars always win.
type Config struct {
	Port    string `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"-"`
	RefreshTokenTTL time.Duration `yaml:"-"`
	AccessTTLSecs   int           `yaml:"access_token_ttl"`
	RefreshTTLSecs  int           `yaml:"refresh_token_ttl"`

	DBDriver         string `yaml:"db_driver"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`
	SQLitePath       string `yaml:"sqlite_path"`

	StorageBucket string `yaml:"storage_bucket"`
	CDNDomain     string `yaml:"cdn_domain"`

	QueryServiceURL string `yaml:"query_service_url"`

	RedisAddr    string `yaml:"redis_addr"`
	RedisChannel string `yaml:"redis_channel"`

	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`
	OAuthRedirectURL  string `yaml:"oauth_redirect_url"`

	SendgridAPIKey    string `yaml:"sendgrid_api_key"`
	SendgridFromEmail string `yaml:"sendgrid_from_email"`
	SendgridFromName  string `yaml:"sendgrid_from_name"`
	EmailLinkBaseURL  string `yaml:"email_link_base_url"`
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		if log != nil {
			log.Info("loaded config file", "path", path)
		}
	}

	cfg.Port = envutil.GetEnv("PORT", fallback(cfg.Port, "8080"), log)
	cfg.LogMode = envutil.GetEnv("LOG_MODE", fallback(cfg.LogMode, "development"), log)

	cfg.JWTSecretKey = envutil.GetEnv("JWT_SECRET_KEY", fallback(cfg.JWTSecretKey, "defaultsecret"), log)
	cfg.AccessTTLSecs = envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", fallbackInt(cfg.AccessTTLSecs, 3600), log)
	cfg.RefreshTTLSecs = envutil.GetEnvAsInt("REFRESH_TOKEN_TTL", fallbackInt(cfg.RefreshTTLSecs, 86400), log)
	cfg.AccessTokenTTL = time.Duration(cfg.AccessTTLSecs) * time.Second
	cfg.RefreshTokenTTL = time.Duration(cfg.RefreshTTLSecs) * time.Second

	cfg.DBDriver = envutil.GetEnv("DB_DRIVER", fallback(cfg.DBDriver, "postgres"), log)
	cfg.PostgresHost = envutil.GetEnv("POSTGRES_HOST", fallback(cfg.PostgresHost, "localhost"), log)
	cfg.PostgresPort = envutil.GetEnv("POSTGRES_PORT", fallback(cfg.PostgresPort, "5432"), log)
	cfg.PostgresUser = envutil.GetEnv("POSTGRES_USER", fallback(cfg.PostgresUser, "postgres"), log)
	cfg.PostgresPassword = envutil.GetEnv("POSTGRES_PASSWORD", cfg.PostgresPassword, log)
	cfg.PostgresName = envutil.GetEnv("POSTGRES_NAME", fallback(cfg.PostgresName, "docuchat"), log)
	cfg.SQLitePath = envutil.GetEnv("SQLITE_PATH", fallback(cfg.SQLitePath, "docuchat.db"), log)

	cfg.StorageBucket = envutil.GetEnv("GCS_BUCKET_NAME", fallback(cfg.StorageBucket, "documents"), log)
	cfg.CDNDomain = envutil.GetEnv("CDN_DOMAIN", cfg.CDNDomain, log)

	cfg.QueryServiceURL = envutil.GetEnv("QUERY_SERVICE_URL", fallback(cfg.QueryServiceURL, "http://localhost:8000"), log)

	cfg.RedisAddr = envutil.GetEnv("REDIS_ADDR", cfg.RedisAddr, log)
	cfg.RedisChannel = envutil.GetEnv("REDIS_CHANNEL", fallback(cfg.RedisChannel, "session-events"), log)

	cfg.OAuthClientID = envutil.GetEnv("OAUTH_CLIENT_ID", cfg.OAuthClientID, log)
	cfg.OAuthClientSecret = envutil.GetEnv("OAUTH_CLIENT_SECRET", cfg.OAuthClientSecret, log)
	cfg.OAuthRedirectURL = envutil.GetEnv("OAUTH_REDIRECT_URL", cfg.OAuthRedirectURL, log)

	cfg.SendgridAPIKey = envutil.GetEnv("SENDGRID_API_KEY", cfg.SendgridAPIKey, log)
	cfg.SendgridFromEmail = envutil.GetEnv("SENDGRID_FROM_EMAIL", cfg.SendgridFromEmail, log)
	cfg.SendgridFromName = envutil.GetEnv("SENDGRID_FROM_NAME", cfg.SendgridFromName, log)
	cfg.EmailLinkBaseURL = envutil.GetEnv("EMAIL_LINK_BASE_URL", fallback(cfg.EmailLinkBaseURL, "http://localhost:3000/login/email"), log)

	return cfg, nil
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func fallbackInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
