// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueue() string
	GetAsynqConcurrency() int
}

// VoiceProviderConfig provides settings for the outbound voice provider API.
type VoiceProviderConfig interface {
	GetVoiceAPIBaseURL() string
	GetVoiceAPIKey() string
	GetVoiceAgentID() string
	GetVoiceFromNumber() string
	IsVoiceProviderEnabled() bool
}

// WebhookConfig provides settings for inbound webhook verification.
type WebhookConfig interface {
	GetWebhookSigningSecret() string
}

// DialerConfig provides settings for the auto-dialer scheduler.
type DialerConfig interface {
	GetCronSecret() string
	GetDialerTickInterval() time.Duration
	GetStaleCallSweepInterval() time.Duration
	GetStaleCallBound() time.Duration
}

// SMTPConfig provides settings for notification email sending.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromName() string
	GetSMTPFromAddress() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketRecordings() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	JWTAccessSecret        string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueue             string
	AsynqConcurrency       int
	VoiceAPIBaseURL        string
	VoiceAPIKey            string
	VoiceAgentID           string
	VoiceFromNumber        string
	WebhookSigningSecret   string
	CronSecret             string
	DialerTickInterval     time.Duration
	StaleCallSweepInterval time.Duration
	StaleCallBound         time.Duration
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	SMTPFromName           string
	SMTPFromAddress        string
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinioBucketRecordings  string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueue() string     { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// VoiceProviderConfig implementation
func (c *Config) GetVoiceAPIBaseURL() string { return c.VoiceAPIBaseURL }
func (c *Config) GetVoiceAPIKey() string     { return c.VoiceAPIKey }
func (c *Config) GetVoiceAgentID() string    { return c.VoiceAgentID }
func (c *Config) GetVoiceFromNumber() string { return c.VoiceFromNumber }
func (c *Config) IsVoiceProviderEnabled() bool {
	return c.VoiceAPIKey != "" && c.VoiceFromNumber != ""
}

// WebhookConfig implementation
func (c *Config) GetWebhookSigningSecret() string { return c.WebhookSigningSecret }

// DialerConfig implementation
func (c *Config) GetCronSecret() string                    { return c.CronSecret }
func (c *Config) GetDialerTickInterval() time.Duration     { return c.DialerTickInterval }
func (c *Config) GetStaleCallSweepInterval() time.Duration { return c.StaleCallSweepInterval }
func (c *Config) GetStaleCallBound() time.Duration         { return c.StaleCallBound }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromAddress != ""
}

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string         { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string        { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string        { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool             { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketRecordings() string { return c.MinioBucketRecordings }
func (c *Config) IsMinIOEnabled() bool             { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:             getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		VoiceAPIBaseURL:        getEnv("VOICE_API_BASE_URL", "https://api.retellai.com"),
		VoiceAPIKey:            getEnv("VOICE_API_KEY", ""),
		VoiceAgentID:           getEnv("VOICE_AGENT_ID", ""),
		VoiceFromNumber:        getEnv("VOICE_FROM_NUMBER", ""),
		WebhookSigningSecret:   getEnv("WEBHOOK_SIGNING_SECRET", ""),
		CronSecret:             getEnv("CRON_SECRET", ""),
		DialerTickInterval:     mustDuration(getEnv("DIALER_TICK_INTERVAL", "1m")),
		StaleCallSweepInterval: mustDuration(getEnv("STALE_CALL_SWEEP_INTERVAL", "10m")),
		StaleCallBound:         mustDuration(getEnv("STALE_CALL_BOUND", "2h")),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:           getEnv("SMTP_FROM_NAME", "Dialer"),
		SMTPFromAddress:        getEnv("SMTP_FROM_ADDRESS", ""),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketRecordings:  getEnv("MINIO_BUCKET_RECORDINGS", "call-recordings"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DialerTickInterval <= 0 || cfg.StaleCallSweepInterval <= 0 || cfg.StaleCallBound <= 0 {
		return nil, fmt.Errorf("dialer intervals must be positive durations")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
