package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string
	AppURL      string

	// Redis configuration
	RedisURL string

	// Mail configuration
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPTLS          bool
	MailFromAddress  string
	MailFromName     string
	StaffNotifyEmail string
	MailWorkers      int
	MailQueueSize    int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	AdminChannel       string
	PublishQueueSize   int

	// Rate limiting
	RateLimitForms  int
	RateLimitLogin  int
	RateLimitWindow time.Duration

	// Sessions
	SessionTTL      time.Duration
	SessionCacheTTL time.Duration
	CookieSecure    bool
	CSRFEnabled     bool

	// Monitoring
	EnableMetrics   bool
	MetricsInterval time.Duration

	// Reporting export
	ReportingDSN string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		AppURL:      getEnv("APP_URL", "http://localhost:8090"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// Mail
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPTLS:          getEnvAsBool("SMTP_TLS", false),
		MailFromAddress:  getEnv("MAIL_FROM_ADDRESS", "no-reply@example.com"),
		MailFromName:     getEnv("MAIL_FROM_NAME", "Travel Agency"),
		StaffNotifyEmail: getEnv("STAFF_NOTIFY_EMAIL", ""),
		MailWorkers:      getEnvAsInt("MAIL_WORKERS", 2),
		MailQueueSize:    getEnvAsInt("MAIL_QUEUE_SIZE", 100),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		AdminChannel:       getEnv("ADMIN_CHANNEL", "admin-bookings"),
		PublishQueueSize:   getEnvAsInt("PUBLISH_QUEUE_SIZE", 100),

		// Rate limiting
		RateLimitForms:  getEnvAsInt("RATE_LIMIT_FORMS", 5),
		RateLimitLogin:  getEnvAsInt("RATE_LIMIT_LOGIN", 10),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		// Sessions (7 days matches the default auth token duration of the users collection)
		SessionTTL:      getEnvAsDuration("SESSION_TTL", "168h"),
		SessionCacheTTL: getEnvAsDuration("SESSION_CACHE_TTL", "10m"),
		CookieSecure:    getEnvAsBool("COOKIE_SECURE", false),
		CSRFEnabled:     getEnvAsBool("CSRF_ENABLED", true),

		// Monitoring
		EnableMetrics:   getEnvAsBool("ENABLE_METRICS", true),
		MetricsInterval: getEnvAsDuration("METRICS_INTERVAL", "30s"),

		// Reporting
		ReportingDSN: getEnv("REPORTING_DSN", ""),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
