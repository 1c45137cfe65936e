package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by OTP_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreDynamo = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AllowedOrigins []string // CORS allowed origins

	OTPTTL           time.Duration
	OTPStore         string
	OTPSweepInterval time.Duration

	SendGridAPIKey       string
	ResendAPIKey         string
	ResendAudienceID     string
	EmailFrom            string
	EmailFromName        string
	EmailDomain          string // domain of the SendGrid fallback noreply sender
	EmailContactDelay    time.Duration
	SimulateEmailSending bool
	ProviderTimeout      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTableOTP string
	SNSRegion      string

	WhatsAppGatewayURL string
	PhoneCountryCode   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "production"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		OTPTTL:           time.Duration(getEnvInt("OTP_TTL_MINUTES", 5)) * time.Minute,
		OTPStore:         strings.ToLower(getEnv("OTP_STORE", StoreMemory)),
		OTPSweepInterval: time.Duration(getEnvInt("OTP_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,

		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		ResendAudienceID:     getEnv("RESEND_AUDIENCE_ID", ""),
		EmailFrom:            getEnv("EMAIL_FROM", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "FuelGo"),
		EmailDomain:          getEnv("EMAIL_DOMAIN", "fuelgo.id"),
		EmailContactDelay:    time.Duration(getEnvInt("EMAIL_CONTACT_DELAY_MS", 1000)) * time.Millisecond,
		SimulateEmailSending: getEnvBool("SIMULATE_EMAIL_SENDING", false),
		ProviderTimeout:      time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 10)) * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTableOTP: getEnv("DYNAMO_TABLE_OTP", "otp_codes"),
		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),

		WhatsAppGatewayURL: strings.TrimRight(getEnv("WHATSAPP_GATEWAY_URL", ""), "/"),
		PhoneCountryCode:   getEnv("PHONE_COUNTRY_CODE", "62"),
	}
}

// IsDevelopment reports whether APP_ENV selects development mode. Raw error
// details and simulated email sending are only ever enabled in this mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// SimulateEmail reports whether OTP emails are short-circuited with a
// synthetic success. Requires both development mode and the simulate flag.
func (c *Config) SimulateEmail() bool {
	return c.IsDevelopment() && c.SimulateEmailSending
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
