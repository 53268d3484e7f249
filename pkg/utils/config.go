package utils

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Twilio    TwilioConfig
	OTP       OTPConfig
	Queue     QueueConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name     string
	Port     string
	Debug    bool
	LogPath  string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// RedisConfig points at the pub/sub backend of the real-time broadcaster.
// An empty URL falls back to a log-only broadcaster.
type RedisConfig struct {
	URL     string
	Channel string
}

// TwilioConfig holds SMS credentials. Missing credentials switch SMS to log-only.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	From        string
	CountryCode string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

type OTPConfig struct {
	PhoneExpiry        time.Duration
	PhoneMaxAttempts   int
	PhoneLockDuration  time.Duration
	ConsultationExpiry time.Duration
}

type QueueConfig struct {
	SuggestThreshold int
	AltQueueMax      int
	NoShowLimit      int
	NoShowCooldown   time.Duration
}

type RateLimitConfig struct {
	OTPPer15Min        int
	ConsultOTPPer15Min int
	BookingPerHour     int
}

// LoadConfig reads .env (or the file named by CONFIG_FILE) and the environment.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = ".env"
	}
	return LoadConfigFrom(path)
}

func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "opd-queue")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_CHANNEL_PREFIX", "opd:room:")
	v.SetDefault("TWILIO_COUNTRY_CODE", "+91")
	v.SetDefault("PHONE_OTP_EXPIRY_MINUTES", 5)
	v.SetDefault("PHONE_OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("PHONE_OTP_LOCK_MINUTES", 15)
	v.SetDefault("CONSULTATION_OTP_EXPIRY_MINUTES", 10)
	v.SetDefault("QUEUE_SUGGEST_THRESHOLD", 5)
	v.SetDefault("QUEUE_ALT_MAX", 5)
	v.SetDefault("NO_SHOW_LIMIT", 3)
	v.SetDefault("NO_SHOW_COOLDOWN_HOURS", 24)
	v.SetDefault("RATE_OTP_PER_15M", 5)
	v.SetDefault("RATE_CONSULT_OTP_PER_15M", 20)
	v.SetDefault("RATE_BOOKING_PER_HOUR", 50)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:     v.GetString("APP_NAME"),
			Port:     v.GetString("PORT"),
			Debug:    v.GetBool("DEBUG"),
			LogPath:  v.GetString("LOG_PATH"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("REDIS_URL"),
			Channel: v.GetString("REDIS_CHANNEL_PREFIX"),
		},
		Twilio: TwilioConfig{
			AccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
			From:        v.GetString("TWILIO_FROM"),
			CountryCode: v.GetString("TWILIO_COUNTRY_CODE"),
		},
		OTP: OTPConfig{
			PhoneExpiry:        time.Duration(v.GetInt("PHONE_OTP_EXPIRY_MINUTES")) * time.Minute,
			PhoneMaxAttempts:   v.GetInt("PHONE_OTP_MAX_ATTEMPTS"),
			PhoneLockDuration:  time.Duration(v.GetInt("PHONE_OTP_LOCK_MINUTES")) * time.Minute,
			ConsultationExpiry: time.Duration(v.GetInt("CONSULTATION_OTP_EXPIRY_MINUTES")) * time.Minute,
		},
		Queue: QueueConfig{
			SuggestThreshold: v.GetInt("QUEUE_SUGGEST_THRESHOLD"),
			AltQueueMax:      v.GetInt("QUEUE_ALT_MAX"),
			NoShowLimit:      v.GetInt("NO_SHOW_LIMIT"),
			NoShowCooldown:   time.Duration(v.GetInt("NO_SHOW_COOLDOWN_HOURS")) * time.Hour,
		},
		RateLimit: RateLimitConfig{
			OTPPer15Min:        v.GetInt("RATE_OTP_PER_15M"),
			ConsultOTPPer15Min: v.GetInt("RATE_CONSULT_OTP_PER_15M"),
			BookingPerHour:     v.GetInt("RATE_BOOKING_PER_HOUR"),
		},
	}

	return config, nil
}

// DefaultConfig mirrors the defaults of LoadConfig without touching the filesystem.
func DefaultConfig() *Config {
	return &Config{
		App:    AppConfig{Name: "opd-queue", Port: "8080", LogPath: "logs/"},
		Redis:  RedisConfig{Channel: "opd:room:"},
		Twilio: TwilioConfig{CountryCode: "+91"},
		OTP: OTPConfig{
			PhoneExpiry:        5 * time.Minute,
			PhoneMaxAttempts:   5,
			PhoneLockDuration:  15 * time.Minute,
			ConsultationExpiry: 10 * time.Minute,
		},
		Queue: QueueConfig{
			SuggestThreshold: 5,
			AltQueueMax:      5,
			NoShowLimit:      3,
			NoShowCooldown:   24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			OTPPer15Min:        5,
			ConsultOTPPer15Min: 20,
			BookingPerHour:     50,
		},
	}
}
