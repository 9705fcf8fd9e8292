package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL = "https://mexspacioinmobiliarios.com.mx/api"
	DefaultTimezone   = "America/Mexico_City"
)

// DefaultTimeSlots are the fixed slots offered by the public scheduling section.
var DefaultTimeSlots = []string{"10:00 AM", "11:00 AM", "1:00 PM", "2:30 PM", "4:00 PM"}

// DefaultTimezones are the display zones a customer may pick for the confirmation message.
var DefaultTimezones = []string{
	"America/Mexico_City",
	"America/Bogota",
	"America/New_York",
	"America/Chicago",
	"America/Los_Angeles",
	"UTC",
}

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	API     APIConfig     `yaml:"api"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Session SessionConfig `yaml:"session"`
	Booking BookingConfig `yaml:"booking"`
	Payment PaymentConfig `yaml:"payment"`
	Email   EmailConfig   `yaml:"email"`
	Log     LogConfig     `yaml:"log"`
	Worker  WorkerConfig  `yaml:"worker"`
}

type HTTPConfig struct {
	Address            string   `yaml:"address"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	LoginRatePerMinute int      `yaml:"login_rate_per_minute"`
	LoginBurst         int      `yaml:"login_burst"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationsTopic  string   `yaml:"reservations_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	TTLMinutes int    `yaml:"ttl_minutes"`
	Secure     bool   `yaml:"secure"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

type BookingConfig struct {
	Timezone                string   `yaml:"timezone"`
	TimeSlots               []string `yaml:"time_slots"`
	Timezones               []string `yaml:"timezones"`
	FlowTTLMinutes          int      `yaml:"flow_ttl_minutes"`
	FlowLockSeconds         int      `yaml:"flow_lock_seconds"`
	ServicesCacheTTLSeconds int      `yaml:"services_cache_ttl_seconds"`
	FlowCookieName          string   `yaml:"flow_cookie_name"`
}

func (b BookingConfig) FlowTTL() time.Duration {
	return time.Duration(b.FlowTTLMinutes) * time.Minute
}

func (b BookingConfig) FlowLockTTL() time.Duration {
	return time.Duration(b.FlowLockSeconds) * time.Second
}

func (b BookingConfig) ServicesCacheTTL() time.Duration {
	return time.Duration(b.ServicesCacheTTLSeconds) * time.Second
}

// Location resolves the business timezone used for day keys and persisted timestamps.
func (b BookingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}

type PaymentConfig struct {
	PublicKey string `yaml:"public_key"`
	Locale    string `yaml:"locale"`
}

type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type WorkerConfig struct {
	ServicesRefreshMinutes int `yaml:"services_refresh_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.HTTP.Address, "HTTP_ADDRESS")
	setString(&c.API.BaseURL, "API_BASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Payment.PublicKey, "MP_PUBLIC_KEY")
	setString(&c.Email.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Env, "APP_ENV")
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.HTTP.LoginRatePerMinute <= 0 {
		c.HTTP.LoginRatePerMinute = 10
	}
	if c.HTTP.LoginBurst <= 0 {
		c.HTTP.LoginBurst = 5
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 15
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "et_mexspacios_session"
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 8 * 60
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = DefaultTimezone
	}
	if len(c.Booking.TimeSlots) == 0 {
		c.Booking.TimeSlots = append([]string(nil), DefaultTimeSlots...)
	}
	if len(c.Booking.Timezones) == 0 {
		c.Booking.Timezones = append([]string(nil), DefaultTimezones...)
	}
	if c.Booking.FlowTTLMinutes <= 0 {
		c.Booking.FlowTTLMinutes = 60
	}
	if c.Booking.FlowLockSeconds <= 0 {
		c.Booking.FlowLockSeconds = 30
	}
	if c.Booking.ServicesCacheTTLSeconds <= 0 {
		c.Booking.ServicesCacheTTLSeconds = 300
	}
	if c.Booking.FlowCookieName == "" {
		c.Booking.FlowCookieName = "et_mexspacios_flow"
	}
	if c.Payment.Locale == "" {
		c.Payment.Locale = "es-MX"
	}
	if c.Kafka.ReservationsTopic == "" {
		c.Kafka.ReservationsTopic = "reservations"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "reservation-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "legalinmo-worker"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "LegalInmo"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Env == "" {
		c.Log.Env = "development"
	}
	if c.Worker.ServicesRefreshMinutes <= 0 {
		c.Worker.ServicesRefreshMinutes = 5
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
