package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Tracking TrackingConfig `yaml:"tracking"`
	Locale   LocaleConfig   `yaml:"locale"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Cache    CacheConfig    `yaml:"cache"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

// UpstreamConfig holds the backend services every forwarder talks to.
// The API key is attached to every upstream call and must never be logged.
type UpstreamConfig struct {
	APIKey            string `yaml:"api_key"`
	DecisionEngineURL string `yaml:"decision_engine_url"`
	WebappBFFURL      string `yaml:"webapp_bff_url"`
	GmailImportURL    string `yaml:"gmail_import_url"`
	AirportsURL       string `yaml:"airports_url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
}

func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

type TrackingConfig struct {
	FBPixelID   string `yaml:"fb_pixel_id"`
	MapboxToken string `yaml:"mapbox_token"`
}

type LocaleConfig struct {
	Supported []string `yaml:"supported"`
	Default   string   `yaml:"default"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	URL      string `yaml:"url"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	RepricingTopic string   `yaml:"repricing_topic"`
	GroupID        string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.RepricingTopic != ""
}

type CacheConfig struct {
	AirportsTTLSeconds int `yaml:"airports_ttl_seconds"`
	SessionTTLHours    int `yaml:"session_ttl_hours"`
}

type WorkerConfig struct {
	RetentionSweepMinutes int `yaml:"retention_sweep_minutes"`
	EventRetentionDays    int `yaml:"event_retention_days"`
}

var ErrMissingRequired = errors.New("missing required configuration")

func Default() Config {
	return Config{
		HTTP: HTTPConfig{Address: ":8080"},
		Upstream: UpstreamConfig{
			DecisionEngineURL: "https://decision-engine.onrender.com",
			WebappBFFURL:      "https://webapp-bff.onrender.com",
			GmailImportURL:    "https://frontend-repricing-email-import.onrender.com",
			AirportsURL:       "https://hotel-quote-generation.onrender.com",
			TimeoutSeconds:    15,
		},
		Locale: LocaleConfig{Supported: []string{"en", "es"}, Default: "en"},
		Kafka:  KafkaConfig{RepricingTopic: "repricing-events", GroupID: "repricing-worker"},
		Cache:  CacheConfig{AirportsTTLSeconds: 86400, SessionTTLHours: 24 * 30},
		Worker: WorkerConfig{RetentionSweepMinutes: 60, EventRetentionDays: 90},
	}
}

// LoadConfig reads the YAML file at path (a missing file is allowed), applies
// environment overrides and validates required settings.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is LoadConfig without validation, for binaries that never call upstream.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnv(&cfg)
	cfg.fillZeroes()
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Upstream.APIKey, "PICKS_BACKEND_API_KEY")
	setString(&cfg.Tracking.FBPixelID, "NEXT_PUBLIC_FB_PIXEL_ID")
	setString(&cfg.Tracking.MapboxToken, "NEXT_PUBLIC_MAPBOX_TOKEN")
	setString(&cfg.Upstream.DecisionEngineURL, "DECISION_ENGINE_BASE_URL")
	setString(&cfg.Upstream.WebappBFFURL, "WEBAPP_BFF_URL")
	setString(&cfg.Upstream.GmailImportURL, "GMAIL_IMPORT_BASE_URL")
	setString(&cfg.Upstream.AirportsURL, "AIRPORTS_BASE_URL")
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Database.URL, "DATABASE_URL")

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate reports every required setting that is empty.
func (c *Config) Validate() error {
	var missing []string
	if c.Tracking.FBPixelID == "" {
		missing = append(missing, "NEXT_PUBLIC_FB_PIXEL_ID")
	}
	if c.Upstream.APIKey == "" {
		missing = append(missing, "PICKS_BACKEND_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	return nil
}

// fillZeroes restores defaults a config file zeroed out.
func (c *Config) fillZeroes() {
	if c.Upstream.TimeoutSeconds <= 0 {
		c.Upstream.TimeoutSeconds = 15
	}
	if c.Worker.RetentionSweepMinutes <= 0 {
		c.Worker.RetentionSweepMinutes = 60
	}
	if c.Worker.EventRetentionDays <= 0 {
		c.Worker.EventRetentionDays = 90
	}
	if c.Locale.Default == "" {
		c.Locale.Default = "en"
	}
}
