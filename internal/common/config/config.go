// internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"matrix-core/internal/matching"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	TaxID         TaxIDConfig             `mapstructure:"taxid"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Webhooks      WebhookConfig           `mapstructure:"webhooks"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	APIPrefix    string `mapstructure:"api_prefix"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	Mode         string `mapstructure:"mode"`          // gin mode: debug, release, test
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CamundaConfig struct {
	BrokerAddress         string `mapstructure:"broker_address"`
	MaxJobsActive         int    `mapstructure:"max_jobs_active"`
	Timeout               int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout        int    `mapstructure:"request_timeout"` // milliseconds
	MatchingProcessID     string `mapstructure:"matching_process_id"`
	StartProcessOnWebhook bool   `mapstructure:"start_process_on_webhook"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	URL          string   `mapstructure:"url"`
	PartnerIndex string   `mapstructure:"partner_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// --- Domain Configuration ---

// MatchingConfig tunes the scorer and result sizes.
type MatchingConfig struct {
	Threshold        float64          `mapstructure:"threshold"`
	DefaultLimit     int              `mapstructure:"default_limit"`
	TopRecommended   int              `mapstructure:"top_recommended"`
	Weights          matching.Weights `mapstructure:"weights"`
	AnalysisTTLHours int              `mapstructure:"analysis_ttl_hours"`
}

// AnalysisTTL is how long analysis results stay retrievable.
func (m MatchingConfig) AnalysisTTL() time.Duration {
	return time.Duration(m.AnalysisTTLHours) * time.Hour
}

// TaxIDConfig configures the registry lookup client.
type TaxIDConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	DailyLimit    int    `mapstructure:"daily_limit"`
	CacheTTLHours int    `mapstructure:"cache_ttl_hours"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// CacheConfig holds read-through cache TTLs in seconds.
type CacheConfig struct {
	PartnerTTL int `mapstructure:"partner_ttl"`
	UserTTL    int `mapstructure:"user_ttl"`
}

// NotificationConfig holds SES/SNS settings for connection notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// WebhookConfig holds per-platform HMAC secrets. An empty secret disables
// signature checks for that platform.
type WebhookConfig struct {
	Secrets map[string]string `mapstructure:"secrets"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
