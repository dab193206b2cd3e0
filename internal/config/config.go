package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMETAILOR_AUTH_ACCESSTOKEN, etc.)
// 4. Default values - Lowest priority
type Config struct {
	Remote        RemoteConfig        `mapstructure:"remote"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Session       SessionConfig       `mapstructure:"session"`
	Export        ExportConfig        `mapstructure:"export"`
	Events        EventsConfig        `mapstructure:"events"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// RemoteConfig holds the analysis endpoints configuration
type RemoteConfig struct {
	BaseURL string        `mapstructure:"baseURL"` // Functions base URL, operation paths are joined to it
	AnonKey string        `mapstructure:"anonKey"` // Project key sent as the apikey header
	Timeout time.Duration `mapstructure:"timeout"` // Zero leaves requests without a client deadline

	// Operation-specific configurations
	Benchmark OperationConfig `mapstructure:"benchmark"`
	Score     OperationConfig `mapstructure:"score"`
	Gaps      OperationConfig `mapstructure:"gaps"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationConfig holds configuration for one remote analysis operation
type OperationConfig struct {
	Name           string               `mapstructure:"-"`
	Path           string               `mapstructure:"path"`
	Timeout        *time.Duration       `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// AuthConfig selects where the session access token comes from
type AuthConfig struct {
	Mode         string        `mapstructure:"mode"`         // "static", "file" or "vault"
	AccessToken  string        `mapstructure:"accessToken"`  // Used in static mode
	TokenFile    string        `mapstructure:"tokenFile"`    // Used in file mode, reloaded on change
	VaultPath    string        `mapstructure:"vaultPath"`    // KVv2 path used in vault mode
	VaultKey     string        `mapstructure:"vaultKey"`     // Key inside the Vault secret
	ExpiryLeeway time.Duration `mapstructure:"expiryLeeway"` // Tokens expiring within the leeway count as expired
}

// SessionConfig holds tailoring session behaviour
type SessionConfig struct {
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Quiet period before re-scoring edited text
}

// ExportConfig selects where exported resumes are written
type ExportConfig struct {
	Mode string   `mapstructure:"mode"` // "file" or "s3"
	Dir  string   `mapstructure:"dir"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible bucket settings for exports
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"` // Custom endpoint for R2/MinIO style storage
	AccessKey    string `mapstructure:"accessKey"`
	SecretKey    string `mapstructure:"secretKey"`
	Prefix       string `mapstructure:"prefix"`
	UsePathStyle bool   `mapstructure:"usePathStyle"`
}

// EventsConfig selects where session events are published
type EventsConfig struct {
	Mode string     `mapstructure:"mode"` // "none", "log" or "amqp"
	AMQP AMQPConfig `mapstructure:"amqp"`
}

// AMQPConfig holds RabbitMQ publishing settings
type AMQPConfig struct {
	URL              string `mapstructure:"url"`
	Exchange         string `mapstructure:"exchange"`
	RoutingKeyPrefix string `mapstructure:"routingKeyPrefix"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`
	SessionTTL     time.Duration `mapstructure:"sessionTTL"` // Idle sessions are closed after this long

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode       string `mapstructure:"mode"`       // TLS mode: "disabled", "server", "mutual"
	CertFile   string `mapstructure:"certFile"`   // Server certificate file (PEM)
	KeyFile    string `mapstructure:"keyFile"`    // Server private key file (PEM)
	CAFile     string `mapstructure:"caFile"`     // CA certificate file for client cert verification
	MinVersion string `mapstructure:"minVersion"` // Minimum TLS version: "1.2", "1.3"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	RemoteOperations RemoteOperationsMetricsConfig `mapstructure:"remoteOperations"`
	BusinessMetrics  BusinessMetricsConfig         `mapstructure:"businessMetrics"`
	Infrastructure   InfrastructureMetricsConfig   `mapstructure:"infrastructure"`
}

// RemoteOperationsMetricsConfig holds remote call metrics configuration
type RemoteOperationsMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
}

// BusinessMetricsConfig holds session business metrics configuration
type BusinessMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumetailor/")
	v.AddConfigPath("$HOME/.resumetailor")
	v.AddConfigPath(".")

	return load(v)
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	setDefaults(v)

	v.SetEnvPrefix("RESUMETAILOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validateBaseURL(c.Remote.BaseURL); err != nil {
		return err
	}

	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote timeout must not be negative")
	}

	if c.Session.DebounceDelay <= 0 {
		return fmt.Errorf("session debounce delay must be positive")
	}

	switch c.Auth.Mode {
	case "static":
	case "file":
		if c.Auth.TokenFile == "" {
			return fmt.Errorf("auth tokenFile is required for file mode")
		}
	case "vault":
		if !c.Vault.Enabled || c.Auth.VaultPath == "" {
			return fmt.Errorf("vault mode requires vault.enabled and auth.vaultPath")
		}
	default:
		return fmt.Errorf("invalid auth mode: %s (must be 'static', 'file', or 'vault')", c.Auth.Mode)
	}

	switch c.Export.Mode {
	case "file":
	case "s3":
		if c.Export.S3.Bucket == "" {
			return fmt.Errorf("export s3 bucket is required for s3 mode")
		}
	default:
		return fmt.Errorf("invalid export mode: %s (must be 'file' or 's3')", c.Export.Mode)
	}

	switch c.Events.Mode {
	case "none", "log":
	case "amqp":
		if c.Events.AMQP.URL == "" {
			return fmt.Errorf("events amqp url is required for amqp mode")
		}
	default:
		return fmt.Errorf("invalid events mode: %s (must be 'none', 'log', or 'amqp')", c.Events.Mode)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("remote base URL is required (set RESUMETAILOR_REMOTE_BASEURL environment variable)")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid remote base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote base URL must use http or https, got %q", u.Scheme)
	}
	return nil
}
