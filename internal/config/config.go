package config

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	IPInfo     ProviderConfig   `yaml:"ipinfo" mapstructure:"ipinfo"`
	PDL        ProviderConfig   `yaml:"pdl" mapstructure:"pdl"`
	Hunter     ProviderConfig   `yaml:"hunter" mapstructure:"hunter"`
	Apollo     ProviderConfig   `yaml:"apollo" mapstructure:"apollo"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Tracking   TrackingConfig   `yaml:"tracking" mapstructure:"tracking"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// AdminToken guards the dashboard and enrichment routes. Empty leaves them open.
	AdminToken string `yaml:"admin_token" mapstructure:"admin_token"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ProviderConfig holds credentials and limits for one third-party API.
type ProviderConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	Burst        int     `yaml:"burst" mapstructure:"burst"`
	MonthlyQuota int     `yaml:"monthly_quota" mapstructure:"monthly_quota"` // 0 = unmetered
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EnrichConfig configures the enrichment orchestrator and batch scheduler.
type EnrichConfig struct {
	ChunkSize        int `yaml:"chunk_size" mapstructure:"chunk_size"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	RetryAttempts    int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs   int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	CircuitThreshold int `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs int `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
	HunterMinScore   int `yaml:"hunter_min_confidence" mapstructure:"hunter_min_confidence"`
	ContactLimit     int `yaml:"contact_limit" mapstructure:"contact_limit"`
}

// TrackingConfig configures visit ingestion.
type TrackingConfig struct {
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // pings per second per client
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	RecentHours int     `yaml:"recent_hours" mapstructure:"recent_hours"`
}

// ClassifierConfig points at an optional YAML rules file for the IP classifier.
type ClassifierConfig struct {
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// MonitoringConfig configures provider quota alerts.
type MonitoringConfig struct {
	WebhookURL         string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs  int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	QuotaAlertFraction float64 `yaml:"quota_alert_fraction" mapstructure:"quota_alert_fraction"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VISITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a meaningful default are registered empty so
	// AutomaticEnv can still populate them on Unmarshal.
	for _, key := range []string{
		"server.admin_token", "classifier.rules_file", "monitoring.webhook_url",
		"ipinfo.key", "pdl.key", "hunter.key", "apollo.key",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "visitor-intel.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("ipinfo.base_url", "https://ipinfo.io")
	v.SetDefault("ipinfo.rate_limit", 10)
	v.SetDefault("ipinfo.burst", 10)
	v.SetDefault("ipinfo.timeout_secs", 5)

	v.SetDefault("pdl.base_url", "https://api.peopledatalabs.com/v5")
	v.SetDefault("pdl.rate_limit", 1)
	v.SetDefault("pdl.burst", 2)
	v.SetDefault("pdl.monthly_quota", 1000)
	v.SetDefault("pdl.timeout_secs", 15)

	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("hunter.rate_limit", 0.5)
	v.SetDefault("hunter.burst", 1)
	v.SetDefault("hunter.monthly_quota", 100)
	v.SetDefault("hunter.timeout_secs", 15)

	v.SetDefault("apollo.base_url", "https://api.apollo.io/v1")
	v.SetDefault("apollo.rate_limit", 1)
	v.SetDefault("apollo.burst", 2)
	v.SetDefault("apollo.monthly_quota", 1000)
	v.SetDefault("apollo.timeout_secs", 15)

	v.SetDefault("enrich.chunk_size", 2)
	v.SetDefault("enrich.cooldown_secs", 3)
	v.SetDefault("enrich.retry_attempts", 2)
	v.SetDefault("enrich.retry_backoff_ms", 250)
	v.SetDefault("enrich.circuit_threshold", 5)
	v.SetDefault("enrich.circuit_reset_secs", 30)
	v.SetDefault("enrich.hunter_min_confidence", 50)
	v.SetDefault("enrich.contact_limit", 10)

	v.SetDefault("tracking.rate_limit", 20)
	v.SetDefault("tracking.burst", 40)
	v.SetDefault("tracking.recent_hours", 24)

	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.quota_alert_fraction", 0.8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks for settings the service cannot run without and returns the
// names of provider keys that are missing. Missing keys only disable the
// matching enrichment source.
func (c *Config) Validate() (missing []string, err error) {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return nil, eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if c.Enrich.ChunkSize <= 0 {
		return nil, eris.New("config: enrich.chunk_size must be positive")
	}
	if c.Enrich.CooldownSecs < 0 {
		return nil, eris.New("config: enrich.cooldown_secs must not be negative")
	}
	if f := c.Monitoring.QuotaAlertFraction; f < 0 || f > 1 {
		return nil, eris.Errorf("config: monitoring.quota_alert_fraction %v outside [0, 1]", f)
	}

	for name, p := range map[string]ProviderConfig{
		"VISITOR_IPINFO_KEY": c.IPInfo,
		"VISITOR_PDL_KEY":    c.PDL,
		"VISITOR_HUNTER_KEY": c.Hunter,
		"VISITOR_APOLLO_KEY": c.Apollo,
	} {
		if p.Key == "" {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
