package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Portal    PortalConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Sync      SyncConfig
	Artifacts ArtifactsConfig
	DBPath    string
	LogLevel  string
	Debug     bool
}

type PortalConfig struct {
	BaseURL   string
	Username  string
	Password  string
	Handler   string // "browser" or "api"
	Timeout   time.Duration
	Endpoints map[string]string `yaml:"endpoints"`
	Selectors TableSelectors    `yaml:"selectors"`
}

// TableSelectors locate the device-status table in the portal markup.
type TableSelectors struct {
	Table      string `yaml:"table"`
	Row        string `yaml:"row"`
	ReportedAt string `yaml:"reported_at"`
	TimeFormat string `yaml:"time_format"`
}

type DatabaseConfig struct {
	URL string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type SyncConfig struct {
	ActivityThreshold int // min daily delta that counts as activity
	MissingAfterDays  int // unseen days before a deployment is flagged missing
}

type ArtifactsConfig struct {
	Dir      string
	Upload   bool
	Bucket   string
	Region   string
	Endpoint string
	KeyID    string
	Secret   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Portal: PortalConfig{
			BaseURL:  os.Getenv("PORTAL_URL"),
			Username: os.Getenv("PORTAL_USERNAME"),
			Password: os.Getenv("PORTAL_PASSWORD"),
			Handler:  getEnv("PORTAL_HANDLER", "browser"),
			Timeout:  time.Duration(getEnvInt("PORTAL_TIMEOUT_SEC", 300)) * time.Second,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SYNC_CRON"),
		},
		Sync: SyncConfig{
			ActivityThreshold: getEnvInt("ACTIVITY_THRESHOLD", 5),
			MissingAfterDays:  getEnvInt("MISSING_AFTER_DAYS", 3),
		},
		Artifacts: ArtifactsConfig{
			Dir:      getEnv("ARTIFACTS_DIR", "artifacts"),
			Upload:   os.Getenv("ARTIFACTS_UPLOAD") == "true",
			Bucket:   os.Getenv("ARTIFACTS_S3_BUCKET"),
			Region:   getEnv("ARTIFACTS_S3_REGION", "us-east-1"),
			Endpoint: os.Getenv("ARTIFACTS_S3_ENDPOINT"),
			KeyID:    os.Getenv("ARTIFACTS_S3_KEY_ID"),
			Secret:   os.Getenv("ARTIFACTS_S3_SECRET"),
		},
		DBPath:   getEnv("DB_PATH", "camwatch.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Debug:    os.Getenv("DEBUG") == "true",
	}

	if interval := os.Getenv("SYNC_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadPortalConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadPortalConfig reads endpoint paths and table selectors from
// config/portal.yaml when present; defaults cover the stock portal.
func (c *Config) loadPortalConfig() error {
	data, err := os.ReadFile("config/portal.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			c.Portal.applyDefaults()
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, &c.Portal); err != nil {
		return err
	}
	c.Portal.applyDefaults()
	return nil
}

func (p *PortalConfig) applyDefaults() {
	if p.Endpoints == nil {
		p.Endpoints = map[string]string{}
	}
	if p.Endpoints["login"] == "" {
		p.Endpoints["login"] = "/login"
	}
	if p.Endpoints["status"] == "" {
		p.Endpoints["status"] = "/devices/status"
	}
	if p.Selectors.Table == "" {
		p.Selectors.Table = "table.device-status"
	}
	if p.Selectors.Row == "" {
		p.Selectors.Row = "tbody tr"
	}
	if p.Selectors.ReportedAt == "" {
		p.Selectors.ReportedAt = ".report-timestamp"
	}
	if p.Selectors.TimeFormat == "" {
		p.Selectors.TimeFormat = "2006-01-02 15:04"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
