// internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SourceLive = "live"
	SourceDemo = "demo"

	AvgOrderTruncate = "truncate"
	AvgOrderRound    = "round"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Metrics  MetricsConfig
	Sync     SyncConfig
	Notion   NotionConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Drive    DriveConfig
	AI       AIConfig
	Server   ServerConfig
	Market   MarketplaceConfig
}

type AppConfig struct {
	Debug        bool
	LogLevel     string
	DataSource   string
	ArtifactPath string
	HistoryDir   string
}

type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

type MetricsConfig struct {
	WindowDays     int
	AvgOrderPolicy string
}

type SyncConfig struct {
	SinkTimeout  time.Duration
	SinkParallel bool
	SinkLimit    int
	BatchPace    time.Duration
}

type NotionConfig struct {
	Token      string
	DatabaseID string
	APIBase    string
	Version    string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

type AIConfig struct {
	GeminiAPIKey string
	Model        string
	// Timeout bounds one recommendation request.
	Timeout time.Duration
}

type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// MarketplaceConfig only records whether marketplace credentials exist;
// the connectors themselves are not part of this service.
type MarketplaceConfig struct {
	AmazonClientID       string
	RakutenServiceSecret string
}

// Load reads .env (when present) and the process environment into a new
// Config. Each call returns an independent value.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Debug:        v.GetBool("DEBUG_MODE"),
			LogLevel:     v.GetString("LOG_LEVEL"),
			DataSource:   strings.ToLower(v.GetString("DATA_SOURCE")),
			ArtifactPath: v.GetString("ARTIFACT_PATH"),
			HistoryDir:   v.GetString("HISTORY_DIR"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			URL:    v.GetString("DATABASE_URL"),
		},
		Metrics: MetricsConfig{
			WindowDays:     v.GetInt("WINDOW_DAYS"),
			AvgOrderPolicy: strings.ToLower(v.GetString("AVG_ORDER_POLICY")),
		},
		Sync: SyncConfig{
			SinkTimeout:  time.Duration(v.GetInt("SINK_TIMEOUT_SECONDS")) * time.Second,
			SinkParallel: v.GetBool("SINK_PARALLEL"),
			SinkLimit:    v.GetInt("SINK_PARALLEL_LIMIT"),
			BatchPace:    time.Duration(v.GetInt("BATCH_PACE_MS")) * time.Millisecond,
		},
		Notion: NotionConfig{
			Token:      v.GetString("NOTION_TOKEN"),
			DatabaseID: v.GetString("NOTION_DATABASE_ID"),
			APIBase:    strings.TrimRight(v.GetString("NOTION_API_BASE"), "/"),
			Version:    v.GetString("NOTION_VERSION"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
			Prefix:    strings.Trim(v.GetString("S3_PREFIX"), "/"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			ReportTTLSeconds: v.GetInt("CACHE_REPORT_TTL_SECONDS"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("GOOGLE_DRIVE_FOLDER_ID"),
		},
		AI: AIConfig{
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
			Model:        v.GetString("GEMINI_MODEL"),
			Timeout:      time.Duration(v.GetInt("INSIGHTS_TIMEOUT_SECONDS")) * time.Second,
		},
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Market: MarketplaceConfig{
			AmazonClientID:       v.GetString("AMAZON_CLIENT_ID"),
			RakutenServiceSecret: v.GetString("RAKUTEN_SERVICE_SECRET"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DEBUG_MODE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_SOURCE", SourceLive)
	v.SetDefault("ARTIFACT_PATH", filepath.Join("dashboard", "data.json"))
	v.SetDefault("HISTORY_DIR", filepath.Join("dashboard", "history"))
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DATABASE_PATH", "./data/ec_automation.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("WINDOW_DAYS", 7)
	v.SetDefault("AVG_ORDER_POLICY", AvgOrderTruncate)
	v.SetDefault("SINK_TIMEOUT_SECONDS", 15)
	v.SetDefault("SINK_PARALLEL", false)
	v.SetDefault("SINK_PARALLEL_LIMIT", 4)
	v.SetDefault("BATCH_PACE_MS", 1000)
	v.SetDefault("NOTION_API_BASE", "https://api.notion.com/v1")
	v.SetDefault("NOTION_VERSION", "2022-06-28")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("S3_PREFIX", "dashboard")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_REPORT_TTL_SECONDS", 86400)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("INSIGHTS_TIMEOUT_SECONDS", 30)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 10)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "")
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.App.DataSource {
	case SourceLive, SourceDemo:
	default:
		return fmt.Errorf("config: unknown DATA_SOURCE %q", c.App.DataSource)
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres", "pgx":
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Metrics.AvgOrderPolicy {
	case AvgOrderTruncate, AvgOrderRound:
	default:
		return fmt.Errorf("config: unknown AVG_ORDER_POLICY %q", c.Metrics.AvgOrderPolicy)
	}
	if c.Metrics.WindowDays < 1 {
		return fmt.Errorf("config: WINDOW_DAYS must be >= 1, got %d", c.Metrics.WindowDays)
	}
	if c.Sync.SinkTimeout <= 0 {
		return fmt.Errorf("config: SINK_TIMEOUT_SECONDS must be > 0")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("config: INSIGHTS_TIMEOUT_SECONDS must be > 0")
	}
	if c.Sync.BatchPace < 0 {
		return fmt.Errorf("config: BATCH_PACE_MS must be >= 0")
	}
	return nil
}

func (c NotionConfig) Configured() bool {
	return c.Token != "" && c.DatabaseID != ""
}

func (c StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

func (c CacheConfig) Configured() bool {
	return c.Enabled
}

func (c DriveConfig) Configured() bool {
	return c.CredentialsJSON != "" && c.FolderID != ""
}

func (c AIConfig) Configured() bool {
	return c.GeminiAPIKey != ""
}

// Redacted returns a printable view of the configuration with every secret
// replaced by "set" or "unset".
func (c *Config) Redacted() map[string]string {
	return map[string]string{
		"DEBUG_MODE":                    fmt.Sprintf("%t", c.App.Debug),
		"LOG_LEVEL":                     c.App.LogLevel,
		"DATA_SOURCE":                   c.App.DataSource,
		"DB_DRIVER":                     c.Database.Driver,
		"DATABASE_PATH":                 mask(c.Database.Path),
		"DATABASE_URL":                  mask(c.Database.URL),
		"ARTIFACT_PATH":                 c.App.ArtifactPath,
		"NOTION_TOKEN":                  mask(c.Notion.Token),
		"NOTION_DATABASE_ID":            mask(c.Notion.DatabaseID),
		"S3_ACCESS_KEY":                 mask(c.Storage.AccessKey),
		"S3_SECRET_KEY":                 mask(c.Storage.SecretKey),
		"REDIS_PASSWORD":                mask(c.Cache.RedisPassword),
		"GOOGLE_DRIVE_CREDENTIALS_JSON": mask(c.Drive.CredentialsJSON),
		"GEMINI_API_KEY":                mask(c.AI.GeminiAPIKey),
		"AMAZON_CLIENT_ID":              mask(c.Market.AmazonClientID),
		"RAKUTEN_SERVICE_SECRET":        mask(c.Market.RakutenServiceSecret),
	}
}

func mask(s string) string {
	if s == "" {
		return "unset"
	}
	return "set"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
