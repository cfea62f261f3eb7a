package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "NEWS_PLANNER_CONFIG"
	databasePathEnv  = "DATABASE_PATH"
	llmAPIKeyEnv     = "LLM_API_KEY"
	llmModelEnv      = "LLM_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHANNEL_ID"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Feeds      []FeedConfig     `yaml:"feeds"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	LLM        LLMConfig        `yaml:"llm"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Moderation ModerationConfig `yaml:"moderation"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig describes the embedded SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines when pipeline jobs run.
type SchedulerConfig struct {
	IngestCron   string         `yaml:"ingestCron"`
	PublishCron  string         `yaml:"publishCron"`
	MaintainCron string         `yaml:"maintainCron"`
	MonitorCron  string         `yaml:"monitorCron"`
	SummaryCron  string         `yaml:"summaryCron"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FeedConfig names a single RSS/Atom source.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// PipelineConfig tunes a single ingestion/publication cycle.
type PipelineConfig struct {
	LookBackHours  int      `yaml:"lookBackHours"`
	MaxPostsPerRun int      `yaml:"maxPostsPerRun"`
	Slots          []string `yaml:"slots"`
	Rubrics        []string `yaml:"rubrics"`
	RetentionDays  int      `yaml:"retentionDays"`
	ImageCacheDir  string   `yaml:"imageCacheDir"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken  string `yaml:"botToken"`
	ChannelID string `yaml:"channelId"`
}

// LLMConfig defines how to contact the text-generation API.
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// DedupConfig tunes the duplicate detector.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	NGramSize           int     `yaml:"ngramSize"`
	MaxHistory          int     `yaml:"maxHistory"`
	SeedDays            int     `yaml:"seedDays"`
}

// ModerationConfig toggles the approval workflow.
type ModerationConfig struct {
	Enabled         bool `yaml:"enabled"`
	AutoRejectHours int  `yaml:"autoRejectHours"`
}

// MonitoringConfig tunes health-check thresholds.
type MonitoringConfig struct {
	BufferCritical   int     `yaml:"bufferCritical"`
	BufferWarning    int     `yaml:"bufferWarning"`
	RejectionRateMax float64 `yaml:"rejectionRateMax"`
	DailyTarget      int     `yaml:"dailyTarget"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Telegram.ChannelID = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.IngestCron != "" {
		base.Scheduler.IngestCron = override.Scheduler.IngestCron
	}
	if override.Scheduler.PublishCron != "" {
		base.Scheduler.PublishCron = override.Scheduler.PublishCron
	}
	if override.Scheduler.MaintainCron != "" {
		base.Scheduler.MaintainCron = override.Scheduler.MaintainCron
	}
	if override.Scheduler.MonitorCron != "" {
		base.Scheduler.MonitorCron = override.Scheduler.MonitorCron
	}
	if override.Scheduler.SummaryCron != "" {
		base.Scheduler.SummaryCron = override.Scheduler.SummaryCron
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if override.Pipeline.LookBackHours > 0 {
		base.Pipeline.LookBackHours = override.Pipeline.LookBackHours
	}
	if override.Pipeline.MaxPostsPerRun > 0 {
		base.Pipeline.MaxPostsPerRun = override.Pipeline.MaxPostsPerRun
	}
	if len(override.Pipeline.Slots) > 0 {
		base.Pipeline.Slots = override.Pipeline.Slots
	}
	if len(override.Pipeline.Rubrics) > 0 {
		base.Pipeline.Rubrics = override.Pipeline.Rubrics
	}
	if override.Pipeline.RetentionDays > 0 {
		base.Pipeline.RetentionDays = override.Pipeline.RetentionDays
	}
	if override.Pipeline.ImageCacheDir != "" {
		base.Pipeline.ImageCacheDir = override.Pipeline.ImageCacheDir
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChannelID != "" {
		base.Telegram.ChannelID = override.Telegram.ChannelID
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}

	if override.Dedup.SimilarityThreshold > 0 {
		base.Dedup.SimilarityThreshold = override.Dedup.SimilarityThreshold
	}
	if override.Dedup.NGramSize > 0 {
		base.Dedup.NGramSize = override.Dedup.NGramSize
	}
	if override.Dedup.MaxHistory > 0 {
		base.Dedup.MaxHistory = override.Dedup.MaxHistory
	}
	if override.Dedup.SeedDays > 0 {
		base.Dedup.SeedDays = override.Dedup.SeedDays
	}

	if override.Moderation.Enabled {
		base.Moderation.Enabled = true
	}
	if override.Moderation.AutoRejectHours > 0 {
		base.Moderation.AutoRejectHours = override.Moderation.AutoRejectHours
	}

	if override.Monitoring.BufferCritical > 0 {
		base.Monitoring.BufferCritical = override.Monitoring.BufferCritical
	}
	if override.Monitoring.BufferWarning > 0 {
		base.Monitoring.BufferWarning = override.Monitoring.BufferWarning
	}
	if override.Monitoring.RejectionRateMax > 0 {
		base.Monitoring.RejectionRateMax = override.Monitoring.RejectionRateMax
	}
	if override.Monitoring.DailyTarget > 0 {
		base.Monitoring.DailyTarget = override.Monitoring.DailyTarget
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Path: "data/newsplanner.db"},
		Scheduler: SchedulerConfig{
			IngestCron:   "0 7 * * *",
			PublishCron:  "*/5 * * * *",
			MaintainCron: "30 3 * * *",
			MonitorCron:  "0 */2 * * *",
			SummaryCron:  "55 23 * * *",
			Timezone:     defaultTimezone,
			location:     tz,
		},
		Feeds: []FeedConfig{
			{Name: "techcrunch-ai", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
			{Name: "venturebeat-ai", URL: "https://venturebeat.com/category/ai/feed/"},
		},
		Pipeline: PipelineConfig{
			LookBackHours:  24,
			MaxPostsPerRun: 5,
			Slots:          []string{"09:00", "12:00", "15:00", "18:00", "21:00"},
			RetentionDays:  30,
			ImageCacheDir:  "data/images",
		},
		LLM: LLMConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   900,
		},
		Dedup: DedupConfig{
			SimilarityThreshold: 0.65,
			NGramSize:           3,
			MaxHistory:          10000,
			SeedDays:            7,
		},
		Moderation: ModerationConfig{Enabled: false, AutoRejectHours: 48},
		Monitoring: MonitoringConfig{
			BufferCritical:   5,
			BufferWarning:    10,
			RejectionRateMax: 0.85,
			DailyTarget:      5,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
