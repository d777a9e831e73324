package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "HN_DIGEST_CONFIG"
	stateDriverEnv    = "HN_DIGEST_STATE_DRIVER"
	logLevelEnv       = "LOG_LEVEL"
	feedBaseURLEnv    = "FEED_BASE_URL"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	openAIBaseURLEnv  = "OPENAI_BASE_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	// DriverJSON stores state in a JSON document.
	DriverJSON = "json"
	// DriverSQLite stores state in an SQLite database.
	DriverSQLite = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Sources       []SourceConfig     `yaml:"sources"`
	State         StateConfig        `yaml:"state"`
	History       HistoryConfig      `yaml:"history"`
	Feed          FeedConfig         `yaml:"feed"`
	Enrichment    EnrichmentConfig   `yaml:"enrichment"`
	OpenAI        OpenAIConfig       `yaml:"openai"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig selects the log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the batch should run in serve mode.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SourceConfig describes one ranked stream and its crossing policy.
type SourceConfig struct {
	Slug              string            `yaml:"slug"`
	Name              string            `yaml:"name"`
	Scanner           string            `yaml:"scanner"`
	APIURL            string            `yaml:"apiUrl"`
	SiteURL           string            `yaml:"siteUrl"`
	FeedTitle         string            `yaml:"feedTitle"`
	WindowSize        int               `yaml:"windowSize"`
	Threshold         int               `yaml:"threshold"`
	MaxCandidates     int               `yaml:"maxCandidates"`
	RequestsPerSecond float64           `yaml:"requestsPerSecond"`
	Options           map[string]string `yaml:"options"`
}

// Title is the feed title; it defaults to one naming the source and threshold.
func (s SourceConfig) Title() string {
	if s.FeedTitle != "" {
		return s.FeedTitle
	}
	return fmt.Sprintf("News digest bot (%s %d+ points)", s.Name, s.Threshold)
}

// StateConfig selects the state backend and its root directory.
type StateConfig struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
}

// HistoryConfig bounds the retained feed history.
type HistoryConfig struct {
	MaxEntries int `yaml:"maxEntries"`
}

// FeedConfig controls page output and publication.
type FeedConfig struct {
	OutDir    string `yaml:"outDir"`
	PublicDir string `yaml:"publicDir"`
	PageSize  int    `yaml:"pageSize"`
	BaseURL   string `yaml:"baseUrl"`
	IDPrefix  string `yaml:"idPrefix"`
}

// EnrichmentConfig tunes concurrency and extraction limits.
type EnrichmentConfig struct {
	Workers          int           `yaml:"workers"`
	ScanWorkers      int           `yaml:"scanWorkers"`
	ArticleCharLimit int           `yaml:"articleCharLimit"`
	ThreadCharLimit  int           `yaml:"threadCharLimit"`
	HTTPTimeout      time.Duration `yaml:"httpTimeout"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// MetricsConfig points at a node-exporter textfile; empty disables output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to HN_DIGEST_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := defaultConfig()
			fileCfg.Sources = nil
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindTimezone()

	return cfg
}

// StatePath is where the state of src lives for the configured driver.
func (c Config) StatePath(src SourceConfig) string {
	name := "state.json"
	if c.State.Driver == DriverSQLite {
		name = "state.db"
	}
	return filepath.Join(c.State.Dir, src.Slug, name)
}

// OutDir is where the pages of src are generated.
func (c Config) OutDir(src SourceConfig) string {
	return filepath.Join(c.Feed.OutDir, src.Slug)
}

// BaseURL is the public URL prefix of src pages, empty when none is configured.
func (c Config) BaseURL(src SourceConfig) string {
	base := strings.TrimRight(c.Feed.BaseURL, "/")
	if base == "" {
		return ""
	}
	return base + "/" + src.Slug
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(stateDriverEnv); v != "" {
		c.State.Driver = v
	}

	if v := os.Getenv(feedBaseURLEnv); v != "" {
		c.Feed.BaseURL = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.OpenAI.BaseURL = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

// normalize fills zero values left by a partial file with defaults.
func (c *Config) normalize() {
	def := defaultConfig()

	if len(c.Sources) == 0 {
		c.Sources = def.Sources
	}
	for i := range c.Sources {
		c.Sources[i] = mergeSource(defaultSource(), c.Sources[i])
	}

	c.State.Driver = strings.ToLower(strings.TrimSpace(c.State.Driver))
	if c.State.Driver != DriverSQLite && c.State.Driver != DriverJSON {
		if c.State.Driver != "" {
			log.Printf("config: unknown state driver %q, reverting to %s", c.State.Driver, DriverJSON)
		}
		c.State.Driver = DriverJSON
	}
	if c.State.Dir == "" {
		c.State.Dir = def.State.Dir
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = def.History.MaxEntries
	}
	if c.Feed.OutDir == "" {
		c.Feed.OutDir = def.Feed.OutDir
	}
	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = def.Feed.PageSize
	}
	if c.Feed.IDPrefix == "" {
		c.Feed.IDPrefix = def.Feed.IDPrefix
	}
	if c.Enrichment.Workers <= 0 {
		c.Enrichment.Workers = def.Enrichment.Workers
	}
	if c.Enrichment.ScanWorkers <= 0 {
		c.Enrichment.ScanWorkers = def.Enrichment.ScanWorkers
	}
	if c.Enrichment.ArticleCharLimit <= 0 {
		c.Enrichment.ArticleCharLimit = def.Enrichment.ArticleCharLimit
	}
	if c.Enrichment.ThreadCharLimit <= 0 {
		c.Enrichment.ThreadCharLimit = def.Enrichment.ThreadCharLimit
	}
	if c.Enrichment.HTTPTimeout <= 0 {
		c.Enrichment.HTTPTimeout = def.Enrichment.HTTPTimeout
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = def.OpenAI.Model
	}
	if c.Scheduler.CronExpression == "" {
		c.Scheduler.CronExpression = def.Scheduler.CronExpression
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

func mergeSource(base, override SourceConfig) SourceConfig {
	if override.Slug != "" {
		base.Slug = override.Slug
	}
	if override.Name != "" {
		base.Name = override.Name
	}
	if override.Scanner != "" {
		base.Scanner = override.Scanner
	}
	if override.APIURL != "" {
		base.APIURL = override.APIURL
	}
	if override.SiteURL != "" {
		base.SiteURL = override.SiteURL
	}
	if override.FeedTitle != "" {
		base.FeedTitle = override.FeedTitle
	}
	if override.WindowSize > 0 {
		base.WindowSize = override.WindowSize
	}
	if override.Threshold > 0 {
		base.Threshold = override.Threshold
	}
	if override.MaxCandidates > 0 {
		base.MaxCandidates = override.MaxCandidates
	}
	if override.RequestsPerSecond > 0 {
		base.RequestsPerSecond = override.RequestsPerSecond
	}
	if len(override.Options) > 0 {
		base.Options = override.Options
	}
	return base
}

func defaultSource() SourceConfig {
	return SourceConfig{
		Slug:              "hn",
		Name:              "Hacker News",
		Scanner:           "hackernews",
		APIURL:            "https://hacker-news.firebaseio.com",
		SiteURL:           "https://news.ycombinator.com/",
		WindowSize:        500,
		Threshold:         100,
		MaxCandidates:     10,
		RequestsPerSecond: 10,
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{CronExpression: "*/30 * * * *", Timezone: defaultTimezone, location: tz},
		Sources:   []SourceConfig{defaultSource()},
		State:     StateConfig{Driver: DriverJSON, Dir: "state"},
		History:   HistoryConfig{MaxEntries: 200},
		Feed: FeedConfig{
			OutDir:   "out",
			PageSize: 200,
			IDPrefix: "urn:news-digest",
		},
		Enrichment: EnrichmentConfig{
			Workers:          4,
			ScanWorkers:      16,
			ArticleCharLimit: 30_000,
			ThreadCharLimit:  400_000,
			HTTPTimeout:      25 * time.Second,
		},
		OpenAI: OpenAIConfig{Model: "gpt-4.1-mini", Timeout: 90 * time.Second},
	}
}
