package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "SUMMARIZER_CONFIG"

	logLevelEnv          = "LOG_LEVEL"
	sourceKindEnv        = "SOURCE_KIND"
	replayPathEnv        = "REPLAY_PATH"
	storeKindEnv         = "STORE_KIND"
	discordTokenEnv      = "DISCORD_TOKEN"
	discordChannelEnv    = "DISCORD_CHANNEL_ID"
	allowedBotsEnv       = "ALLOWED_BOT_AUTHORS"
	windowMinutesEnv     = "FETCH_WINDOW_MINUTES"
	maxItemsEnv          = "MAX_ITEMS"
	generationProvEnv    = "GENERATION_PROVIDER"
	generationModelEnv   = "GENERATION_MODEL"
	geminiAPIKeyEnv      = "GEMINI_API_KEY"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	openAIBaseURLEnv     = "OPENAI_BASE_URL"
	driveRootEnv         = "DRIVE_ROOT_FOLDER_ID"
	googleClientIDEnv    = "GOOGLE_CLIENT_ID"
	googleClientSecEnv   = "GOOGLE_CLIENT_SECRET"
	googleRefreshEnv     = "GOOGLE_REFRESH_TOKEN"
	googleCredsFileEnv   = "GOOGLE_APPLICATION_CREDENTIALS"
	partitionTZEnv       = "PARTITION_TIMEZONE"
	notifySinkEnv        = "NOTIFY_SINK"
	discordWebhookEnv    = "DISCORD_WEBHOOK_URL"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
	scheduleCronEnv      = "SCHEDULE_CRON"
	defaultPreamble      = "You are a helpful assistant that summarizes X posts. Analyze the intent and content. Output in Markdown."
	defaultMarkerKey     = "discord_message_id"
	defaultDisplayName   = "X generate"
	defaultGeminiModel   = "gemini-2.5-flash-lite"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOutputLang    = "Japanese"
	defaultWindowMinutes = 15
	defaultMaxItems      = 50
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Source        SourceConfig       `yaml:"source"`
	Generation    GenerationConfig   `yaml:"generation"`
	Store         StoreConfig        `yaml:"store"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes where posts are read from and how many.
type SourceConfig struct {
	Kind              string        `yaml:"kind"`
	WindowMinutes     int           `yaml:"windowMinutes"`
	MaxItems          int           `yaml:"maxItems"`
	AllowedBotAuthors []string      `yaml:"allowedBotAuthors"`
	Discord           DiscordConfig `yaml:"discord"`
	Replay            ReplayConfig  `yaml:"replay"`
}

// Window returns the fetch lookback as a duration.
func (s SourceConfig) Window() time.Duration {
	return time.Duration(s.WindowMinutes) * time.Minute
}

// DiscordConfig carries the bot credential and channel to read.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channelId"`
}

// ReplayConfig points at a JSON-lines file of raw items.
type ReplayConfig struct {
	Path string `yaml:"path"`
}

// GenerationConfig defines how to contact the text-generation service.
type GenerationConfig struct {
	Provider          string `yaml:"provider"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"apiKey"`
	Endpoint          string `yaml:"endpoint"`
	Language          string `yaml:"language"`
	Preamble          string `yaml:"preamble"`
	PreamblePath      string `yaml:"preamblePath"`
	RequestsPerMinute int    `yaml:"requestsPerMinute"`
	TimeoutSeconds    int    `yaml:"timeoutSeconds"`
}

// Timeout bounds a single generation call.
func (g GenerationConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// StoreConfig describes the destination folder tree.
type StoreConfig struct {
	Kind         string         `yaml:"kind"`
	RootFolderID string         `yaml:"rootFolderId"`
	MarkerKey    string         `yaml:"markerKey"`
	Timezone     string         `yaml:"timezone"`
	Drive        DriveConfig    `yaml:"drive"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the partition timezone string to a time.Location.
func (s StoreConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// DriveConfig holds Google credentials. A refresh token wins over a credentials file.
type DriveConfig struct {
	ClientID        string `yaml:"clientId"`
	ClientSecret    string `yaml:"clientSecret"`
	RefreshToken    string `yaml:"refreshToken"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Sink        string         `yaml:"sink"`
	DisplayName string         `yaml:"displayName"`
	Discord     WebhookConfig  `yaml:"discord"`
	Telegram    TelegramConfig `yaml:"telegram"`
}

// WebhookConfig is a Discord incoming webhook.
type WebhookConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines when the recurring mode runs the pipeline.
type SchedulerConfig struct {
	CronExpression string `yaml:"cronExpression"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// path wins over SUMMARIZER_CONFIG when non-empty.
func Load(path string) Config {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot read .env: %v", err)
	}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
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
	cfg.resolveModel()
	cfg.loadPreamble()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Logging.Level, logLevelEnv)

	setString(&c.Source.Kind, sourceKindEnv)
	setString(&c.Source.Replay.Path, replayPathEnv)
	setString(&c.Source.Discord.Token, discordTokenEnv)
	setString(&c.Source.Discord.ChannelID, discordChannelEnv)
	setInt(&c.Source.WindowMinutes, windowMinutesEnv)
	setInt(&c.Source.MaxItems, maxItemsEnv)
	if v := os.Getenv(allowedBotsEnv); v != "" {
		c.Source.AllowedBotAuthors = splitList(v)
	}

	setString(&c.Generation.Provider, generationProvEnv)
	setString(&c.Generation.Model, generationModelEnv)
	switch c.Generation.Provider {
	case "openai":
		setString(&c.Generation.APIKey, openAIAPIKeyEnv)
		setString(&c.Generation.Endpoint, openAIBaseURLEnv)
	default:
		setString(&c.Generation.APIKey, geminiAPIKeyEnv)
	}

	setString(&c.Store.Kind, storeKindEnv)
	setString(&c.Store.RootFolderID, driveRootEnv)
	setString(&c.Store.Timezone, partitionTZEnv)
	setString(&c.Store.Drive.ClientID, googleClientIDEnv)
	setString(&c.Store.Drive.ClientSecret, googleClientSecEnv)
	setString(&c.Store.Drive.RefreshToken, googleRefreshEnv)
	setString(&c.Store.Drive.CredentialsFile, googleCredsFileEnv)

	setString(&c.Notifications.Sink, notifySinkEnv)
	setString(&c.Notifications.Discord.WebhookURL, discordWebhookEnv)
	setString(&c.Notifications.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Notifications.Telegram.ChatID, telegramChatIDEnv)

	setString(&c.Scheduler.CronExpression, scheduleCronEnv)
}

func (c *Config) resolveModel() {
	if c.Generation.Provider == "openai" && (c.Generation.Model == "" || c.Generation.Model == defaultGeminiModel) {
		c.Generation.Model = defaultOpenAIModel
	}
	if c.Generation.Model == "" {
		c.Generation.Model = defaultGeminiModel
	}
}

func (c *Config) loadPreamble() {
	if c.Generation.PreamblePath == "" {
		return
	}
	raw, err := os.ReadFile(c.Generation.PreamblePath)
	if err != nil {
		log.Printf("config: cannot read preamble %s: %v (keeping inline preamble)", c.Generation.PreamblePath, err)
		return
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		c.Generation.Preamble = text
	}
}

func (c *Config) bindTimezone() {
	tz := c.Store.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc = time.UTC
	}
	c.Store.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Source.Kind != "" {
		base.Source.Kind = override.Source.Kind
	}
	if override.Source.WindowMinutes > 0 {
		base.Source.WindowMinutes = override.Source.WindowMinutes
	}
	if override.Source.MaxItems > 0 {
		base.Source.MaxItems = override.Source.MaxItems
	}
	if override.Source.AllowedBotAuthors != nil {
		base.Source.AllowedBotAuthors = override.Source.AllowedBotAuthors
	}
	if override.Source.Discord.Token != "" {
		base.Source.Discord.Token = override.Source.Discord.Token
	}
	if override.Source.Discord.ChannelID != "" {
		base.Source.Discord.ChannelID = override.Source.Discord.ChannelID
	}
	if override.Source.Replay.Path != "" {
		base.Source.Replay.Path = override.Source.Replay.Path
	}

	if override.Generation.Provider != "" {
		base.Generation.Provider = override.Generation.Provider
	}
	if override.Generation.Model != "" {
		base.Generation.Model = override.Generation.Model
	}
	if override.Generation.APIKey != "" {
		base.Generation.APIKey = override.Generation.APIKey
	}
	if override.Generation.Endpoint != "" {
		base.Generation.Endpoint = override.Generation.Endpoint
	}
	if override.Generation.Language != "" {
		base.Generation.Language = override.Generation.Language
	}
	if override.Generation.Preamble != "" {
		base.Generation.Preamble = override.Generation.Preamble
	}
	if override.Generation.PreamblePath != "" {
		base.Generation.PreamblePath = override.Generation.PreamblePath
	}
	if override.Generation.RequestsPerMinute > 0 {
		base.Generation.RequestsPerMinute = override.Generation.RequestsPerMinute
	}
	if override.Generation.TimeoutSeconds > 0 {
		base.Generation.TimeoutSeconds = override.Generation.TimeoutSeconds
	}

	if override.Store.Kind != "" {
		base.Store.Kind = override.Store.Kind
	}
	if override.Store.RootFolderID != "" {
		base.Store.RootFolderID = override.Store.RootFolderID
	}
	if override.Store.MarkerKey != "" {
		base.Store.MarkerKey = override.Store.MarkerKey
	}
	if override.Store.Timezone != "" {
		base.Store.Timezone = override.Store.Timezone
	}
	if override.Store.Drive != (DriveConfig{}) {
		base.Store.Drive = override.Store.Drive
	}

	if override.Notifications.Sink != "" {
		base.Notifications.Sink = override.Notifications.Sink
	}
	if override.Notifications.DisplayName != "" {
		base.Notifications.DisplayName = override.Notifications.DisplayName
	}
	if override.Notifications.Discord.WebhookURL != "" {
		base.Notifications.Discord.WebhookURL = override.Notifications.Discord.WebhookURL
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Source: SourceConfig{
			Kind:              "discord",
			WindowMinutes:     defaultWindowMinutes,
			MaxItems:          defaultMaxItems,
			AllowedBotAuthors: []string{"post"},
		},
		Generation: GenerationConfig{
			Provider:       "gemini",
			Model:          defaultGeminiModel,
			Language:       defaultOutputLang,
			Preamble:       defaultPreamble,
			TimeoutSeconds: 60,
		},
		Store: StoreConfig{
			Kind:      "drive",
			MarkerKey: defaultMarkerKey,
			Timezone:  defaultTimezone,
			location:  time.UTC,
		},
		Notifications: NotificationConfig{
			Sink:        "discord",
			DisplayName: defaultDisplayName,
		},
		Scheduler: SchedulerConfig{CronExpression: "*/15 * * * *"},
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		log.Printf("config: ignoring %s=%q: want a positive integer", env, v)
		return
	}
	*dst = n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
