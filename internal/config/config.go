package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOptionLimit = 10
	minOptionLimit     = 2
	maxOptionLimit     = 10
	countdownLayout    = "2006-01-02 15:04"
	countdownDayLayout = "2006-01-02"

	// MaxPollTimeout caps the getUpdates wait.
	MaxPollTimeout = 50 * time.Second
)

// Config is read from YAML; fields with an env tag, plus LOG_LEVEL, TZ_NAME
// and PHONE_NUMBER, can be overridden by the environment.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Telegram struct {
		Token       string `yaml:"token" env:"TELEGRAM_TOKEN"`
		BotName     string `yaml:"bot_name" env:"TELEGRAM_BOT_NAME"`
		APIURL      string `yaml:"api_url" env:"TELEGRAM_API_URL"`
		PollTimeout string `yaml:"poll_timeout"`
	} `yaml:"telegram"`
	Chats struct {
		Admin  int64   `yaml:"admin" env:"ADMIN_CHAT_ID"`
		Scored []int64 `yaml:"scored" env:"SCORE_CHATS"`
	} `yaml:"chats"`
	Quiz struct {
		OptionLimit      int    `yaml:"option_limit" env:"QUIZ_OPTION_LIMIT"`
		ShuffleSmallPool bool   `yaml:"shuffle_small_pool"`
		TagPattern       string `yaml:"tag_pattern"`
	} `yaml:"quiz"`
	Data struct {
		Corpus       string      `yaml:"corpus"`
		Participants string      `yaml:"participants"`
		Birthdays    string      `yaml:"birthdays"`
		HelpTexts    string      `yaml:"help_texts"`
		Quotes       []QuoteFile `yaml:"quotes"`
		LineCacheTTL string      `yaml:"line_cache_ttl"`
	} `yaml:"data"`
	Countdowns  []Countdown `yaml:"countdowns"`
	Timezone    string      `yaml:"timezone"`
	PhoneNumber string      `yaml:"phone_number"`
	Ledger      struct {
		Backend string `yaml:"backend" env:"LEDGER_BACKEND"`
		Path    string `yaml:"path" env:"LEDGER_PATH"`
		Key     string `yaml:"key"`
	} `yaml:"ledger"`
	Sessions struct {
		Backend string `yaml:"backend" env:"SESSION_BACKEND"`
		Prefix  string `yaml:"prefix"`
	} `yaml:"sessions"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path" env:"SQLITE_PATH"`
	} `yaml:"sqlite"`
	Server struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"server"`
}

// QuoteFile serves random lines of Path under /Command.
type QuoteFile struct {
	Command    string `yaml:"command"`
	Path       string `yaml:"path"`
	Capitalize bool   `yaml:"capitalize"`
}

// Countdown answers /Command with the time left until Date, read as
// "2006-01-02" or "2006-01-02 15:04" in the configured timezone.
type Countdown struct {
	Command string `yaml:"command"`
	Date    string `yaml:"date"`
}

// Load reads YAML config from path, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv parses overrides section by section; list sections such as
// countdowns and quotes only come from the file.
func (c *Config) applyEnv() error {
	top := struct {
		LogLevel    string `env:"LOG_LEVEL"`
		Timezone    string `env:"TZ_NAME"`
		PhoneNumber string `env:"PHONE_NUMBER"`
	}{c.LogLevel, c.Timezone, c.PhoneNumber}
	if err := env.Parse(&top); err != nil {
		return err
	}
	c.LogLevel, c.Timezone, c.PhoneNumber = top.LogLevel, top.Timezone, top.PhoneNumber

	sections := []any{&c.Telegram, &c.Chats, &c.Quiz, &c.Ledger, &c.Sessions, &c.Redis, &c.Postgres, &c.SQLite, &c.Server}
	for _, section := range sections {
		if err := env.Parse(section); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Quiz.OptionLimit == 0 {
		c.Quiz.OptionLimit = DefaultOptionLimit
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "file"
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "stats.json"
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "memory"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Zurich"
	}
	if c.Telegram.PollTimeout == "" {
		c.Telegram.PollTimeout = "25s"
	}
}

// Validate checks the settings every command relies on. The bot token is
// checked by the start command only.
func (c Config) Validate() error {
	if c.Quiz.OptionLimit < minOptionLimit || c.Quiz.OptionLimit > maxOptionLimit {
		return fmt.Errorf("quiz.option_limit must be between %d and %d, got %d", minOptionLimit, maxOptionLimit, c.Quiz.OptionLimit)
	}
	switch c.Ledger.Backend {
	case "file", "memory", "sqlite":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("ledger backend redis needs redis.addr")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("ledger backend postgres needs postgres.url")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	switch c.Sessions.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("session backend redis needs redis.addr")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Sessions.Backend)
	}
	if c.Telegram.PollTimeout != "" {
		d, err := time.ParseDuration(c.Telegram.PollTimeout)
		if err != nil {
			return fmt.Errorf("telegram.poll_timeout: %w", err)
		}
		if d <= 0 || d > MaxPollTimeout {
			return fmt.Errorf("telegram.poll_timeout must be in (0, %s], got %s", MaxPollTimeout, d)
		}
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}
	if _, err := c.CountdownTargets(loc); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CountdownTargets resolves every countdown date in loc.
func (c Config) CountdownTargets(loc *time.Location) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(c.Countdowns))
	for _, cd := range c.Countdowns {
		if cd.Command == "" {
			return nil, fmt.Errorf("countdown %q has no command", cd.Date)
		}
		t, err := time.ParseInLocation(countdownLayout, cd.Date, loc)
		if err != nil {
			t, err = time.ParseInLocation(countdownDayLayout, cd.Date, loc)
		}
		if err != nil {
			return nil, fmt.Errorf("countdown %s: %w", cd.Command, err)
		}
		out[cd.Command] = t
	}
	return out, nil
}

// Level parses log_level; empty means info.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
