// Package config loads assistant configuration from a YAML file plus
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all assistant settings
type Config struct {
	// BotName is the assistant's persona name used in prompts
	BotName string `yaml:"bot_name"`

	// Persona is the fixed instruction prepended to every reply prompt
	Persona string `yaml:"persona"`

	Gemini   GeminiConfig   `yaml:"gemini"`
	Calendar CalendarConfig `yaml:"calendar"`
	Search   SearchConfig   `yaml:"search"`
	Store    StoreConfig    `yaml:"store"`

	// Timezone for interpreting event dates, e.g. "America/Toronto"
	Timezone string `yaml:"timezone"`

	// TaskTimeoutSec bounds each external call made while executing a task
	TaskTimeoutSec int `yaml:"task_timeout_sec"`
}

// GeminiConfig configures the LLM inference client
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"` // usually left empty, set via GEMINI_API_KEY
}

// CalendarConfig configures the Google Calendar client
type CalendarConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
}

// SearchConfig configures the web search worker endpoints
type SearchConfig struct {
	SearchURL string `yaml:"search_url"`
	FetchURL  string `yaml:"fetch_url"`
}

// StoreConfig configures transcript persistence
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Load reads the config file at path (optional, "" skips the file) and
// applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Secrets and deploy-specific settings come from the environment
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("GOOGLE_CALENDAR_CREDENTIALS_FILE"); v != "" {
		cfg.Calendar.CredentialsFile = v
	}
	if v := os.Getenv("GOOGLE_CALENDAR_ID"); v != "" {
		cfg.Calendar.CalendarID = v
	}
	if v := os.Getenv("WEBSEARCH_URL"); v != "" {
		cfg.Search.SearchURL = v
	}
	if v := os.Getenv("OPENLINK_URL"); v != "" {
		cfg.Search.FetchURL = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to local time
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// TaskTimeout returns the per-task external call bound
func (c *Config) TaskTimeout() time.Duration {
	if c.TaskTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TaskTimeoutSec) * time.Second
}

func defaults() *Config {
	return &Config{
		BotName: "Baklava Bot",
		Persona: "You are Baklava Bot, a helpful virtual assistant. " +
			"Your job is to help users manage their schedules and appointments efficiently " +
			"or answer questions by using your internal knowledge or looking up things online. " +
			"You only reply in plain text and no formatting of any type.",
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Search: SearchConfig{
			SearchURL: "https://websearch.arman-dogru.workers.dev/",
			FetchURL:  "https://openlink.arman-dogru.workers.dev/",
		},
		Store: StoreConfig{
			Path: "state/transcripts.db",
		},
		Timezone:       "America/Toronto",
		TaskTimeoutSec: 30,
	}
}
