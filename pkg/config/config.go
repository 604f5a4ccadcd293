// Package config loads researchchat configuration from its TOML file, the
// environment, and finally an interactive prompt for the API key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/buildfastwithai/researchchat/pkg/llm"
	"github.com/buildfastwithai/researchchat/pkg/session"
)

// EnvAPIKey is the environment variable consulted for the API key.
const EnvAPIKey = "PERPLEXITY_API_KEY"

const appDir = ".researchchat"

// Config holds everything the chat client and server need to run.
type Config struct {
	APIKey       string `toml:"api_key"`       // Perplexity API key (env wins over file)
	BaseURL      string `toml:"base_url"`      // API root
	Model        string `toml:"model"`         // Model name
	MaxTokens    int    `toml:"max_tokens"`    // Completion token bound
	SystemPrompt string `toml:"system_prompt"` // Seed prompt for new sessions
	StoreDir     string `toml:"store_dir"`     // Session JSON directory
	DBPath       string `toml:"db"`            // SQLite path; set to prefer SQLite storage
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:      llm.DefaultBaseURL,
		Model:        llm.DefaultModel,
		MaxTokens:    llm.DefaultMaxTokens,
		SystemPrompt: session.DefaultSystemPrompt,
		StoreDir:     DefaultStoreDir(),
	}
}

// Load reads the TOML file at path (or the default location when path is
// empty), layering it over Default. A missing file is not an error. A .env
// file in the working directory is loaded best-effort first, and the
// API-key environment variable overrides everything.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.APIKey = key
	}

	return cfg, nil
}

// EnsureAPIKey prompts for the key on the terminal when none was configured.
func (c *Config) EnsureAPIKey() error {
	if c.APIKey != "" {
		return nil
	}

	key, err := PromptAPIKey()
	if err != nil {
		return err
	}
	c.APIKey = key

	return nil
}

// PromptAPIKey reads the API key from the terminal without echoing it.
func PromptAPIKey() (string, error) {
	fmt.Fprint(os.Stderr, "Perplexity API key: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", fmt.Errorf("API key is required")
	}

	return key, nil
}

// DefaultPath is the default config file location (~/.researchchat/config.toml).
func DefaultPath() string {
	return filepath.Join(homeDir(), appDir, "config.toml")
}

// DefaultStoreDir is the default session directory (~/.researchchat/sessions).
func DefaultStoreDir() string {
	return filepath.Join(homeDir(), appDir, "sessions")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
