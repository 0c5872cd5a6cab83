// Package config manages prpulse configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Org    string `mapstructure:"org"`
	GitHub struct {
		Token       string        `mapstructure:"token"`
		BaseURL     string        `mapstructure:"base_url"`
		MaxRateWait time.Duration `mapstructure:"max_rate_wait"`
	} `mapstructure:"github"`
	AI struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"ai"`
	Report struct {
		Weeks        int      `mapstructure:"weeks"`
		Concurrency  int      `mapstructure:"concurrency"`
		Timezone     string   `mapstructure:"timezone"`
		ExcludeUsers []string `mapstructure:"exclude_users"`
	} `mapstructure:"report"`
	Output struct {
		Dir    string `mapstructure:"dir"`
		Format string `mapstructure:"format"`
		Color  bool   `mapstructure:"color"`
	} `mapstructure:"output"`
}

// DefaultAIBaseURL is used when neither the team nor the user config names
// an AI-usage endpoint.
const DefaultAIBaseURL = "https://api.ai-usage.example.com"

// ErrNoToken is returned when no GitHub token is configured.
var ErrNoToken = errors.New("no GitHub token configured")

// Load reads the configuration from ~/.prpulse/config.yaml (or path, when
// set), the team config and environment variables. A missing default config
// file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	setDefaults()

	team, err := LoadTeamConfig()
	if err != nil {
		return nil, err
	}
	ApplyTeamDefaults(team)

	viper.SetEnvPrefix("PRPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("github.token", "PRPULSE_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN")

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("could not read config %s: %w", ConfigPath(), err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("org", "")
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.base_url", "")
	viper.SetDefault("github.max_rate_wait", "1m")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.base_url", DefaultAIBaseURL)
	viper.SetDefault("report.weeks", 1)
	viper.SetDefault("report.concurrency", 4)
	viper.SetDefault("report.timezone", "UTC")
	viper.SetDefault("report.exclude_users", []string{})
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("output.format", "csv")
	viper.SetDefault("output.color", true)
}

// Token returns the GitHub token or ErrNoToken.
func (c *Config) Token() (string, error) {
	if c.GitHub.Token == "" {
		return "", fmt.Errorf("%w: set PRPULSE_GITHUB_TOKEN or GITHUB_TOKEN, or run: prpulse config set github.token <token>", ErrNoToken)
	}
	return c.GitHub.Token, nil
}

// Location resolves report.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prpulse"
	}
	return filepath.Join(home, ".prpulse")
}
