package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TeamConfig is the shared, team-wide configuration layer. Its values act as
// defaults that the user config and environment override.
type TeamConfig struct {
	Org          string   `yaml:"org" json:"org"`
	Timezone     string   `yaml:"timezone" json:"timezone"`
	Weeks        int      `yaml:"weeks" json:"weeks"`
	ExcludeUsers []string `yaml:"exclude_users" json:"exclude_users"`

	GitHub struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
	} `yaml:"github" json:"github"`

	AI struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
	} `yaml:"ai" json:"ai"`
}

// TeamConfigPath returns the team config location. PRPULSE_TEAM_CONFIG
// overrides the platform default.
func TeamConfigPath() string {
	if p := os.Getenv("PRPULSE_TEAM_CONFIG"); p != "" {
		return p
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("ProgramData"), "prpulse", "team.yaml")
	}
	return "/etc/prpulse/team.yaml"
}

// LoadTeamConfig reads the team config. Returns nil (not error) if the file
// does not exist.
func LoadTeamConfig() (*TeamConfig, error) {
	return LoadTeamConfigFrom(TeamConfigPath())
}

// LoadTeamConfigFrom reads the team config from a specific path.
func LoadTeamConfigFrom(path string) (*TeamConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read team config at %s: %w", path, err)
	}

	var cfg TeamConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid team config at %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyTeamDefaults registers the non-empty team values as viper defaults.
func ApplyTeamDefaults(tc *TeamConfig) {
	if tc == nil {
		return
	}
	if tc.Org != "" {
		viper.SetDefault("org", tc.Org)
	}
	if tc.Timezone != "" {
		viper.SetDefault("report.timezone", tc.Timezone)
	}
	if tc.Weeks > 0 {
		viper.SetDefault("report.weeks", tc.Weeks)
	}
	if len(tc.ExcludeUsers) > 0 {
		viper.SetDefault("report.exclude_users", tc.ExcludeUsers)
	}
	if tc.GitHub.BaseURL != "" {
		viper.SetDefault("github.base_url", tc.GitHub.BaseURL)
	}
	if tc.AI.BaseURL != "" {
		viper.SetDefault("ai.base_url", tc.AI.BaseURL)
	}
}

// ValidateTeamConfig checks a team config for values Load would reject.
func ValidateTeamConfig(tc *TeamConfig) []string {
	var issues []string
	if tc.Weeks < 0 {
		issues = append(issues, fmt.Sprintf("weeks must not be negative, got %d", tc.Weeks))
	}
	if tc.Timezone != "" {
		if _, err := time.LoadLocation(tc.Timezone); err != nil {
			issues = append(issues, fmt.Sprintf("timezone %q is not a known IANA zone", tc.Timezone))
		}
	}
	return issues
}

// GenerateTeamTemplate returns a YAML template for the team config.
func GenerateTeamTemplate(org string) string {
	return fmt.Sprintf(`# prpulse team configuration
# Deploy to: %s
# Values here are defaults; ~/.prpulse/config.yaml and PRPULSE_* override them.

org: %q
timezone: UTC
weeks: 1

# Accounts never included in reports (bots, service users).
exclude_users: []

github:
  base_url: ""   # GitHub Enterprise API URL, empty for github.com

ai:
  base_url: %q
`, TeamConfigPath(), org, DefaultAIBaseURL)
}
