package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

var validFormats = map[string]bool{"csv": true, "xlsx": true, "json": true}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	if viper.GetString("github.token") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "github.token",
			Severity: "error",
			Message:  "GitHub token is not set",
			Fix:      "export GITHUB_TOKEN=ghp_...\nOr: prpulse config set github.token ghp_...",
		})
	} else {
		issues = append(issues, ConfigIssue{
			Key:      "github.token",
			Severity: "info",
			Message:  "GitHub token configured",
		})
	}

	if viper.GetString("org") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "org",
			Severity: "warning",
			Message:  "organization is not set; pass --org to prpulse report",
			Fix:      "prpulse config set org your-org",
		})
	}

	if viper.GetString("ai.api_key") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "ai.api_key",
			Severity: "info",
			Message:  "AI usage API key is not set; AI metrics will report no_api_key",
		})
	}

	if w := viper.GetInt("report.weeks"); w < 0 {
		issues = append(issues, ConfigIssue{
			Key:      "report.weeks",
			Severity: "error",
			Message:  fmt.Sprintf("report.weeks must not be negative, got %d", w),
			Fix:      "prpulse config set report.weeks 1",
		})
	}

	if c := viper.GetInt("report.concurrency"); c < 1 {
		issues = append(issues, ConfigIssue{
			Key:      "report.concurrency",
			Severity: "error",
			Message:  fmt.Sprintf("report.concurrency must be at least 1, got %d", c),
			Fix:      "prpulse config set report.concurrency 4",
		})
	}

	if tz := viper.GetString("report.timezone"); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "report.timezone",
				Severity: "error",
				Message:  fmt.Sprintf("report.timezone %q is not a known IANA zone", tz),
				Fix:      "prpulse config set report.timezone UTC",
			})
		}
	}

	for _, f := range SplitFormats(viper.GetString("output.format")) {
		if !validFormats[f] {
			issues = append(issues, ConfigIssue{
				Key:      "output.format",
				Severity: "error",
				Message:  fmt.Sprintf("unknown output format %q (supported: csv, xlsx, json)", f),
				Fix:      "prpulse config set output.format csv,xlsx",
			})
		}
	}

	if viper.GetDuration("github.max_rate_wait") < 0 {
		issues = append(issues, ConfigIssue{
			Key:      "github.max_rate_wait",
			Severity: "error",
			Message:  "github.max_rate_wait must not be negative",
			Fix:      "prpulse config set github.max_rate_wait 1m",
		})
	}

	return issues
}

// SplitFormats splits a comma-separated format list, lowercased and trimmed.
func SplitFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)

	add := func(name, key string) {
		if v := viper.GetString(key); v != "" {
			env[name] = v
		}
	}
	add("PRPULSE_ORG", "org")
	add("PRPULSE_GITHUB_TOKEN", "github.token")
	add("PRPULSE_GITHUB_BASE_URL", "github.base_url")
	add("PRPULSE_GITHUB_MAX_RATE_WAIT", "github.max_rate_wait")
	add("PRPULSE_AI_API_KEY", "ai.api_key")
	add("PRPULSE_AI_BASE_URL", "ai.base_url")
	add("PRPULSE_REPORT_WEEKS", "report.weeks")
	add("PRPULSE_REPORT_CONCURRENCY", "report.concurrency")
	add("PRPULSE_REPORT_TIMEZONE", "report.timezone")
	add("PRPULSE_OUTPUT_DIR", "output.dir")
	add("PRPULSE_OUTPUT_FORMAT", "output.format")
	if ex := viper.GetStringSlice("report.exclude_users"); len(ex) > 0 {
		env["PRPULSE_REPORT_EXCLUDE_USERS"] = strings.Join(ex, ",")
	}

	return env
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the user config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	viper.Reset()
	setDefaults()
	return nil
}

// SaveConfig writes the current config to ~/.prpulse/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	// Tokens live in this file.
	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration with
// secrets redacted.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n", ConfigPath()))
	sb.WriteString(fmt.Sprintf("Team:   %s\n\n", TeamConfigPath()))

	sb.WriteString(fmt.Sprintf("org:        %s\n\n", viper.GetString("org")))

	sb.WriteString("GitHub\n")
	sb.WriteString(fmt.Sprintf("  token:          %s\n", redact(viper.GetString("github.token"))))
	if u := viper.GetString("github.base_url"); u != "" {
		sb.WriteString(fmt.Sprintf("  base_url:       %s\n", u))
	}
	sb.WriteString(fmt.Sprintf("  max_rate_wait:  %s\n\n", viper.GetDuration("github.max_rate_wait")))

	sb.WriteString("AI usage\n")
	sb.WriteString(fmt.Sprintf("  api_key:        %s\n", redact(viper.GetString("ai.api_key"))))
	sb.WriteString(fmt.Sprintf("  base_url:       %s\n\n", viper.GetString("ai.base_url")))

	sb.WriteString("Report\n")
	sb.WriteString(fmt.Sprintf("  weeks:          %d\n", viper.GetInt("report.weeks")))
	sb.WriteString(fmt.Sprintf("  concurrency:    %d\n", viper.GetInt("report.concurrency")))
	sb.WriteString(fmt.Sprintf("  timezone:       %s\n", viper.GetString("report.timezone")))
	if ex := viper.GetStringSlice("report.exclude_users"); len(ex) > 0 {
		sb.WriteString(fmt.Sprintf("  exclude_users:  %s\n", strings.Join(ex, ", ")))
	}
	sb.WriteString("\n")

	sb.WriteString("Output\n")
	sb.WriteString(fmt.Sprintf("  dir:            %s\n", viper.GetString("output.dir")))
	sb.WriteString(fmt.Sprintf("  format:         %s\n", viper.GetString("output.format")))
	sb.WriteString(fmt.Sprintf("  color:          %t\n", viper.GetBool("output.color")))

	return sb.String()
}

// Settings returns the effective configuration with secrets redacted.
func Settings() map[string]interface{} {
	settings := viper.AllSettings()
	redactIn(settings, "github", "token")
	redactIn(settings, "ai", "api_key")
	return settings
}

// ShowYAML returns the effective configuration as YAML with secrets
// redacted.
func ShowYAML() (string, error) {
	data, err := yaml.Marshal(Settings())
	if err != nil {
		return "", fmt.Errorf("could not encode config: %w", err)
	}
	return string(data), nil
}

func redactIn(settings map[string]interface{}, section, key string) {
	m, ok := settings[section].(map[string]interface{})
	if !ok {
		return
	}
	if v, ok := m[key].(string); ok {
		m[key] = redact(v)
	}
}

func redact(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return secret[:min(4, len(secret))] + "****"
}
