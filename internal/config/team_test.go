package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadTeamConfigMissing(t *testing.T) {
	cfg, err := LoadTeamConfigFrom("/nonexistent/team.yaml")
	if err != nil {
		t.Fatalf("expected nil error for missing file, got: %v", err)
	}
	if cfg != nil {
		t.Error("expected nil config for missing file")
	}
}

func TestLoadTeamConfigValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team.yaml")
	content := `
org: acme
timezone: Europe/Berlin
weeks: 2
exclude_users:
  - dependabot
  - renovate
github:
  base_url: https://ghe.acme.dev/api/v3/
ai:
  base_url: https://ai.acme.dev
`
	os.WriteFile(path, []byte(content), 0644)

	cfg, err := LoadTeamConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadTeamConfigFrom failed: %v", err)
	}
	if cfg.Org != "acme" {
		t.Errorf("Org = %q", cfg.Org)
	}
	if cfg.Weeks != 2 {
		t.Errorf("Weeks = %d", cfg.Weeks)
	}
	if len(cfg.ExcludeUsers) != 2 {
		t.Errorf("expected 2 excluded users, got %d", len(cfg.ExcludeUsers))
	}
	if cfg.GitHub.BaseURL != "https://ghe.acme.dev/api/v3/" {
		t.Errorf("GitHub.BaseURL = %q", cfg.GitHub.BaseURL)
	}
}

func TestLoadTeamConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team.yaml")
	os.WriteFile(path, []byte("org: [unclosed\n"), 0644)

	if _, err := LoadTeamConfigFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidateTeamConfig(t *testing.T) {
	if issues := ValidateTeamConfig(&TeamConfig{Org: "acme", Timezone: "UTC", Weeks: 1}); len(issues) != 0 {
		t.Errorf("expected no issues, got: %v", issues)
	}
	issues := ValidateTeamConfig(&TeamConfig{Timezone: "Nowhere/Land", Weeks: -1})
	if len(issues) != 2 {
		t.Errorf("expected 2 issues, got %v", issues)
	}
}

func TestGenerateTeamTemplate(t *testing.T) {
	tmpl := GenerateTeamTemplate("acme")
	if !strings.Contains(tmpl, `org: "acme"`) {
		t.Error("template should contain the org")
	}

	var cfg TeamConfig
	if err := yaml.Unmarshal([]byte(tmpl), &cfg); err != nil {
		t.Fatalf("template is not valid YAML: %v", err)
	}
	if cfg.Org != "acme" || cfg.Weeks != 1 {
		t.Errorf("parsed template = %+v", cfg)
	}
}
