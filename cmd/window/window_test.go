package window

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC) // Wednesday
	tests := []struct {
		name         string
		weeks        int
		since, until string
		wantStart    string
		wantEnd      string
	}{
		{"last week", 1, "", "", "2026-10-12", "2026-10-18"},
		{"last four weeks", 4, "", "", "2026-09-21", "2026-10-18"},
		{"explicit range", 1, "2026-01-05", "2026-02-01", "2026-01-05", "2026-02-01"},
		{"range widened to whole weeks", 1, "2026-01-01", "2026-01-31", "2025-12-29", "2026-02-01"},
		{"since only runs to last sunday", 1, "2026-10-01", "", "2026-09-28", "2026-10-18"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Resolve(now, tt.weeks, tt.since, tt.until, time.UTC)
			if err != nil {
				t.Fatal(err)
			}
			if w.StartDate() != tt.wantStart || w.EndDate() != tt.wantEnd {
				t.Errorf("got %s, want %s..%s", w, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	if _, err := Resolve(now, -1, "", "", time.UTC); err == nil {
		t.Error("negative weeks should fail")
	}
	if _, err := Resolve(now, 1, "", "2026-10-01", time.UTC); err == nil {
		t.Error("--until alone should fail")
	}
	if _, err := Resolve(now, 1, "2026-10-20", "", time.UTC); err == nil {
		t.Error("--since in the current week should fail: last week ends before it")
	}
}

func TestResolveZeroWeeks(t *testing.T) {
	w, err := Resolve(time.Now(), 0, "", "", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Empty() {
		t.Errorf("expected empty window, got %s", w)
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	home := t.TempDir()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", home)
	t.Setenv("PRPULSE_TEAM_CONFIG", filepath.Join(home, "team.yaml"))

	root := &cobra.Command{Use: "prpulse", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().Bool("json", false, "")
	root.PersistentFlags().String("config", "", "")
	root.AddCommand(NewCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"window"}, args...))
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestWindowCommand(t *testing.T) {
	out := execute(t, "--since", "2024-01-03", "--until", "2024-01-10", "--timezone", "Asia/Tokyo")
	for _, want := range []string{
		"Window:   2024-01-01..2024-01-14 (Asia/Tokyo)",
		"Days:     14",
		"Segments: 2",
		"2        2024-01-08  2024-01-14  7",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWindowCommandJSON(t *testing.T) {
	out := execute(t, "--since", "2024-01-01", "--until", "2024-01-14", "--json")
	var env struct {
		OK   bool `json:"ok"`
		Data struct {
			Window struct {
				Start string `json:"start"`
				Days  int    `json:"days"`
			} `json:"window"`
			Timezone string `json:"timezone"`
			Segments []struct {
				Start string `json:"start"`
			} `json:"segments"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if !env.OK || env.Data.Window.Start != "2024-01-01" || env.Data.Window.Days != 14 {
		t.Errorf("window = %+v", env.Data.Window)
	}
	if env.Data.Timezone != "UTC" || len(env.Data.Segments) != 2 || env.Data.Segments[1].Start != "2024-01-08" {
		t.Errorf("data = %+v", env.Data)
	}
}
