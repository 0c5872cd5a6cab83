package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klytics/prpulse/internal/output"
)

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCommand()
	want := map[string]bool{"report": false, "window": false, "config": false, "doctor": false, "completion": false, "version": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRootPersistentFlags(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"json", "verbose", "no-color", "config"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}

func TestVersionThroughRoot(t *testing.T) {
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "prpulse ") {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestHandleErrorExitCodes(t *testing.T) {
	jsonOutput = false
	if code := handleError(nil, errors.New("plain")); code != output.ExitUserError {
		t.Errorf("untagged error code = %d", code)
	}
	if code := handleError(nil, output.SystemError(errors.New("io"))); code != output.ExitSystemError {
		t.Errorf("system error code = %d", code)
	}
}

func TestUnknownCommand(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"frobnicate"})
	if err := root.Execute(); err == nil {
		t.Error("unknown command should fail")
	}
}
