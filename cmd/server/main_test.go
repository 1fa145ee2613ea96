package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", path, "--db", dir + "/chat.db"})
	t.Setenv("TERMCHAT_HISTORY_BACKEND", "mongo")

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "history_backend") {
		t.Fatalf("expected history_backend validation error, got %v", err)
	}
}
