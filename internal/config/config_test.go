package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COACH_JWT_SECRET", "jwt-test")

	path := writeConfig(t, `
listen:
  port: 9000
openai:
  model: gpt-4o-mini
  timeout_sec: 30
database:
  path: /tmp/coach.db
chat:
  max_tool_rounds: 3
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Listen.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.TimeoutSec != 30 {
		t.Errorf("timeout = %d", cfg.OpenAI.TimeoutSec)
	}
	if cfg.Chat.MaxToolRounds != 3 {
		t.Errorf("max rounds = %d", cfg.Chat.MaxToolRounds)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key not read from environment")
	}
	if cfg.Auth.JWTSecret != "jwt-test" {
		t.Errorf("jwt secret not read from environment")
	}
	// Unset fields fall back to defaults.
	if cfg.LogFormat != "text" {
		t.Errorf("log format = %q, want text", cfg.LogFormat)
	}
	if cfg.OpenAI.MaxRetries != 2 {
		t.Errorf("max retries = %d, want 2", cfg.OpenAI.MaxRetries)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COACH_JWT_SECRET", "jwt-test")

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen.Port != 8801 {
		t.Errorf("port = %d, want 8801", cfg.Listen.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", cfg.OpenAI.Model)
	}
	if cfg.Database.Path != "coach.db" {
		t.Errorf("database = %q, want coach.db", cfg.Database.Path)
	}
	if cfg.Chat.MaxToolRounds != 5 {
		t.Errorf("max rounds = %d, want 5", cfg.Chat.MaxToolRounds)
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("COACH_JWT_SECRET", "jwt-test")
	if _, err := Load(writeConfig(t, "")); err == nil {
		t.Error("missing API key accepted")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COACH_JWT_SECRET", "")
	if _, err := Load(writeConfig(t, "")); err == nil {
		t.Error("missing JWT secret accepted")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COACH_JWT_SECRET", "jwt-test")

	if _, err := Load(writeConfig(t, "listen: [broken")); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestFindConfig(t *testing.T) {
	explicit := writeConfig(t, "")
	path, err := FindConfig(explicit)
	if err != nil {
		t.Fatal(err)
	}
	if path != explicit {
		t.Errorf("path = %q, want %q", path, explicit)
	}

	if _, err := FindConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing explicit path accepted")
	}
}
