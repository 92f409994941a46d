// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTeamFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "team.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write team file: %v", err)
	}
	return path
}

func TestLoadTeamConfig(t *testing.T) {
	t.Run("loads a valid team", func(t *testing.T) {
		path := writeTeamFile(t, `
name: Custom Finance Team
instructions:
  - Use tables to display data.
success_criteria: Analysis delivered with a score.
members:
  - name: Analyst
    role: Analyzes financial data.
    instructions:
      - Prefer annual statements.
    tools:
      - get_income_statements
      - get_company_info
  - name: Searcher
    role: Searches the web.
    tools:
      - web_search
`)

		cfg, err := LoadTeamConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Name != "Custom Finance Team" {
			t.Errorf("expected team name, got %q", cfg.Name)
		}
		if len(cfg.Members) != 2 {
			t.Fatalf("expected 2 members, got %d", len(cfg.Members))
		}
		if cfg.Members[0].Role != "Analyzes financial data." {
			t.Errorf("unexpected role: %q", cfg.Members[0].Role)
		}
		if len(cfg.Members[0].Tools) != 2 {
			t.Errorf("expected 2 tools for analyst, got %d", len(cfg.Members[0].Tools))
		}
		if cfg.SuccessCriteria != "Analysis delivered with a score." {
			t.Errorf("unexpected success criteria: %q", cfg.SuccessCriteria)
		}
	})

	t.Run("expands environment variables", func(t *testing.T) {
		t.Setenv("TEAM_NAME_OVERRIDE", "Env Team")
		path := writeTeamFile(t, `
name: ${TEAM_NAME_OVERRIDE}
members:
  - name: Analyst
    role: ${TEAM_ROLE_OVERRIDE:-Analyzes financial data.}
`)

		cfg, err := LoadTeamConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Name != "Env Team" {
			t.Errorf("expected expanded name, got %q", cfg.Name)
		}
		if cfg.Members[0].Role != "Analyzes financial data." {
			t.Errorf("expected default fallback role, got %q", cfg.Members[0].Role)
		}
	})

	t.Run("rejects a missing file", func(t *testing.T) {
		_, err := LoadTeamConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil || !strings.Contains(err.Error(), "failed to read team config") {
			t.Errorf("expected read error, got %v", err)
		}
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		path := writeTeamFile(t, "name: [unclosed")
		_, err := LoadTeamConfig(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse team config") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("rejects an invalid team", func(t *testing.T) {
		path := writeTeamFile(t, "name: Headless Team\nmembers: []\n")
		_, err := LoadTeamConfig(path)
		if err == nil || !strings.Contains(err.Error(), "at least one member") {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestTeamConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TeamConfig
		wantErr string
	}{
		{
			name:    "missing team name",
			cfg:     TeamConfig{Members: []AgentConfig{{Name: "A", Role: "r"}}},
			wantErr: "must specify a name",
		},
		{
			name:    "no members",
			cfg:     TeamConfig{Name: "T"},
			wantErr: "at least one member",
		},
		{
			name:    "member without name",
			cfg:     TeamConfig{Name: "T", Members: []AgentConfig{{Role: "r"}}},
			wantErr: "member 0 must specify a name",
		},
		{
			name:    "member without role",
			cfg:     TeamConfig{Name: "T", Members: []AgentConfig{{Name: "A"}}},
			wantErr: "must specify a role",
		},
		{
			name: "duplicate member names",
			cfg: TeamConfig{Name: "T", Members: []AgentConfig{
				{Name: "A", Role: "r"},
				{Name: "A", Role: "r"},
			}},
			wantErr: "duplicate member name",
		},
		{
			name: "valid team",
			cfg: TeamConfig{Name: "T", Members: []AgentConfig{
				{Name: "A", Role: "r"},
				{Name: "B", Role: "r"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTeamConfigToolNames(t *testing.T) {
	cfg := TeamConfig{
		Name: "T",
		Members: []AgentConfig{
			{Name: "A", Role: "r", Tools: []string{"get_news", "get_company_info"}},
			{Name: "B", Role: "r", Tools: []string{"web_search", "get_news"}},
		},
	}

	got := cfg.ToolNames()
	want := []string{"get_news", "get_company_info", "web_search"}

	if len(got) != len(want) {
		t.Fatalf("expected %d tools, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tool %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestTeamConfigSystemPrompt(t *testing.T) {
	cfg := TeamConfig{
		Name:            "Reasoning Finance Team Leader",
		Instructions:    []string{"Use tables to display data."},
		SuccessCriteria: "The analysis is complete.",
		Members: []AgentConfig{
			{
				Name:         "Financial Analyst Agent",
				Role:         "Analyzes financial data.",
				Instructions: []string{"1. Start with the screener."},
				Tools:        []string{"get_market_screen", "get_news"},
			},
		},
	}

	prompt := cfg.SystemPrompt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"You are Reasoning Finance Team Leader, coordinating a team of specialist agents.",
		"- Financial Analyst Agent: Analyzes financial data.",
		"1. Start with the screener.",
		"Tools: get_market_screen, get_news",
		"- Use tables to display data.",
		"Success criteria: The analysis is complete.",
		"Current date: 2025-06-01",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q\nprompt:\n%s", want, prompt)
		}
	}
}

func TestDefaultTeamConfig(t *testing.T) {
	cfg := DefaultTeamConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default team must validate: %v", err)
	}
	if cfg.Name != "Reasoning Finance Team Leader" {
		t.Errorf("unexpected team name: %q", cfg.Name)
	}
	if len(cfg.Members) != 2 {
		t.Fatalf("expected 2 default members, got %d", len(cfg.Members))
	}

	tools := cfg.ToolNames()
	if len(tools) != 10 {
		t.Errorf("expected 10 granted tools (9 financial + search), got %d: %v", len(tools), tools)
	}
	seen := make(map[string]bool)
	for _, tool := range tools {
		seen[tool] = true
	}
	for _, want := range []string{"web_search", "get_market_screen", "get_income_statements", "get_stock_prices", "search_tickers"} {
		if !seen[want] {
			t.Errorf("expected default grant %q", want)
		}
	}

	// The default instructions tell the model the screener arguments that
	// used to be baked in, so behavior is preserved.
	prompt := cfg.SystemPrompt(time.Now())
	if !strings.Contains(prompt, "country=IN") {
		t.Error("expected screener defaults in the analyst instructions")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FINSIGHT_EXPAND_SET", "visible")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "x ${FINSIGHT_EXPAND_SET} y", "x visible y"},
		{"bare", "x $FINSIGHT_EXPAND_SET y", "x visible y"},
		{"unset to empty", "x ${FINSIGHT_EXPAND_UNSET} y", "x  y"},
		{"unset with default", "x ${FINSIGHT_EXPAND_UNSET:-fallback} y", "x fallback y"},
		{"set wins over default", "x ${FINSIGHT_EXPAND_SET:-fallback} y", "x visible y"},
		{"no variables", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandEnvVars(tt.input); got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
