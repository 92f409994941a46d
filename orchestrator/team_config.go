// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TeamConfig describes the analyst team: the leader's working instructions,
// the success criteria it aims for, and the member agents with their roles
// and tool grants. The built-in default is defined in team_defaults.go; a
// YAML file named by TEAM_CONFIG overrides it at startup.
type TeamConfig struct {
	Name            string        `yaml:"name"`
	Instructions    []string      `yaml:"instructions,omitempty"`
	SuccessCriteria string        `yaml:"success_criteria,omitempty"`
	Members         []AgentConfig `yaml:"members"`
}

// AgentConfig describes a single team member.
type AgentConfig struct {
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Instructions []string `yaml:"instructions,omitempty"`
	Tools        []string `yaml:"tools,omitempty"`
}

// LoadTeamConfig reads a team configuration from a YAML file. Environment
// variable references (${VAR} or ${VAR:-default}) in the file are expanded
// before parsing.
func LoadTeamConfig(path string) (*TeamConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read team config %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg TeamConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse team config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the structural requirements of a team configuration.
func (c *TeamConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("team config must specify a name")
	}
	if len(c.Members) == 0 {
		return fmt.Errorf("team config must declare at least one member")
	}

	seen := make(map[string]bool, len(c.Members))
	for i, member := range c.Members {
		if member.Name == "" {
			return fmt.Errorf("member %d must specify a name", i)
		}
		if member.Role == "" {
			return fmt.Errorf("member '%s' must specify a role", member.Name)
		}
		if seen[member.Name] {
			return fmt.Errorf("duplicate member name '%s'", member.Name)
		}
		seen[member.Name] = true
	}

	return nil
}

// ToolNames returns the union of tools granted across all members,
// preserving first-grant order.
func (c *TeamConfig) ToolNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, member := range c.Members {
		for _, tool := range member.Tools {
			if !seen[tool] {
				seen[tool] = true
				names = append(names, tool)
			}
		}
	}
	return names
}

// SystemPrompt renders the team configuration as the system instruction for
// the model: team identity, member roster with roles and tool grants,
// working instructions, success criteria, and the current date.
func (c *TeamConfig) SystemPrompt(now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, coordinating a team of specialist agents.\n", c.Name)

	b.WriteString("\nTeam members:\n")
	for _, member := range c.Members {
		fmt.Fprintf(&b, "- %s: %s\n", member.Name, member.Role)
		for _, instruction := range member.Instructions {
			fmt.Fprintf(&b, "  %s\n", instruction)
		}
		if len(member.Tools) > 0 {
			fmt.Fprintf(&b, "  Tools: %s\n", strings.Join(member.Tools, ", "))
		}
	}

	if len(c.Instructions) > 0 {
		b.WriteString("\nInstructions:\n")
		for _, instruction := range c.Instructions {
			fmt.Fprintf(&b, "- %s\n", instruction)
		}
	}

	if c.SuccessCriteria != "" {
		fmt.Fprintf(&b, "\nSuccess criteria: %s\n", c.SuccessCriteria)
	}

	fmt.Fprintf(&b, "\nCurrent date: %s\n", now.Format("2006-01-02"))

	return b.String()
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references in the string.
// Supports both ${VAR_NAME} and $VAR_NAME syntax, with ${VAR_NAME:-default}
// fallbacks. Undefined variables expand to empty strings.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultVal
	})
}
