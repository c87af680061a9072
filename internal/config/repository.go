package config

import (
	"fmt"
	"strings"
)

// RepositoryConfig defines a watched GitHub project and where its changelog lives
type RepositoryConfig struct {
	Owner   string // GitHub owner (e.g., "anthropics")
	Repo    string // GitHub repo (e.g., "claude-code")
	Project string // Display name used in notifications

	// Changelog fallback used when a release body is empty
	ChangelogPath string
	ChangelogRef  string
}

// Predefined repository configurations
var (
	ConfigClaudeCode = RepositoryConfig{
		Owner:         "anthropics",
		Repo:          "claude-code",
		Project:       "Claude Code",
		ChangelogPath: "CHANGELOG.md",
		ChangelogRef:  "main",
	}

	ConfigAnthropicSDKGo = RepositoryConfig{
		Owner:         "anthropics",
		Repo:          "anthropic-sdk-go",
		Project:       "Anthropic Go SDK",
		ChangelogPath: "CHANGELOG.md",
		ChangelogRef:  "main",
	}
)

// GetPredefinedConfig returns a predefined config by name
func GetPredefinedConfig(name string) (*RepositoryConfig, error) {
	configs := map[string]RepositoryConfig{
		"claude-code":      ConfigClaudeCode,
		"claude":           ConfigClaudeCode, // Alias
		"cc":               ConfigClaudeCode, // Alias
		"anthropic-sdk-go": ConfigAnthropicSDKGo,
		"sdk-go":           ConfigAnthropicSDKGo, // Alias
	}

	config, ok := configs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown repository: %s", name)
	}
	return &config, nil
}

// ParseRepositoryString parses "owner/repo" format, a GitHub URL or a predefined name
func ParseRepositoryString(repoStr string) (*RepositoryConfig, error) {
	if config, err := GetPredefinedConfig(repoStr); err == nil {
		return config, nil
	}

	// https://github.com/owner/repo/releases -> owner/repo
	if strings.Contains(repoStr, "github.com") {
		parts := strings.Split(repoStr, "github.com/")
		if len(parts) == 2 {
			repoStr = strings.TrimSuffix(parts[1], "/")
			repoStr = strings.Split(repoStr, "/releases")[0]
			repoStr = strings.Split(repoStr, "/tags")[0]
			repoStr = strings.TrimSuffix(repoStr, ".git")
		}
	}

	parts := strings.Split(repoStr, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: invalid repository format: %s (expected: owner/repo or predefined name)", ErrInvalidConfig, repoStr)
	}

	return &RepositoryConfig{
		Owner:         parts[0],
		Repo:          parts[1],
		Project:       parts[1],
		ChangelogPath: "CHANGELOG.md",
		ChangelogRef:  "main",
	}, nil
}

// FullName returns the full repository name (owner/repo)
func (c *RepositoryConfig) FullName() string {
	return fmt.Sprintf("%s/%s", c.Owner, c.Repo)
}
