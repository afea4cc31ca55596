package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	validAuthModes := []string{"token", "password"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.auth.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	// Restore validation
	if cfg.Restore.MaxConcurrentItems < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "restore.maxConcurrentItems",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Restore.MaxConcurrentItems),
		})
	}

	validPolicies := []string{FlexPassthrough, FlexRetain, FlexEqual}
	if cfg.Restore.FlexPolicy != "" && !slices.Contains(validPolicies, cfg.Restore.FlexPolicy) {
		issues = append(issues, ValidationIssue{
			Path:    "restore.flexPolicy",
			Message: fmt.Sprintf("must be one of %v, got %q", validPolicies, cfg.Restore.FlexPolicy),
		})
	}

	for i, kind := range cfg.Restore.Kinds {
		if kind == "" {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("restore.kinds[%d]", i),
				Message: "kind must not be empty",
			})
		}
	}

	// Remote validation
	servers := make(map[uint64]bool, len(cfg.Remote.DevServers))
	for i, s := range cfg.Remote.DevServers {
		if servers[s.ID] {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("remote.devServers[%d].id", i),
				Message: fmt.Sprintf("duplicate dev server id %d", s.ID),
			})
		}
		servers[s.ID] = true
		if s.Name == "" {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("remote.devServers[%d].name", i),
				Message: "name is required",
			})
		}
	}

	projects := make(map[uint64]bool, len(cfg.Remote.Projects))
	for i, p := range cfg.Remote.Projects {
		if projects[p.ID] {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("remote.projects[%d].id", i),
				Message: fmt.Sprintf("duplicate project id %d", p.ID),
			})
		}
		projects[p.ID] = true
		if !servers[p.DevServerID] {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("remote.projects[%d].devServer", i),
				Message: fmt.Sprintf("unknown dev server %d", p.DevServerID),
			})
		}
	}

	// Hooks validation
	hookGroups := map[string][]HookEntry{
		"hooks.workspaceSaved":    cfg.Hooks.WorkspaceSaved,
		"hooks.workspaceRestored": cfg.Hooks.WorkspaceRestored,
		"hooks.itemDropped":       cfg.Hooks.ItemDropped,
		"hooks.paneDropped":       cfg.Hooks.PaneDropped,
	}
	for path, entries := range hookGroups {
		for i, h := range entries {
			if h.Command == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s[%d].command", path, i),
					Message: "command is required",
				})
			}
			if h.Timeout < 0 {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s[%d].timeout", path, i),
					Message: fmt.Sprintf("must be >= 0, got %d", h.Timeout),
				})
			}
		}
	}

	slices.SortFunc(issues, func(a, b ValidationIssue) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return issues
}
