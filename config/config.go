// Package config provides YAML configuration parsing for pingboard.
//
// This package enables running pingboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	poll_interval: 30s
//	probe_timeout: 1s
//
//	targets:
//	  - name: Living Room Pi
//	    address: 10.0.0.1
//	  - name: Zigbee Pi
//	    address: 10.0.0.2
//	    service_check:
//	      port: 8080
//	      match_hint: Zigbee2MQTT
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minPollInterval is the minimum allowed polling interval for production
// configs. This prevents accidental flooding of the fleet with probes.
const minPollInterval = 1 * time.Second

// maxServiceTimeout keeps the secondary HTTP check from dominating a cycle.
const maxServiceTimeout = 2 * time.Second

// Config is the root configuration structure for pingboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP API port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between probe cycles.
	// Accepts duration strings like "30s", "1m". Defaults to 30s.
	PollInterval Duration `yaml:"poll_interval"`

	// ProbeTimeout bounds each target's reachability probe. Defaults to 1s.
	ProbeTimeout Duration `yaml:"probe_timeout"`

	// ServiceTimeout bounds the HTTP service check. Defaults to 2s and
	// must not exceed 2s.
	ServiceTimeout Duration `yaml:"service_timeout"`

	// CopyFeedbackTTL is how long the copy-feedback flag stays raised
	// after a copy action. Defaults to 2s.
	CopyFeedbackTTL Duration `yaml:"copy_feedback_ttl"`

	// Targets defines the fixed monitoring fleet, in display order.
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig defines a single monitored host.
type TargetConfig struct {
	// Name is the display name shown to users.
	Name string `yaml:"name"`

	// Address is the host to ping.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Address string `yaml:"address"`

	// ServiceCheck optionally configures the secondary HTTP presence probe.
	ServiceCheck *ServiceCheckConfig `yaml:"service_check"`
}

// ServiceCheckConfig configures a target's HTTP presence probe.
type ServiceCheckConfig struct {
	// Port is the HTTP port the service listens on.
	Port uint16 `yaml:"port"`

	// MatchHint is the substring identifying the service in the body.
	MatchHint string `yaml:"match_hint"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in target addresses are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for Port (8080), PollInterval (30s), ProbeTimeout
// (1s), ServiceTimeout (2s), and CopyFeedbackTTL (2s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(30 * time.Second)
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = Duration(time.Second)
	}
	if cfg.ServiceTimeout == 0 {
		cfg.ServiceTimeout = Duration(2 * time.Second)
	}
	if cfg.CopyFeedbackTTL == 0 {
		cfg.CopyFeedbackTTL = Duration(2 * time.Second)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.PollInterval.Duration() > time.Hour {
		return fmt.Errorf("poll_interval must not exceed 1h, got %s", c.PollInterval.Duration())
	}
	if c.ProbeTimeout.Duration() <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s", c.ProbeTimeout.Duration())
	}
	if c.ServiceTimeout.Duration() <= 0 || c.ServiceTimeout.Duration() > maxServiceTimeout {
		return fmt.Errorf("service_timeout must be within (0, %s], got %s", maxServiceTimeout, c.ServiceTimeout.Duration())
	}
	if c.CopyFeedbackTTL.Duration() <= 0 {
		return fmt.Errorf("copy_feedback_ttl must be positive, got %s", c.CopyFeedbackTTL.Duration())
	}

	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	seen := make(map[string]int, len(c.Targets))
	for i := range c.Targets {
		tc := &c.Targets[i]

		if tc.Name == "" {
			return fmt.Errorf("targets[%d]: name is required", i)
		}
		if tc.Address == "" {
			return fmt.Errorf("targets[%d] (%s): address is required", i, tc.Name)
		}

		expanded, err := expandEnvVars(tc.Address)
		if err != nil {
			return fmt.Errorf("targets[%d] (%s): address: %w", i, tc.Name, err)
		}
		tc.Address = expanded

		if strings.Contains(tc.Address, "://") {
			return fmt.Errorf("targets[%d] (%s): address must be a bare host, not a URL", i, tc.Name)
		}

		if prev, dup := seen[tc.Address]; dup {
			return fmt.Errorf("targets[%d] (%s): duplicate address %q, first used by targets[%d]", i, tc.Name, tc.Address, prev)
		}
		seen[tc.Address] = i

		if sc := tc.ServiceCheck; sc != nil {
			if sc.Port == 0 {
				return fmt.Errorf("targets[%d] (%s): service_check.port is required", i, tc.Name)
			}
			if sc.MatchHint == "" {
				return fmt.Errorf("targets[%d] (%s): service_check.match_hint is required", i, tc.Name)
			}
		}
	}

	return nil
}
