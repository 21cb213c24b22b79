package config

import (
	"strings"
	"testing"
	"time"
)

const validYAML = `
port: 9090
poll_interval: 45s
probe_timeout: 500ms

targets:
  - name: Living Room Pi
    address: 10.0.0.1
  - name: Zigbee Pi
    address: 10.0.0.2
    service_check:
      port: 8080
      match_hint: Zigbee2MQTT
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.PollInterval.Duration() != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", cfg.PollInterval.Duration())
	}
	if cfg.ProbeTimeout.Duration() != 500*time.Millisecond {
		t.Errorf("ProbeTimeout = %v, want 500ms", cfg.ProbeTimeout.Duration())
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("Targets = %d entries, want 2", len(cfg.Targets))
	}

	sc := cfg.Targets[1].ServiceCheck
	if sc == nil || sc.Port != 8080 || sc.MatchHint != "Zigbee2MQTT" {
		t.Errorf("ServiceCheck = %+v, want port 8080 hint Zigbee2MQTT", sc)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("targets:\n  - name: Pi\n    address: 10.0.0.1\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if cfg.PollInterval.Duration() != 30*time.Second {
		t.Errorf("PollInterval = %v, want default 30s", cfg.PollInterval.Duration())
	}
	if cfg.ProbeTimeout.Duration() != time.Second {
		t.Errorf("ProbeTimeout = %v, want default 1s", cfg.ProbeTimeout.Duration())
	}
	if cfg.ServiceTimeout.Duration() != 2*time.Second {
		t.Errorf("ServiceTimeout = %v, want default 2s", cfg.ServiceTimeout.Duration())
	}
	if cfg.CopyFeedbackTTL.Duration() != 2*time.Second {
		t.Errorf("CopyFeedbackTTL = %v, want default 2s", cfg.CopyFeedbackTTL.Duration())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"no targets",
			"port: 8080\n",
			"at least one target",
		},
		{
			"missing name",
			"targets:\n  - address: 10.0.0.1\n",
			"name is required",
		},
		{
			"missing address",
			"targets:\n  - name: Pi\n",
			"address is required",
		},
		{
			"address is a url",
			"targets:\n  - name: Pi\n    address: http://10.0.0.1\n",
			"bare host",
		},
		{
			"duplicate address",
			"targets:\n  - name: A\n    address: 10.0.0.1\n  - name: B\n    address: 10.0.0.1\n",
			"duplicate address",
		},
		{
			"poll interval too small",
			"poll_interval: 100ms\ntargets:\n  - name: Pi\n    address: 10.0.0.1\n",
			"poll_interval",
		},
		{
			"service timeout too large",
			"service_timeout: 10s\ntargets:\n  - name: Pi\n    address: 10.0.0.1\n",
			"service_timeout",
		},
		{
			"service check without hint",
			"targets:\n  - name: Pi\n    address: 10.0.0.1\n    service_check:\n      port: 8080\n",
			"match_hint",
		},
		{
			"service check without port",
			"targets:\n  - name: Pi\n    address: 10.0.0.1\n    service_check:\n      match_hint: x\n",
			"service_check.port",
		},
		{
			"bad duration",
			"poll_interval: soon\ntargets:\n  - name: Pi\n    address: 10.0.0.1\n",
			"invalid duration",
		},
		{
			"not yaml",
			"{{{{",
			"parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("PI_ADDR", "10.0.0.42")

	cfg, err := Parse([]byte("targets:\n  - name: Pi\n    address: ${PI_ADDR}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Targets[0].Address != "10.0.0.42" {
		t.Errorf("Address = %q, want expanded 10.0.0.42", cfg.Targets[0].Address)
	}
}

func TestParse_EnvExpansionDefault(t *testing.T) {
	cfg, err := Parse([]byte("targets:\n  - name: Pi\n    address: ${UNSET_PI_ADDR:-10.0.0.9}\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Targets[0].Address != "10.0.0.9" {
		t.Errorf("Address = %q, want default 10.0.0.9", cfg.Targets[0].Address)
	}
}

func TestParse_EnvExpansionMissing(t *testing.T) {
	_, err := Parse([]byte("targets:\n  - name: Pi\n    address: ${UNSET_PI_ADDR}\n"))
	if err == nil || !strings.Contains(err.Error(), "UNSET_PI_ADDR") {
		t.Errorf("Parse() error = %v, want missing-variable error", err)
	}
}
