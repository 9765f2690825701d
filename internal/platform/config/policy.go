package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	dErrors "trustrag/pkg/domain-errors"
)

// Policy holds the access and guardrail tables an operator may override
// without a rebuild. Zero-valued sections keep the compiled-in defaults.
type Policy struct {
	RoleMap        map[string]map[string]string `yaml:"role_map"`
	PIIExemptRoles []string                     `yaml:"pii_exempt_roles"`
	SensitiveTerms []string                     `yaml:"sensitive_terms"`
	Frameworks     map[string][]string          `yaml:"frameworks"`
	RateLimits     struct {
		PerMinute      int `yaml:"per_minute"`
		PerUserPerHour int `yaml:"per_user_per_hour"`
	} `yaml:"rate_limits"`
	MaxDenialsPerHour int `yaml:"max_denials_per_hour"`
}

// LoadPolicy reads path. An empty path yields an empty Policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return &Policy{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: read policy file")
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes YAML strictly; unknown keys are rejected.
func ParsePolicy(raw []byte) (*Policy, error) {
	p := &Policy{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "configuration: parse policy file")
	}
	if p.RateLimits.PerMinute < 0 || p.RateLimits.PerUserPerHour < 0 || p.MaxDenialsPerHour < 0 {
		return nil, invalid("policy limits must not be negative")
	}
	for name, domains := range p.Frameworks {
		if len(domains) == 0 {
			return nil, invalid(fmt.Sprintf("framework %q has no allowed domains", name))
		}
	}
	return p, nil
}

// Apply overlays the policy's scalar settings onto cfg.
func (p *Policy) Apply(cfg *Config) {
	if p == nil {
		return
	}
	if p.RateLimits.PerMinute > 0 {
		cfg.Guardrails.RateLimitPerMinute = p.RateLimits.PerMinute
	}
	if p.RateLimits.PerUserPerHour > 0 {
		cfg.Guardrails.RateLimitPerUserPerHour = p.RateLimits.PerUserPerHour
	}
	if p.PIIExemptRoles != nil {
		cfg.Guardrails.PIIExemptRoles = p.PIIExemptRoles
	}
	if p.MaxDenialsPerHour > 0 {
		cfg.Monitor.MaxDenialsPerHour = p.MaxDenialsPerHour
	}
}
