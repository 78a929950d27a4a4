package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPolicyYAML reads a Policy from a YAML file, applying the same
// defaults sanitizePolicy applies to a Policy built in code.
func LoadPolicyYAML(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file %s: %w", path, err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing policy file %s: %w", path, err)
	}
	return sanitizePolicy(&p), nil
}

// SavePolicyYAML writes policy to path as YAML, for callers that let an
// operator edit allow/deny lists out of band.
func SavePolicyYAML(path string, policy *Policy) error {
	data, err := yaml.Marshal(sanitizePolicy(policy))
	if err != nil {
		return fmt.Errorf("encoding policy: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing policy file %s: %w", path, err)
	}
	return nil
}
