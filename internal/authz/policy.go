package authz

import "strings"

// Mode selects what the engine does when no grant matches a tool call.
type Mode string

const (
	// AutoDeny is the default, secure-for-non-interactive-use mode: an
	// unmatched call is denied outright.
	AutoDeny Mode = "auto_deny"
	// Interactive registers a pending approval and awaits a human decision.
	Interactive Mode = "interactive"
)

// Policy configures the authorization engine's fallback behavior and the
// pattern lists that can short-circuit it before consulting the grant
// store at all.
type Policy struct {
	// Mode controls the fallback decision when no grant and no pattern
	// below matches. Default: AutoDeny.
	Mode Mode `yaml:"mode" json:"mode"`

	// Allowlist tools are always allowed without consulting grants.
	// Supports "*", "prefix*", "*suffix", and exact-match patterns.
	Allowlist []string `yaml:"allowlist" json:"allowlist"`

	// Denylist tools are always denied, even if a grant exists.
	Denylist []string `yaml:"denylist" json:"denylist"`

	// ApprovalTimeoutSecs bounds how long a PendingApproval proposal waits
	// for a response before being denied with reason "Timeout".
	// Default: 300 (5 minutes).
	ApprovalTimeoutSecs int `yaml:"approval_timeout_secs" json:"approval_timeout_secs"`
}

// DefaultPolicy returns the secure-by-default policy: AutoDeny, no
// allowlist or denylist entries, a 5 minute approval timeout.
func DefaultPolicy() *Policy {
	return &Policy{
		Mode:                AutoDeny,
		ApprovalTimeoutSecs: 300,
	}
}

func sanitizePolicy(p *Policy) *Policy {
	if p == nil {
		return DefaultPolicy()
	}
	cfg := *p
	if cfg.Mode == "" {
		cfg.Mode = AutoDeny
	}
	if cfg.ApprovalTimeoutSecs <= 0 {
		cfg.ApprovalTimeoutSecs = 300
	}
	return &cfg
}

// matchesPattern reports whether toolName matches any pattern in
// patterns. Supports exact match, "*" (match all), "prefix*", and
// "*suffix".
func matchesPattern(patterns []string, toolName string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		switch {
		case pattern == "*":
			return true
		case pattern == toolName:
			return true
		case len(pattern) > 1 && pattern[len(pattern)-1] == '*':
			if strings.HasPrefix(toolName, pattern[:len(pattern)-1]) {
				return true
			}
		case len(pattern) > 1 && pattern[0] == '*':
			if strings.HasSuffix(toolName, pattern[1:]) {
				return true
			}
		}
	}
	return false
}
