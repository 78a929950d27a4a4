// Package grantstore persists the authorization engine's Grants: standing
// permissions that let a tool call bypass interactive approval.
package grantstore

import "github.com/agentcore/runtime/pkg/models"

// Store is the grant persistence contract. All methods are fallible.
type Store interface {
	// Save persists grant, replacing any existing equal grant (see
	// models.Grant.Equal) for the same tool.
	Save(grant models.Grant) error
	// Load returns the grants recorded for toolName, in no particular order.
	Load(toolName string) ([]models.Grant, error)
	// LoadAll returns every grant across every tool.
	LoadAll() ([]models.Grant, error)
	// Delete removes grants for toolName. If paramsHash is nil, it removes
	// only tool-wide grants (nil ParamsHash) for that tool; if non-nil, it
	// removes only the exact-match grant for that hash. Reports whether
	// anything was removed.
	Delete(toolName string, paramsHash *string) (bool, error)
	// Clear removes every grant from the store.
	Clear() error
}
