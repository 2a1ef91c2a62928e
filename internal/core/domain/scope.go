package domain

import "fmt"

// Scope selects which backend a document's chunks live in. The two scopes
// are strictly isolated: no operation ever spans both.
type Scope string

const (
	// ScopeLocal is the embedded index on this machine.
	ScopeLocal Scope = "local"

	// ScopeShared is the team peer reached over HTTP.
	ScopeShared Scope = "shared"
)

// ParseScope validates a scope string. Empty input selects local, the
// private-by-default choice; anything else unrecognised is rejected.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeLocal, nil
	case ScopeLocal:
		return ScopeLocal, nil
	case ScopeShared:
		return ScopeShared, nil
	default:
		return "", fmt.Errorf("%w: scope %q", ErrInvalidScope, s)
	}
}

// Valid reports whether the scope is one of the two known values.
func (s Scope) Valid() bool {
	return s == ScopeLocal || s == ScopeShared
}

// String returns the scope's wire value.
func (s Scope) String() string {
	return string(s)
}
