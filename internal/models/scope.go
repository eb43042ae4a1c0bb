package models

// ScopeKind names the row visibility granted to a caller.
type ScopeKind string

const (
	ScopeSelf       ScopeKind = "SELF"
	ScopeSupervised ScopeKind = "SUPERVISED"
	ScopeAll        ScopeKind = "ALL"
)

// Scope is the resolved row-level visibility of a caller.
//
// SELF restricts rows to UserID. SUPERVISED restricts rows to students whose
// profile links SupervisorID, or whose legacy supervisor name equals
// LegacyName when no supervisor id is set. ALL is unrestricted.
type Scope struct {
	Kind         ScopeKind `json:"kind"`
	Role         UserRole  `json:"role"`
	UserID       string    `json:"user_id,omitempty"`
	SupervisorID string    `json:"supervisor_id,omitempty"`
	LegacyName   string    `json:"legacy_name,omitempty"`
}

// Oversees reports whether the scope covers other users' rows, which is what
// reviewing and exporting require.
func (s Scope) Oversees() bool {
	return s.Kind == ScopeAll || s.Kind == ScopeSupervised
}
