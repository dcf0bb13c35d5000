package models

import "strings"

// Scope is a server-recognized scope name. Scopes owned by a client are
// still global names; ClientID only records who registered them.
type Scope struct {
	Name        string  `gorm:"primaryKey;size:128" json:"name"`
	Description string  `gorm:"type:text"           json:"description"`
	ClientID    *string `gorm:"index;size:64"       json:"client_id,omitempty"`
}

func (Scope) TableName() string {
	return "scopes"
}

// ScopeSet is an ordered, duplicate-free list of scope names.
type ScopeSet []string

// ParseScopes splits a space-delimited scope string (RFC 6749 §3.3) and drops
// duplicates, keeping the first occurrence.
func ParseScopes(s string) ScopeSet {
	fields := strings.Fields(s)
	out := make(ScopeSet, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// String renders the set in its wire form.
func (s ScopeSet) String() string {
	return strings.Join(s, " ")
}

func (s ScopeSet) Contains(name string) bool {
	for _, v := range s {
		if v == name {
			return true
		}
	}
	return false
}

// IsSubsetOf reports whether every scope in s is also in other.
func (s ScopeSet) IsSubsetOf(other ScopeSet) bool {
	for _, v := range s {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}
