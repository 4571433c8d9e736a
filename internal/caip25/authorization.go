// Package caip25 models CAIP-25 authorization records and the pure algebra
// over them: snapshot diffing, removed-scope detection, merging, and folding
// approved accounts into scopes.
//
// An *Authorization is treated as an immutable value. Every change produces a
// new record so that callers holding snapshots can detect "no change" by
// pointer comparison alone.
package caip25

import (
	"maps"
	"slices"
)

// ScopeObject describes what an origin may do within one scope.
type ScopeObject struct {
	Methods       []string `json:"methods"`
	Notifications []string `json:"notifications"`
	Accounts      []string `json:"accounts,omitempty"`
}

// ScopesObject maps scope ids (CAIP-2 chain ids or namespaces) to their descriptors.
type ScopesObject map[string]ScopeObject

// Authorization is the CAIP-25 grant held by one origin.
type Authorization struct {
	RequiredScopes     ScopesObject   `json:"requiredScopes"`
	OptionalScopes     ScopesObject   `json:"optionalScopes"`
	IsMultichainOrigin bool           `json:"isMultichainOrigin"`
	SessionProperties  map[string]any `json:"sessionProperties,omitempty"`
}

// Clone returns a deep copy of the scope descriptor.
func (s ScopeObject) Clone() ScopeObject {
	return ScopeObject{
		Methods:       cloneStrings(s.Methods),
		Notifications: cloneStrings(s.Notifications),
		Accounts:      slices.Clone(s.Accounts),
	}
}

// Clone returns a deep copy of the scopes object. A nil receiver yields an
// empty, non-nil map.
func (s ScopesObject) Clone() ScopesObject {
	out := make(ScopesObject, len(s))
	for id, scope := range s {
		out[id] = scope.Clone()
	}
	return out
}

// IDs returns the scope ids in sorted order.
func (s ScopesObject) IDs() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns a deep copy of the authorization. Session property values
// are copied shallowly.
func (a *Authorization) Clone() *Authorization {
	if a == nil {
		return nil
	}
	var props map[string]any
	if a.SessionProperties != nil {
		props = maps.Clone(a.SessionProperties)
	}
	return &Authorization{
		RequiredScopes:     a.RequiredScopes.Clone(),
		OptionalScopes:     a.OptionalScopes.Clone(),
		IsMultichainOrigin: a.IsMultichainOrigin,
		SessionProperties:  props,
	}
}

// ScopeIDs returns the sorted union of required and optional scope ids.
func (a *Authorization) ScopeIDs() []string {
	if a == nil {
		return nil
	}
	ids := make(map[string]struct{}, len(a.RequiredScopes)+len(a.OptionalScopes))
	for id := range a.RequiredScopes {
		ids[id] = struct{}{}
	}
	for id := range a.OptionalScopes {
		ids[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(ids))
}

// SessionScopes merges required and optional scopes into the single view
// reported to multichain origins.
func (a *Authorization) SessionScopes() ScopesObject {
	if a == nil {
		return ScopesObject{}
	}
	return MergeScopes(a.RequiredScopes, a.OptionalScopes)
}

// HasAccounts reports whether any scope carries at least one account.
func (a *Authorization) HasAccounts() bool {
	if a == nil {
		return false
	}
	for _, scopes := range []ScopesObject{a.RequiredScopes, a.OptionalScopes} {
		for _, scope := range scopes {
			if len(scope.Accounts) > 0 {
				return true
			}
		}
	}
	return false
}

// Validate checks every scope id and account id of the authorization, and
// that each account belongs to the scope it is listed under.
func (a *Authorization) Validate() error {
	if a == nil {
		return errNilAuthorization
	}
	if len(a.RequiredScopes) == 0 && len(a.OptionalScopes) == 0 {
		return errNoScopes
	}
	for _, scopes := range []ScopesObject{a.RequiredScopes, a.OptionalScopes} {
		for id, scope := range scopes {
			parsed, err := ParseScope(id)
			if err != nil {
				return err
			}
			for _, account := range scope.Accounts {
				accountID, err := ParseAccountID(account)
				if err != nil {
					return err
				}
				if !parsed.Covers(accountID) {
					return &ScopeMismatchError{Scope: id, Account: account}
				}
			}
		}
	}
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}

// unionStrings concatenates a then b, dropping duplicates while keeping the
// first occurrence.
func unionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, value := range list {
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}
