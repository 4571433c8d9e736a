package caip25

import "maps"

// MergeAuthorizations combines two independently negotiated grants for the
// same origin into a new record. Scope ids, methods, notifications and
// accounts are unioned in a-then-b order without duplicates,
// IsMultichainOrigin is the logical OR, and session properties are merged
// shallowly with b winning on key collisions. Neither input is modified.
func MergeAuthorizations(a, b *Authorization) *Authorization {
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}

	var props map[string]any
	if a.SessionProperties != nil || b.SessionProperties != nil {
		props = make(map[string]any, len(a.SessionProperties)+len(b.SessionProperties))
		maps.Copy(props, a.SessionProperties)
		maps.Copy(props, b.SessionProperties)
	}

	return &Authorization{
		RequiredScopes:     MergeScopes(a.RequiredScopes, b.RequiredScopes),
		OptionalScopes:     MergeScopes(a.OptionalScopes, b.OptionalScopes),
		IsMultichainOrigin: a.IsMultichainOrigin || b.IsMultichainOrigin,
		SessionProperties:  props,
	}
}

// MergeScopes unions two scopes objects. A scope present in both has its
// methods, notifications and accounts unioned.
func MergeScopes(a, b ScopesObject) ScopesObject {
	out := make(ScopesObject, len(a)+len(b))
	for id, scope := range a {
		out[id] = scope.Clone()
	}
	for id, scope := range b {
		existing, ok := out[id]
		if !ok {
			out[id] = scope.Clone()
			continue
		}
		out[id] = mergeScopeObject(existing, scope)
	}
	return out
}

func mergeScopeObject(a, b ScopeObject) ScopeObject {
	merged := ScopeObject{
		Methods:       unionStrings(a.Methods, b.Methods),
		Notifications: unionStrings(a.Notifications, b.Notifications),
	}
	if accounts := unionStrings(a.Accounts, b.Accounts); len(accounts) > 0 {
		merged.Accounts = accounts
	}
	return merged
}
