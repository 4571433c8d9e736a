package caip25

import "reflect"

// ScopesDiff is the projection of an Authorization used by account and chain
// change notifications. Session properties and origin flags are not diffed.
type ScopesDiff struct {
	RequiredScopes ScopesObject `json:"requiredScopes"`
	OptionalScopes ScopesObject `json:"optionalScopes"`
}

// IsEmpty reports whether neither map holds a scope.
func (d ScopesDiff) IsEmpty() bool {
	return len(d.RequiredScopes) == 0 && len(d.OptionalScopes) == 0
}

// DiffMap returns the entries of current that changed relative to previous.
//
// A nil previous means "never observed" and yields current unchanged. When
// both arguments are the same map the result is empty. Otherwise a key is
// reported when its value differs by == (pointer identity for pointer
// values), when it vanished from current (reported with the zero value), or
// when it is new in current.
func DiffMap[K comparable, V comparable](current, previous map[K]V) map[K]V {
	return DiffMapFunc(current, previous, func(a, b V) bool { return a == b })
}

// DiffMapFunc is DiffMap with an explicit equality function, for value types
// that are not comparable.
func DiffMapFunc[K comparable, V any](current, previous map[K]V, equal func(a, b V) bool) map[K]V {
	if previous == nil {
		return current
	}
	if sameMap(current, previous) {
		return map[K]V{}
	}

	changes := make(map[K]V)
	for key, previousValue := range previous {
		currentValue, ok := current[key]
		if !ok || !equal(currentValue, previousValue) {
			changes[key] = currentValue
		}
	}
	for key, currentValue := range current {
		if _, ok := previous[key]; !ok {
			changes[key] = currentValue
		}
	}
	return changes
}

// sameMap reports whether two map values share the same underlying map.
func sameMap[K comparable, V any](a, b map[K]V) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// DiffAuthorizations reports, per origin, the scopes of every authorization
// that changed between the two snapshots. Origins whose authorization was
// removed map to an empty ScopesDiff.
func DiffAuthorizations(current, previous map[string]*Authorization) map[string]ScopesDiff {
	changed := DiffMap(current, previous)
	result := make(map[string]ScopesDiff, len(changed))
	for origin, authorization := range changed {
		result[origin] = projectScopes(authorization)
	}
	return result
}

// RemovedScopes reports, per origin present in previous, the scopes that
// existed there but are absent from current. An origin that disappeared
// entirely reports all of its previous scopes. Origins that lost nothing are
// omitted.
func RemovedScopes(current, previous map[string]*Authorization) map[string]ScopesDiff {
	removed := make(map[string]ScopesDiff)
	if sameMap(current, previous) {
		return removed
	}

	for origin, previousAuthorization := range previous {
		if previousAuthorization == nil {
			continue
		}
		currentAuthorization := current[origin]
		if currentAuthorization == previousAuthorization {
			continue
		}

		currentScopes := projectScopes(currentAuthorization)
		diff := ScopesDiff{
			RequiredScopes: missingScopes(previousAuthorization.RequiredScopes, currentScopes.RequiredScopes),
			OptionalScopes: missingScopes(previousAuthorization.OptionalScopes, currentScopes.OptionalScopes),
		}
		if diff.IsEmpty() {
			continue
		}
		removed[origin] = diff
	}
	return removed
}

func projectScopes(authorization *Authorization) ScopesDiff {
	if authorization == nil {
		return ScopesDiff{RequiredScopes: ScopesObject{}, OptionalScopes: ScopesObject{}}
	}
	return ScopesDiff{
		RequiredScopes: authorization.RequiredScopes,
		OptionalScopes: authorization.OptionalScopes,
	}
}

func missingScopes(previous, current ScopesObject) ScopesObject {
	missing := ScopesObject{}
	for id, scope := range previous {
		if _, ok := current[id]; !ok {
			missing[id] = scope
		}
	}
	return missing
}
