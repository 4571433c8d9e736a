package caveats

import (
	"github.com/cyphera/cyphera-permissions/internal/caip25"
)

// RemoveAccountFromAuthorization removes an account from every scope of a
// CAIP-25 authorization. The target is either a bare address, which matches
// that address under every scope, or a CAIP-10 account id whose reference may
// be the wildcard "0". The permission is revoked when no scope keeps an
// account.
func RemoveAccountFromAuthorization(target string, authorization *caip25.Authorization) Result[*caip25.Authorization] {
	if authorization == nil {
		return Result[*caip25.Authorization]{Operation: Noop}
	}

	matches := accountMatcher(target)
	next := authorization.Clone()
	changed := false
	for _, scopes := range []caip25.ScopesObject{next.RequiredScopes, next.OptionalScopes} {
		for id, scope := range scopes {
			kept := make([]string, 0, len(scope.Accounts))
			for _, account := range scope.Accounts {
				if matches(account) {
					changed = true
					continue
				}
				kept = append(kept, account)
			}
			if len(kept) == len(scope.Accounts) {
				continue
			}
			if len(kept) == 0 {
				kept = nil
			}
			scope.Accounts = kept
			scopes[id] = scope
		}
	}

	if !changed {
		return Result[*caip25.Authorization]{Operation: Noop}
	}
	if !next.HasAccounts() {
		return Result[*caip25.Authorization]{Operation: RevokePermission}
	}
	return Result[*caip25.Authorization]{Operation: UpdateValue, Value: next}
}

// RemoveScope drops a scope id from an authorization. Losing a required scope,
// or the last scope, revokes the permission.
func RemoveScope(scopeID string, authorization *caip25.Authorization) Result[*caip25.Authorization] {
	if authorization == nil {
		return Result[*caip25.Authorization]{Operation: Noop}
	}
	_, inRequired := authorization.RequiredScopes[scopeID]
	_, inOptional := authorization.OptionalScopes[scopeID]
	if !inRequired && !inOptional {
		return Result[*caip25.Authorization]{Operation: Noop}
	}
	if inRequired {
		return Result[*caip25.Authorization]{Operation: RevokePermission}
	}

	next := authorization.Clone()
	delete(next.OptionalScopes, scopeID)
	if len(next.RequiredScopes) == 0 && len(next.OptionalScopes) == 0 {
		return Result[*caip25.Authorization]{Operation: RevokePermission}
	}
	return Result[*caip25.Authorization]{Operation: UpdateValue, Value: next}
}

// accountMatcher builds the predicate used to find target among CAIP-10 ids.
// A wildcard reference on either side matches any reference of the same
// namespace.
func accountMatcher(target string) func(string) bool {
	targetID, err := caip25.ParseAccountID(target)
	if err != nil {
		return func(account string) bool {
			parsed, err := caip25.ParseAccountID(account)
			if err != nil {
				return account == target
			}
			return parsed.SameAddress(target)
		}
	}

	return func(account string) bool {
		parsed, err := caip25.ParseAccountID(account)
		if err != nil {
			return false
		}
		if parsed.Namespace != targetID.Namespace || !parsed.SameAddress(targetID.Address) {
			return false
		}
		return parsed.Reference == targetID.Reference ||
			parsed.Reference == caip25.WildcardReference ||
			targetID.Reference == caip25.WildcardReference
	}
}
