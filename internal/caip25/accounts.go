package caip25

import (
	"slices"
	"strings"
)

// GetEthAccounts returns the unique EVM addresses granted across all scopes,
// in sorted-scope order of first appearance.
func GetEthAccounts(authorization *Authorization) []string {
	if authorization == nil {
		return []string{}
	}

	accounts := make([]string, 0)
	seen := make(map[string]struct{})
	for _, scopes := range []ScopesObject{authorization.RequiredScopes, authorization.OptionalScopes} {
		for _, id := range scopes.IDs() {
			for _, account := range scopes[id].Accounts {
				parsed, err := ParseAccountID(account)
				if err != nil || !parsed.IsEvm() {
					continue
				}
				key := strings.ToLower(parsed.Address)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				accounts = append(accounts, parsed.Address)
			}
		}
	}
	return accounts
}

// GetPermittedChains returns the sorted chain scope ids (those with a
// reference, excluding wallet scopes) granted to the origin.
func GetPermittedChains(authorization *Authorization) []string {
	chains := make([]string, 0)
	for _, id := range authorization.ScopeIDs() {
		scope, err := ParseScope(id)
		if err != nil || scope.Reference == "" || scope.Namespace == NamespaceWallet {
			continue
		}
		chains = append(chains, id)
	}
	return chains
}

// SetPermittedAccounts returns a new authorization whose scopes list exactly
// the given CAIP-10 accounts that each scope covers. Any accounts previously
// listed are replaced. Accounts carrying the wildcard reference are rewritten
// under the concrete scope they are folded into.
func SetPermittedAccounts(authorization *Authorization, accountIDs []string) (*Authorization, error) {
	parsed := make([]AccountID, 0, len(accountIDs))
	for _, id := range accountIDs {
		account, err := ParseAccountID(id)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, account)
	}

	next := authorization.Clone()
	if next == nil {
		return nil, errNilAuthorization
	}
	for _, scopes := range []ScopesObject{next.RequiredScopes, next.OptionalScopes} {
		for id, scopeObject := range scopes {
			scope, err := ParseScope(id)
			if err != nil {
				return nil, err
			}
			scopeObject.Accounts = accountsForScope(scope, parsed)
			scopes[id] = scopeObject
		}
	}
	return next, nil
}

func accountsForScope(scope Scope, accounts []AccountID) []string {
	var out []string
	for _, account := range accounts {
		if !scope.Covers(account) {
			continue
		}
		id := scope.AccountPrefix(account) + ":" + account.Address
		if slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
