package store

import (
	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
)

// legacyScope holds eth_accounts grants that carry no chain restriction
const legacyScope = caip25.NamespaceWallet + ":" + caip25.NamespaceEip155

// deriveAuthorization returns the CAIP-25 view of a subject's permissions.
// A stored authorizedScopes caveat is returned as is, so an unchanged caveat
// keeps its identity across writes. Otherwise eth_accounts and permitted
// chains grants are folded into an equivalent authorization.
func deriveAuthorization(permissions business.SubjectPermissions) *caip25.Authorization {
	if permission, ok := permissions[constants.PermissionCaip25]; ok {
		if caveat, ok := permission.FindCaveat(constants.CaveatAuthorizedScopes); ok {
			if authorization, ok := caveat.Authorization(); ok {
				return authorization
			}
		}
	}

	accounts := caveatValues(permissions, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts)
	chains := caveatValues(permissions, constants.PermissionPermittedChains, constants.CaveatRestrictNetworkSwitching)
	if len(accounts) == 0 && len(chains) == 0 {
		return nil
	}

	scopes := caip25.ScopesObject{}
	if len(chains) == 0 {
		scopes[legacyScope] = caip25.ScopeObject{
			Methods:       []string{},
			Notifications: []string{},
			Accounts:      prefixAccounts(legacyScope, accounts),
		}
	}
	for _, chain := range chains {
		scopes[chain] = caip25.ScopeObject{
			Methods:       []string{},
			Notifications: []string{},
			Accounts:      prefixAccounts(chain, accounts),
		}
	}
	return &caip25.Authorization{
		RequiredScopes: caip25.ScopesObject{},
		OptionalScopes: scopes,
	}
}

func caveatValues(permissions business.SubjectPermissions, permissionName, caveatType string) []string {
	permission, ok := permissions[permissionName]
	if !ok {
		return nil
	}
	caveat, ok := permission.FindCaveat(caveatType)
	if !ok {
		return nil
	}
	values, _ := caveat.StringValues()
	return values
}

func prefixAccounts(scope string, addresses []string) []string {
	if len(addresses) == 0 {
		return nil
	}
	out := make([]string, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, scope+":"+address)
	}
	return out
}
