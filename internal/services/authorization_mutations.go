package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/caveats"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"go.uber.org/zap"
)

// caveatTarget names a caveat that a removal can be applied to
type caveatTarget struct {
	permission string
	caveatType string
}

var (
	accountCaveats = []caveatTarget{
		{constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts},
		{constants.PermissionCaip25, constants.CaveatAuthorizedScopes},
	}
	chainCaveats = []caveatTarget{
		{constants.PermissionPermittedChains, constants.CaveatRestrictNetworkSwitching},
		{constants.PermissionCaip25, constants.CaveatAuthorizedScopes},
	}
	sessionPermissions = []string{
		constants.PermissionCaip25,
		constants.PermissionEthAccounts,
		constants.PermissionPermittedChains,
	}
)

// GetPermissions returns the permissions held by origin
func (e *AuthorizationEngine) GetPermissions(ctx context.Context, origin string) (business.SubjectPermissions, error) {
	permissions, err := e.grants.GetPermissions(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}
	return permissions, nil
}

// GetSession returns the CAIP-25 view of origin's grants, or nil when it holds none
func (e *AuthorizationEngine) GetSession(origin string) *caip25.Authorization {
	return e.grants.AuthorizationSnapshot()[origin]
}

// GetPermittedAccounts returns the addresses origin may see, from both its
// eth_accounts and CAIP-25 grants
func (e *AuthorizationEngine) GetPermittedAccounts(ctx context.Context, origin string) ([]string, error) {
	permissions, err := e.GetPermissions(ctx, origin)
	if err != nil {
		return nil, err
	}

	accounts := []string{}
	add := func(address string) {
		if !slices.ContainsFunc(accounts, func(existing string) bool { return strings.EqualFold(existing, address) }) {
			accounts = append(accounts, address)
		}
	}
	if caveat, ok := permissions[constants.PermissionEthAccounts].FindCaveat(constants.CaveatRestrictReturnedAccounts); ok {
		values, _ := caveat.StringValues()
		for _, address := range values {
			add(address)
		}
	}
	if caveat, ok := permissions[constants.PermissionCaip25].FindCaveat(constants.CaveatAuthorizedScopes); ok {
		if authorization, ok := caveat.Authorization(); ok {
			for _, address := range caip25.GetEthAccounts(authorization) {
				add(address)
			}
		}
	}
	return accounts, nil
}

// AddPermittedAccount appends an account to origin's eth_accounts grant
func (e *AuthorizationEngine) AddPermittedAccount(ctx context.Context, origin, address string) error {
	validated, err := e.validateAccounts(ctx, []string{address})
	if err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	caveat, err := e.grants.GetCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts)
	if err != nil {
		return fmt.Errorf("failed to get permitted accounts: %w", err)
	}
	existing, _ := caveat.StringValues()
	if slices.ContainsFunc(existing, func(account string) bool { return strings.EqualFold(account, validated[0]) }) {
		return rpcerrors.InvalidParams("Account is already permitted for origin %s.", origin)
	}

	next := append(slices.Clone(existing), validated[0])
	if err := e.grants.UpdateCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts, next); err != nil {
		return fmt.Errorf("failed to update permitted accounts: %w", err)
	}
	e.notifyLocked(ctx)
	return nil
}

// RemovePermittedAccount removes an account from origin's eth_accounts grant,
// revoking the grant when it was the last account
func (e *AuthorizationEngine) RemovePermittedAccount(ctx context.Context, origin, address string) error {
	if address == "" {
		return rpcerrors.InvalidParams("Invalid empty account address.")
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	caveat, err := e.grants.GetCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts)
	if err != nil {
		return fmt.Errorf("failed to get permitted accounts: %w", err)
	}
	target := caveatTarget{constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts}
	op, err := e.applyMutation(ctx, origin, target, caveats.MutationRemoveAccount, address, caveat.Value)
	if err != nil {
		return err
	}
	if op == caveats.Noop {
		return rpcerrors.InvalidParams("Account is not permitted for origin %s.", origin)
	}
	e.notifyLocked(ctx)
	return nil
}

// RemoveAllAccountPermissions removes an account from every origin's grants.
// It is used when the account leaves the wallet.
func (e *AuthorizationEngine) RemoveAllAccountPermissions(ctx context.Context, address string) error {
	if address == "" {
		return rpcerrors.InvalidParams("Invalid empty account address.")
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	origins, err := e.grants.ListOrigins(ctx)
	if err != nil {
		return fmt.Errorf("failed to list origins: %w", err)
	}

	changed := false
	for _, origin := range origins {
		updated, err := e.removeFromOrigin(ctx, origin, accountCaveats, caveats.MutationRemoveAccount, address)
		if err != nil {
			return err
		}
		changed = changed || updated
	}
	if changed {
		e.notifyLocked(ctx)
	}
	return nil
}

// RemovePermittedChain removes a CAIP-2 chain id from origin's chain grants.
// Grants left without any chain are revoked.
func (e *AuthorizationEngine) RemovePermittedChain(ctx context.Context, origin, chainID string) error {
	if _, err := validateChainIDs([]string{chainID}); err != nil {
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	changed, err := e.removeFromOrigin(ctx, origin, chainCaveats, caveats.MutationRemoveChain, chainID)
	if err != nil {
		return err
	}
	if changed {
		e.notifyLocked(ctx)
	}
	return nil
}

// RevokePermissions revokes the named permissions that origin holds. Names
// it does not hold are ignored.
func (e *AuthorizationEngine) RevokePermissions(ctx context.Context, origin string, names []string) error {
	if len(names) == 0 {
		return rpcerrors.InvalidParams("Must specify at least one permission to revoke.")
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	permissions, err := e.grants.GetPermissions(ctx, origin)
	if err != nil {
		return fmt.Errorf("failed to get permissions: %w", err)
	}

	revoked := 0
	for _, name := range names {
		if _, ok := permissions[name]; !ok {
			continue
		}
		if err := e.grants.RevokePermission(ctx, origin, name); err != nil {
			return fmt.Errorf("failed to revoke %s: %w", name, err)
		}
		revoked++
	}
	if revoked > 0 {
		e.logger.Info("Revoked permissions",
			zap.String("origin", origin),
			zap.Strings("permissions", names))
		e.notifyLocked(ctx)
	}
	return nil
}

// RevokeSession revokes every permission that makes up origin's session
func (e *AuthorizationEngine) RevokeSession(ctx context.Context, origin string) error {
	return e.RevokePermissions(ctx, origin, sessionPermissions)
}

// removeFromOrigin applies a removal to each listed caveat origin holds and
// reports whether anything changed. Callers hold writeMu.
func (e *AuthorizationEngine) removeFromOrigin(ctx context.Context, origin string, targets []caveatTarget, mutation caveats.Mutation, value string) (bool, error) {
	permissions, err := e.grants.GetPermissions(ctx, origin)
	if err != nil {
		return false, fmt.Errorf("failed to get permissions: %w", err)
	}

	changed := false
	for _, target := range targets {
		caveat, ok := permissions[target.permission].FindCaveat(target.caveatType)
		if !ok {
			continue
		}
		op, err := e.applyMutation(ctx, origin, target, mutation, value, caveat.Value)
		if err != nil {
			return false, err
		}
		changed = changed || op != caveats.Noop
	}
	return changed, nil
}

// applyMutation computes the next caveat value and writes it, or revokes the
// permission when nothing would remain. Callers hold writeMu.
func (e *AuthorizationEngine) applyMutation(ctx context.Context, origin string, target caveatTarget, mutation caveats.Mutation, value string, current any) (caveats.Operation, error) {
	result, err := caveats.Apply(target.caveatType, mutation, value, current)
	if err != nil {
		return caveats.Noop, fmt.Errorf("failed to apply %s to %s: %w", mutation, target.caveatType, err)
	}

	switch result.Operation {
	case caveats.UpdateValue:
		if err := e.grants.UpdateCaveat(ctx, origin, target.permission, target.caveatType, result.Value); err != nil {
			return result.Operation, fmt.Errorf("failed to update %s: %w", target.caveatType, err)
		}
	case caveats.RevokePermission:
		if err := e.grants.RevokePermission(ctx, origin, target.permission); err != nil {
			return result.Operation, fmt.Errorf("failed to revoke %s: %w", target.permission, err)
		}
	}

	if result.Operation != caveats.Noop {
		e.logger.Info("Applied caveat mutation",
			zap.String("origin", origin),
			zap.String("permission", target.permission),
			zap.String("caveat_type", target.caveatType),
			zap.String("mutation", string(mutation)),
			zap.String("operation", result.Operation.String()))
	}
	return result.Operation, nil
}
