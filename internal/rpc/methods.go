package rpc

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/cyphera/cyphera-permissions/internal/services"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
)

// requestPermissionsParams is the first positional param of
// wallet_requestPermissions
type requestPermissionsParams struct {
	Permissions business.RequestedPermissions `validate:"required,min=1"`
}

func (p *requestPermissionsParams) UnmarshalJSON(data []byte) error {
	return firstParam(data, &p.Permissions)
}

// revokePermissionsParams lists the permission names of the first positional
// param of wallet_revokePermissions
type revokePermissionsParams struct {
	Names []string `validate:"required,min=1,dive,required"`
}

func (p *revokePermissionsParams) UnmarshalJSON(data []byte) error {
	var requested map[string]json.RawMessage
	if err := firstParam(data, &requested); err != nil {
		return err
	}
	p.Names = make([]string, 0, len(requested))
	for name := range requested {
		p.Names = append(p.Names, name)
	}
	sort.Strings(p.Names)
	return nil
}

type createSessionParams struct {
	RequiredScopes    caip25.ScopesObject `json:"requiredScopes" validate:"required_without=OptionalScopes"`
	OptionalScopes    caip25.ScopesObject `json:"optionalScopes" validate:"required_without=RequiredScopes"`
	SessionProperties map[string]any      `json:"sessionProperties"`
}

// SessionResult is returned by wallet_createSession and wallet_getSession
type SessionResult struct {
	SessionScopes     caip25.ScopesObject `json:"sessionScopes"`
	SessionProperties map[string]any      `json:"sessionProperties,omitempty"`
}

func (d *Dispatcher) registerMethods() {
	register(d, constants.MethodRequestPermissions, d.requestPermissions)
	registerNoParams(d, constants.MethodGetPermissions, d.getPermissions)
	register(d, constants.MethodRevokePermissions, d.revokePermissions)
	registerNoParams(d, constants.MethodEthAccounts, d.ethAccounts)
	registerNoParams(d, constants.MethodEthRequestAccounts, d.ethRequestAccounts)
	register(d, constants.MethodCreateSession, d.createSession)
	registerNoParams(d, constants.MethodGetSession, d.getSession)
	registerNoParams(d, constants.MethodRevokeSession, d.revokeSession)
}

func (d *Dispatcher) requestPermissions(ctx context.Context, origin string, params *requestPermissionsParams) (any, error) {
	granted, err := d.requestAndWait(ctx, origin, params.Permissions, services.WithIncremental())
	if err != nil {
		return nil, err
	}
	return permissionList(granted), nil
}

func (d *Dispatcher) getPermissions(ctx context.Context, origin string) (any, error) {
	permissions, err := d.engine.GetPermissions(ctx, origin)
	if err != nil {
		return nil, err
	}
	return permissionList(permissions), nil
}

func (d *Dispatcher) revokePermissions(ctx context.Context, origin string, params *revokePermissionsParams) (any, error) {
	if err := d.engine.RevokePermissions(ctx, origin, params.Names); err != nil {
		return nil, err
	}
	return nil, nil
}

func (d *Dispatcher) ethAccounts(ctx context.Context, origin string) (any, error) {
	return d.engine.GetPermittedAccounts(ctx, origin)
}

// ethRequestAccounts returns the permitted accounts, asking for eth_accounts
// first when the origin has none
func (d *Dispatcher) ethRequestAccounts(ctx context.Context, origin string) (any, error) {
	accounts, err := d.engine.GetPermittedAccounts(ctx, origin)
	if err != nil || len(accounts) > 0 {
		return accounts, err
	}

	if _, err := d.requestAndWait(ctx, origin, business.RequestedPermissions{constants.PermissionEthAccounts: {}}); err != nil {
		return nil, err
	}
	return d.engine.GetPermittedAccounts(ctx, origin)
}

func (d *Dispatcher) createSession(ctx context.Context, origin string, params *createSessionParams) (any, error) {
	requested := &caip25.Authorization{
		RequiredScopes:     params.RequiredScopes.Clone(),
		OptionalScopes:     params.OptionalScopes.Clone(),
		IsMultichainOrigin: true,
		SessionProperties:  params.SessionProperties,
	}
	if err := requested.Validate(); err != nil {
		return nil, rpcerrors.InvalidParams("Invalid params: %s", err.Error())
	}

	_, err := d.requestAndWait(ctx, origin, business.RequestedPermissions{
		constants.PermissionCaip25: business.RequestedPermission{}.WithCaveat(business.Caveat{
			Type:  constants.CaveatAuthorizedScopes,
			Value: requested,
		}),
	})
	if err != nil {
		return nil, err
	}
	return sessionResult(d.engine.GetSession(origin)), nil
}

func (d *Dispatcher) getSession(_ context.Context, origin string) (any, error) {
	return sessionResult(d.engine.GetSession(origin)), nil
}

func (d *Dispatcher) revokeSession(ctx context.Context, origin string) (any, error) {
	if err := d.engine.RevokeSession(ctx, origin); err != nil {
		return nil, err
	}
	return true, nil
}

func (d *Dispatcher) requestAndWait(ctx context.Context, origin string, requested business.RequestedPermissions, opts ...services.RequestOption) (business.SubjectPermissions, error) {
	pending, err := d.engine.RequestPermissions(ctx, origin, requested, opts...)
	if err != nil {
		return nil, err
	}
	return pending.Wait(ctx)
}

func sessionResult(authorization *caip25.Authorization) SessionResult {
	result := SessionResult{SessionScopes: authorization.SessionScopes()}
	if authorization != nil {
		result.SessionProperties = authorization.SessionProperties
	}
	return result
}

// permissionList orders permissions by name
func permissionList(permissions business.SubjectPermissions) []business.Permission {
	names := permissions.Names()
	sort.Strings(names)
	out := make([]business.Permission, 0, len(names))
	for _, name := range names {
		out = append(out, permissions[name])
	}
	return out
}
