package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/helpers"
	"github.com/cyphera/cyphera-permissions/internal/interfaces"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthorizationEngine owns the in-flight permission requests of every origin
// and turns approved requests into stored grants. At most one request per
// origin, and per id, is pending at any time.
type AuthorizationEngine struct {
	accounts  interfaces.AccountDirectory
	approvals interfaces.ApprovalSurface
	grants    interfaces.GrantStore
	observer  interfaces.AuthorizationObserver
	newID     func() string
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]*PendingRequest
	origins map[string]string

	// writeMu orders store writes with the observer notifications they cause
	writeMu sync.Mutex
}

// EngineOption configures an AuthorizationEngine
type EngineOption func(*AuthorizationEngine)

// WithObserver registers the observer told about every grant change
func WithObserver(observer interfaces.AuthorizationObserver) EngineOption {
	return func(e *AuthorizationEngine) { e.observer = observer }
}

// WithIDGenerator replaces the request id generator
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *AuthorizationEngine) { e.newID = fn }
}

// NewAuthorizationEngine creates an engine over its collaborators
func NewAuthorizationEngine(accounts interfaces.AccountDirectory, approvals interfaces.ApprovalSurface, grants interfaces.GrantStore, opts ...EngineOption) *AuthorizationEngine {
	e := &AuthorizationEngine{
		accounts:  accounts,
		approvals: approvals,
		grants:    grants,
		newID:     func() string { return uuid.New().String() },
		logger:    logger.ForComponent(logger.ComponentEngine),
		pending:   map[string]*PendingRequest{},
		origins:   map[string]string{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PendingRequest is a permission request awaiting a decision. Its completion
// is owned by the engine and happens exactly once.
type PendingRequest struct {
	ID          string
	Origin      string
	Permissions business.RequestedPermissions

	incremental bool
	cancel      context.CancelFunc
	once        sync.Once
	done        chan struct{}
	result      business.SubjectPermissions
	err         error
}

// Done is closed once the request is approved or rejected
func (p *PendingRequest) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request completes or ctx ends. Giving up on the wait
// leaves the request pending.
func (p *PendingRequest) Wait(ctx context.Context) (business.SubjectPermissions, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *PendingRequest) complete(result business.SubjectPermissions, err error) {
	p.once.Do(func() {
		p.result = result
		p.err = err
		close(p.done)
		if p.cancel != nil {
			p.cancel()
		}
	})
}

type requestOptions struct {
	id          string
	incremental bool
}

// RequestOption configures a single permission request
type RequestOption func(*requestOptions)

// WithRequestID uses id instead of a generated request id
func WithRequestID(id string) RequestOption {
	return func(o *requestOptions) { o.id = id }
}

// WithIncremental merges an approved CAIP-25 grant into the origin's existing
// authorization instead of replacing it
func WithIncremental() RequestOption {
	return func(o *requestOptions) { o.incremental = true }
}

// ApproveParams carries the decision of the approval surface
type ApproveParams struct {
	ID          string
	Permissions business.RequestedPermissions
	Accounts    []string
	ChainIDs    []string
}

// RequestPermissions registers a pending request for origin and hands it to
// the approval surface. It fails immediately when origin already has a
// pending request.
func (e *AuthorizationEngine) RequestPermissions(ctx context.Context, origin string, requested business.RequestedPermissions, opts ...RequestOption) (*PendingRequest, error) {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	if !helpers.IsOriginValid(origin) {
		return nil, rpcerrors.InvalidParams("Invalid origin: %q", origin)
	}
	if len(requested) == 0 {
		return nil, rpcerrors.InvalidParams("Must request at least one permission.")
	}
	for _, name := range sortedNames(requested) {
		if !slices.Contains(constants.GrantablePermissions, name) {
			return nil, rpcerrors.MethodNotFound(name)
		}
	}

	req := &PendingRequest{
		ID:          options.id,
		Origin:      origin,
		Permissions: requested.Clone(),
		incremental: options.incremental,
		done:        make(chan struct{}),
	}
	if req.ID == "" {
		req.ID = e.newID()
	}

	e.mu.Lock()
	if _, ok := e.origins[origin]; ok {
		e.mu.Unlock()
		return nil, rpcerrors.ResourceUnavailable("Request of type '%s' already pending for origin %s. Please wait.", constants.ApprovalTypeRequestPermissions, origin)
	}
	if _, ok := e.pending[req.ID]; ok {
		e.mu.Unlock()
		return nil, rpcerrors.ResourceUnavailable("Pending request with id %q already exists.", req.ID)
	}
	e.pending[req.ID] = req
	e.origins[origin] = req.ID
	e.mu.Unlock()

	e.logger.Info("Permission request pending",
		zap.String("request_id", req.ID),
		zap.String("origin", origin),
		zap.Strings("permissions", sortedNames(requested)))

	// cancelled once the request completes, which drops it from the surface
	// when it was decided through the engine directly
	surfaceCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req.cancel = cancel

	go e.awaitDecision(surfaceCtx, req)
	return req, nil
}

// awaitDecision blocks on the approval surface and feeds its decision back
// into the engine
func (e *AuthorizationEngine) awaitDecision(ctx context.Context, req *PendingRequest) {
	result, err := e.approvals.AddAndShowApprovalRequest(ctx, business.ApprovalRequest{
		ID:     req.ID,
		Origin: req.Origin,
		Type:   constants.ApprovalTypeRequestPermissions,
		RequestData: business.ApprovalRequestData{
			Metadata:    business.ApprovalMetadata{ID: req.ID, Origin: req.Origin},
			Permissions: req.Permissions.Clone(),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, rpcerrors.ErrUserRejected) {
			e.RejectPermissionsRequest(req.ID)
			return
		}
		e.logger.Error("Approval surface failed",
			zap.String("request_id", req.ID),
			zap.String("origin", req.Origin),
			zap.Error(err))
		if claimed := e.claim(req.ID); claimed != nil {
			claimed.complete(nil, err)
		}
		return
	}
	if result == nil {
		result = &business.ApprovalResult{}
	}

	if _, err := e.ApprovePermissionsRequest(ctx, ApproveParams{
		ID:          req.ID,
		Permissions: result.Permissions,
		Accounts:    result.Accounts,
		ChainIDs:    result.ChainIDs,
	}); err != nil {
		e.logger.Error("Failed to approve permission request",
			zap.String("request_id", req.ID),
			zap.Error(err))
	}
}

// ApprovePermissionsRequest finalizes and grants the approved permissions of
// a pending request. An unknown id is a no-op. Invalid approvals reject the
// requester only; grant store failures are returned to both the requester and
// the caller.
func (e *AuthorizationEngine) ApprovePermissionsRequest(ctx context.Context, params ApproveParams) (business.SubjectPermissions, error) {
	req := e.claim(params.ID)
	if req == nil {
		e.logger.Debug("Ignoring approval for unknown request", zap.String("request_id", params.ID))
		return nil, nil
	}

	if len(params.Permissions) == 0 {
		req.complete(nil, rpcerrors.InvalidParams("Must request at least one permission."))
		return nil, nil
	}

	finalized, err := e.finalizePermissions(ctx, req, params)
	if err != nil {
		req.complete(nil, err)
		if isPrecondition(err) {
			e.logger.Warn("Rejected invalid approval",
				zap.String("request_id", req.ID),
				zap.String("origin", req.Origin),
				zap.Error(err))
			return nil, nil
		}
		return nil, err
	}

	e.writeMu.Lock()
	granted, err := e.grants.GrantPermissions(ctx, business.GrantPermissionsParams{
		Subject:             req.Origin,
		ApprovedPermissions: finalized,
	})
	if err == nil {
		e.notifyLocked(ctx)
	}
	e.writeMu.Unlock()

	if err != nil {
		err = fmt.Errorf("failed to grant permissions: %w", err)
		req.complete(nil, err)
		return nil, err
	}

	e.logger.Info("Permission request approved",
		zap.String("request_id", req.ID),
		zap.String("origin", req.Origin),
		zap.Strings("permissions", sortedNames(finalized)))
	req.complete(granted, nil)
	return granted, nil
}

// RejectPermissionsRequest rejects a pending request with a user rejection.
// An unknown id is a no-op.
func (e *AuthorizationEngine) RejectPermissionsRequest(id string) {
	req := e.claim(id)
	if req == nil {
		return
	}
	e.logger.Info("Permission request rejected",
		zap.String("request_id", id),
		zap.String("origin", req.Origin))
	req.complete(nil, rpcerrors.UserRejected())
}

// RejectAllPending rejects every pending request
func (e *AuthorizationEngine) RejectAllPending() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.pending))
	for id := range e.pending {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.RejectPermissionsRequest(id)
	}
}

// PendingRequests lists pending requests ordered by origin
func (e *AuthorizationEngine) PendingRequests() []business.ApprovalRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]business.ApprovalRequest, 0, len(e.pending))
	for _, req := range e.pending {
		out = append(out, business.ApprovalRequest{
			ID:     req.ID,
			Origin: req.Origin,
			Type:   constants.ApprovalTypeRequestPermissions,
			RequestData: business.ApprovalRequestData{
				Metadata:    business.ApprovalMetadata{ID: req.ID, Origin: req.Origin},
				Permissions: req.Permissions.Clone(),
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Origin < out[j].Origin })
	return out
}

// HasPendingRequest reports whether origin has a request in flight
func (e *AuthorizationEngine) HasPendingRequest(origin string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.origins[origin]
	return ok
}

// claim removes a pending request from both indexes in one step
func (e *AuthorizationEngine) claim(id string) *PendingRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	req, ok := e.pending[id]
	if !ok {
		return nil
	}
	delete(e.pending, id)
	delete(e.origins, req.Origin)
	return req
}

// finalizePermissions attaches the caveats implied by the approval to each
// approved permission, replacing restrictions of the same kind
func (e *AuthorizationEngine) finalizePermissions(ctx context.Context, req *PendingRequest, params ApproveParams) (business.RequestedPermissions, error) {
	for _, name := range sortedNames(params.Permissions) {
		if _, ok := req.Permissions[name]; !ok {
			return nil, rpcerrors.InvalidParams("Approved permission %s was not requested.", name)
		}
	}

	finalized := params.Permissions.Clone()
	for name, permission := range finalized {
		switch name {
		case constants.PermissionEthAccounts:
			accounts := params.Accounts
			if len(accounts) == 0 {
				accounts = caveatStrings(permission, constants.CaveatRestrictReturnedAccounts)
			}
			validated, err := e.validateAccounts(ctx, accounts)
			if err != nil {
				return nil, err
			}
			finalized[name] = permission.WithCaveat(business.Caveat{
				Type:  constants.CaveatRestrictReturnedAccounts,
				Value: validated,
			})

		case constants.PermissionPermittedChains:
			chains := params.ChainIDs
			if len(chains) == 0 {
				chains = caveatStrings(permission, constants.CaveatRestrictNetworkSwitching)
			}
			validated, err := validateChainIDs(chains)
			if err != nil {
				return nil, err
			}
			finalized[name] = permission.WithCaveat(business.Caveat{
				Type:  constants.CaveatRestrictNetworkSwitching,
				Value: validated,
			})

		case constants.PermissionCaip25:
			authorization, err := e.finalizeAuthorization(ctx, req, permission, params.Accounts)
			if err != nil {
				return nil, err
			}
			finalized[name] = permission.WithCaveat(business.Caveat{
				Type:  constants.CaveatAuthorizedScopes,
				Value: authorization,
			})
		}
	}
	return finalized, nil
}

func (e *AuthorizationEngine) finalizeAuthorization(ctx context.Context, req *PendingRequest, permission business.RequestedPermission, accounts []string) (*caip25.Authorization, error) {
	caveat, ok := permission.FindCaveat(constants.CaveatAuthorizedScopes)
	if !ok {
		return nil, rpcerrors.InvalidParams("Permission %s requires a %s caveat.", constants.PermissionCaip25, constants.CaveatAuthorizedScopes)
	}
	authorization, ok := caveat.Authorization()
	if !ok {
		return nil, rpcerrors.InvalidParams("Invalid %s caveat value.", constants.CaveatAuthorizedScopes)
	}
	if err := authorization.Validate(); err != nil {
		return nil, rpcerrors.InvalidParams("Invalid %s caveat value: %s", constants.CaveatAuthorizedScopes, err.Error())
	}

	if len(accounts) > 0 {
		accountIDs, err := e.accountIDs(ctx, accounts)
		if err != nil {
			return nil, err
		}
		authorization, err = caip25.SetPermittedAccounts(authorization, accountIDs)
		if err != nil {
			return nil, rpcerrors.InvalidParams("%s", err.Error())
		}
	} else if err := e.verifyAuthorizationAccounts(ctx, authorization); err != nil {
		return nil, err
	}

	if req.incremental {
		existing, err := e.grants.GetPermissions(ctx, req.Origin)
		if err != nil {
			return nil, fmt.Errorf("failed to read existing permissions: %w", err)
		}
		if previous, ok := existing[constants.PermissionCaip25].FindCaveat(constants.CaveatAuthorizedScopes); ok {
			if previousAuthorization, ok := previous.Authorization(); ok {
				authorization = caip25.MergeAuthorizations(previousAuthorization, authorization)
			}
		}
	}
	return authorization, nil
}

// accountIDs expands approved addresses into CAIP-10 ids using the scopes the
// directory lists for each account
func (e *AuthorizationEngine) accountIDs(ctx context.Context, addresses []string) ([]string, error) {
	if len(addresses) == 0 {
		return nil, rpcerrors.InvalidParams("Must specify non-empty array of account(s).")
	}
	ids := make([]string, 0, len(addresses))
	for _, address := range addresses {
		account, err := e.lookupAccount(ctx, address)
		if err != nil {
			return nil, err
		}
		for _, scope := range account.Scopes {
			ids = append(ids, scope+":"+account.Address)
		}
	}
	return ids, nil
}

// verifyAuthorizationAccounts checks that every account listed by the
// authorization is known to the directory
func (e *AuthorizationEngine) verifyAuthorizationAccounts(ctx context.Context, authorization *caip25.Authorization) error {
	for _, scopes := range []caip25.ScopesObject{authorization.RequiredScopes, authorization.OptionalScopes} {
		for _, scope := range scopes {
			for _, id := range scope.Accounts {
				account, err := caip25.ParseAccountID(id)
				if err != nil {
					return rpcerrors.InvalidParams("%s", err.Error())
				}
				if _, err := e.lookupAccount(ctx, account.Address); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ValidatePermittedAccounts checks that accounts is non-empty and that every
// address is known to the account directory
func (e *AuthorizationEngine) ValidatePermittedAccounts(ctx context.Context, accounts []string) error {
	_, err := e.validateAccounts(ctx, accounts)
	return err
}

// validateAccounts returns the directory's spelling of each address,
// deduplicated
func (e *AuthorizationEngine) validateAccounts(ctx context.Context, accounts []string) ([]string, error) {
	if len(accounts) == 0 {
		return nil, rpcerrors.InvalidParams("Must specify non-empty array of account(s).")
	}
	validated := make([]string, 0, len(accounts))
	for _, address := range accounts {
		account, err := e.lookupAccount(ctx, address)
		if err != nil {
			return nil, err
		}
		if !slices.ContainsFunc(validated, func(existing string) bool { return strings.EqualFold(existing, account.Address) }) {
			validated = append(validated, account.Address)
		}
	}
	return validated, nil
}

func (e *AuthorizationEngine) lookupAccount(ctx context.Context, address string) (*business.Account, error) {
	if address == "" {
		return nil, rpcerrors.InvalidParams("Invalid empty account address.")
	}
	account, err := e.accounts.GetAccountByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account %s: %w", address, err)
	}
	if account == nil {
		return nil, rpcerrors.InvalidParams("Unknown account: %s", address)
	}
	return account, nil
}

func validateChainIDs(chainIDs []string) ([]string, error) {
	if len(chainIDs) == 0 {
		return nil, rpcerrors.InvalidParams("Must specify non-empty array of chain id(s).")
	}
	validated := make([]string, 0, len(chainIDs))
	for _, chainID := range chainIDs {
		scope, err := caip25.ParseScope(chainID)
		if err != nil || scope.Reference == "" {
			return nil, rpcerrors.InvalidParams("Invalid chain id: %q", chainID)
		}
		if !slices.Contains(validated, chainID) {
			validated = append(validated, chainID)
		}
	}
	return validated, nil
}

// notifyLocked hands the current snapshot to the observer. Callers hold
// writeMu so snapshots reach the observer in write order.
func (e *AuthorizationEngine) notifyLocked(ctx context.Context) {
	if e.observer == nil {
		return
	}
	e.observer.AuthorizationsChanged(ctx, e.grants.AuthorizationSnapshot())
}

func caveatStrings(permission business.RequestedPermission, caveatType string) []string {
	caveat, ok := permission.FindCaveat(caveatType)
	if !ok {
		return nil
	}
	values, _ := caveat.StringValues()
	return values
}

func isPrecondition(err error) bool {
	var rpcErr *rpcerrors.Error
	return errors.As(err, &rpcErr)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
