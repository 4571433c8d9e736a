package rpc_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cyphera/cyphera-permissions/internal/approvals"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/rpc"
	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/cyphera/cyphera-permissions/internal/services"
	"github.com/cyphera/cyphera-permissions/internal/store"
	"github.com/cyphera/cyphera-permissions/internal/testutil"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

const (
	origin   = "https://dapp.example.com"
	addressA = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

type fixture struct {
	dispatcher *rpc.Dispatcher
	engine     *services.AuthorizationEngine
	queue      *approvals.Queue
	log        *services.PermissionLogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	directory, err := store.NewStaticAccountDirectory([]string{"eip155:1:" + addressA})
	require.NoError(t, err)
	queue := approvals.NewQueue()
	t.Cleanup(queue.Close)

	engine := services.NewAuthorizationEngine(directory, queue, store.NewMemoryGrantStore())
	log := services.NewPermissionLogService(services.PermissionLogConfig{
		Clock: testutil.NewFakeClockMillis(1_700_000_000_000),
	})
	return &fixture{
		dispatcher: rpc.NewDispatcher(engine, log),
		engine:     engine,
		queue:      queue,
		log:        log,
	}
}

func request(method, params string) business.RPCRequest {
	req := business.RPCRequest{ID: json.RawMessage(`1`), JSONRPC: "2.0", Method: method, Origin: origin}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

func (f *fixture) dispatchAsync(ctx context.Context, req business.RPCRequest) <-chan business.RPCResponse {
	out := make(chan business.RPCResponse, 1)
	go func() { out <- f.dispatcher.Dispatch(ctx, req) }()
	return out
}

func (f *fixture) awaitApproval(t *testing.T) business.ApprovalRequest {
	t.Helper()
	testutil.Eventually(t, func() bool { return len(f.queue.List()) > 0 }, testutil.DefaultTimeout, "no approval request")
	return f.queue.List()[0]
}

func TestDispatch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		params   string
		wantCode int
	}{
		{name: "unknown method", method: "eth_sendTransaction", wantCode: rpcerrors.CodeMethodNotFound},
		{name: "unknown wallet method", method: "wallet_switchEthereumChain", params: `[]`, wantCode: rpcerrors.CodeMethodNotFound},
		{name: "request permissions without params", method: constants.MethodRequestPermissions, wantCode: rpcerrors.CodeInvalidParams},
		{name: "request permissions with object params", method: constants.MethodRequestPermissions, params: `{"eth_accounts":{}}`, wantCode: rpcerrors.CodeInvalidParams},
		{name: "request permissions with empty array", method: constants.MethodRequestPermissions, params: `[]`, wantCode: rpcerrors.CodeInvalidParams},
		{name: "request permissions with nothing requested", method: constants.MethodRequestPermissions, params: `[{}]`, wantCode: rpcerrors.CodeInvalidParams},
		{name: "request permissions with bad caveat", method: constants.MethodRequestPermissions, params: `[{"eth_accounts":{"caveats":[{"type":"restrictReturnedAccounts","value":"0xabc"}]}}]`, wantCode: rpcerrors.CodeInvalidParams},
		{name: "revoke nothing", method: constants.MethodRevokePermissions, params: `[{}]`, wantCode: rpcerrors.CodeInvalidParams},
		{name: "create session without scopes", method: constants.MethodCreateSession, params: `{}`, wantCode: rpcerrors.CodeInvalidParams},
		{name: "create session with invalid scope", method: constants.MethodCreateSession, params: `{"optionalScopes":{"not a scope":{"methods":[],"notifications":[]}}}`, wantCode: rpcerrors.CodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res := f.dispatcher.Dispatch(context.Background(), request(tt.method, tt.params))

			require.NotNil(t, res.Error)
			assert.Equal(t, tt.wantCode, res.Error.Code)
			assert.Nil(t, res.Result)
			assert.Equal(t, json.RawMessage(`1`), res.ID)
			assert.Empty(t, f.queue.List())
		})
	}
}

func TestDispatch_RequestPermissionsFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.dispatchAsync(ctx, request(constants.MethodRequestPermissions, `[{"eth_accounts":{}}]`))
	approval := f.awaitApproval(t)
	assert.Equal(t, origin, approval.Origin)
	require.NoError(t, f.queue.Approve(approval.ID, business.ApprovalResult{Accounts: []string{addressA}}))

	res := testutil.RequireReceive(t, out, testutil.DefaultTimeout, "no response")
	require.Nil(t, res.Error)
	granted, ok := res.Result.([]business.Permission)
	require.True(t, ok)
	require.Len(t, granted, 1)
	assert.Equal(t, constants.PermissionEthAccounts, granted[0].ParentCapability)

	res = f.dispatcher.Dispatch(ctx, request(constants.MethodEthAccounts, ""))
	require.Nil(t, res.Error)
	assert.Equal(t, []string{addressA}, res.Result)

	res = f.dispatcher.Dispatch(ctx, request(constants.MethodGetPermissions, ""))
	require.Nil(t, res.Error)
	assert.Len(t, res.Result, 1)

	res = f.dispatcher.Dispatch(ctx, request(constants.MethodRevokePermissions, `[{"eth_accounts":{}}]`))
	require.Nil(t, res.Error)
	assert.Nil(t, res.Result)

	res = f.dispatcher.Dispatch(ctx, request(constants.MethodEthAccounts, ""))
	require.Nil(t, res.Error)
	assert.Equal(t, []string{}, res.Result)

	// every call went through the activity log, and the grant reached history
	activity := f.log.GetActivityLog()
	require.Len(t, activity, 5)
	assert.Equal(t, constants.MethodRequestPermissions, activity[0].Method)
	require.NotNil(t, activity[0].Success)
	assert.True(t, *activity[0].Success)
	assert.Contains(t, f.log.GetHistory()[origin][constants.PermissionEthAccounts].Accounts, addressA)
}

func TestDispatch_UserRejects(t *testing.T) {
	f := newFixture(t)

	out := f.dispatchAsync(context.Background(), request(constants.MethodRequestPermissions, `[{"eth_accounts":{}}]`))
	require.NoError(t, f.queue.Reject(f.awaitApproval(t).ID))

	res := testutil.RequireReceive(t, out, testutil.DefaultTimeout, "no response")
	require.NotNil(t, res.Error)
	assert.Equal(t, rpcerrors.CodeUserRejected, res.Error.Code)
	assert.Empty(t, f.log.GetHistory())

	activity := f.log.GetActivityLog()
	require.Len(t, activity, 1)
	require.NotNil(t, activity[0].Success)
	assert.False(t, *activity[0].Success)
}

func TestDispatch_SecondRequestWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.dispatchAsync(ctx, request(constants.MethodRequestPermissions, `[{"eth_accounts":{}}]`))
	approval := f.awaitApproval(t)

	res := f.dispatcher.Dispatch(ctx, request(constants.MethodEthRequestAccounts, ""))
	require.NotNil(t, res.Error)
	assert.Equal(t, rpcerrors.CodeResourceUnavailable, res.Error.Code)

	require.NoError(t, f.queue.Approve(approval.ID, business.ApprovalResult{Accounts: []string{addressA}}))
	res = testutil.RequireReceive(t, first, testutil.DefaultTimeout, "no response")
	assert.Nil(t, res.Error)
}

func TestDispatch_EthRequestAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.dispatchAsync(ctx, request(constants.MethodEthRequestAccounts, ""))
	approval := f.awaitApproval(t)
	assert.Contains(t, approval.RequestData.Permissions, constants.PermissionEthAccounts)
	require.NoError(t, f.queue.Approve(approval.ID, business.ApprovalResult{Accounts: []string{addressA}}))

	res := testutil.RequireReceive(t, out, testutil.DefaultTimeout, "no response")
	require.Nil(t, res.Error)
	assert.Equal(t, []string{addressA}, res.Result)

	// already permitted accounts are returned without asking again
	res = f.dispatcher.Dispatch(ctx, request(constants.MethodEthRequestAccounts, ""))
	require.Nil(t, res.Error)
	assert.Equal(t, []string{addressA}, res.Result)
	assert.Empty(t, f.queue.List())

	history := f.log.GetHistory()[origin][constants.PermissionEthAccounts]
	assert.NotZero(t, history.LastApproved)
	assert.Contains(t, history.Accounts, addressA)
}

func TestDispatch_SessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.dispatchAsync(ctx, request(constants.MethodCreateSession,
		`{"optionalScopes":{"eip155:1":{"methods":["eth_sendTransaction"],"notifications":[]}},"sessionProperties":{"expiry":"never"}}`))
	approval := f.awaitApproval(t)
	require.NoError(t, f.queue.Approve(approval.ID, business.ApprovalResult{Accounts: []string{addressA}}))

	res := testutil.RequireReceive(t, out, testutil.DefaultTimeout, "no response")
	require.Nil(t, res.Error)
	session, ok := res.Result.(rpc.SessionResult)
	require.True(t, ok)
	assert.Equal(t, []string{"eip155:1:" + addressA}, session.SessionScopes["eip155:1"].Accounts)
	assert.Equal(t, map[string]any{"expiry": "never"}, session.SessionProperties)
	assert.True(t, f.engine.GetSession(origin).IsMultichainOrigin)

	res = f.dispatcher.Dispatch(ctx, request(constants.MethodGetSession, ""))
	require.Nil(t, res.Error)
	assert.Equal(t, session.SessionScopes, res.Result.(rpc.SessionResult).SessionScopes)

	res = f.dispatcher.Dispatch(ctx, request(constants.MethodRevokeSession, ""))
	require.Nil(t, res.Error)
	assert.Equal(t, true, res.Result)

	res = f.dispatcher.Dispatch(ctx, request(constants.MethodGetSession, ""))
	require.Nil(t, res.Error)
	assert.Empty(t, res.Result.(rpc.SessionResult).SessionScopes)

	assert.Contains(t, f.log.GetHistory()[origin], constants.PermissionCaip25)
}

func TestDispatch_AbandonedWaitKeepsRequestPending(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	out := f.dispatchAsync(ctx, request(constants.MethodRequestPermissions, `[{"eth_accounts":{}}]`))
	f.awaitApproval(t)
	cancel()

	res := testutil.RequireReceive(t, out, testutil.DefaultTimeout, "no response")
	require.NotNil(t, res.Error)
	assert.Equal(t, rpcerrors.CodeResourceUnavailable, res.Error.Code)
	assert.True(t, f.engine.HasPendingRequest(origin))
	assert.Len(t, f.queue.List(), 1)
}

func TestDispatcher_Supports(t *testing.T) {
	f := newFixture(t)
	for _, method := range []string{
		constants.MethodRequestPermissions,
		constants.MethodGetPermissions,
		constants.MethodRevokePermissions,
		constants.MethodEthAccounts,
		constants.MethodEthRequestAccounts,
		constants.MethodCreateSession,
		constants.MethodGetSession,
		constants.MethodRevokeSession,
	} {
		assert.True(t, f.dispatcher.Supports(method), method)
	}
	assert.False(t, f.dispatcher.Supports("eth_sign"))
}
