package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/mocks"
	"github.com/cyphera/cyphera-permissions/internal/services"
	"github.com/cyphera/cyphera-permissions/internal/testutil"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingHistory captures UpdateAccountsHistory calls
type recordingHistory struct {
	calls map[string][]string
}

func (r *recordingHistory) UpdateAccountsHistory(origin string, accounts []string) {
	if r.calls == nil {
		r.calls = map[string][]string{}
	}
	r.calls[origin] = accounts
}

func flush(t *testing.T, svc *services.NotificationService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testutil.DefaultTimeout)
	defer cancel()
	require.NoError(t, svc.Flush(ctx), "notifications never delivered")
}

// gatedNotifier blocks deliveries to one origin until released
type gatedNotifier struct {
	gated   string
	release chan struct{}

	mu        sync.Mutex
	delivered map[string][]string
}

func (n *gatedNotifier) NotifyOrigin(ctx context.Context, origin string, notification business.Notification) error {
	if origin == n.gated {
		<-n.release
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.delivered == nil {
		n.delivered = map[string][]string{}
	}
	n.delivered[origin] = append(n.delivered[origin], notification.Method)
	return nil
}

func (n *gatedNotifier) methods(origin string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.delivered[origin]...)
}

func evmAuthorization(multichain bool, scopes map[string][]string) *caip25.Authorization {
	optional := caip25.ScopesObject{}
	for id, addresses := range scopes {
		scope := caip25.ScopeObject{Methods: []string{}, Notifications: []string{}}
		for _, address := range addresses {
			scope.Accounts = append(scope.Accounts, id+":"+address)
		}
		optional[id] = scope
	}
	return &caip25.Authorization{
		RequiredScopes:     caip25.ScopesObject{},
		OptionalScopes:     optional,
		IsMultichainOrigin: multichain,
	}
}

func TestNotificationService_AccountsAndChains(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	history := &recordingHistory{}
	svc := services.NewNotificationService(notifier, history)
	ctx := context.Background()

	first := map[string]*caip25.Authorization{
		originA: evmAuthorization(false, map[string][]string{"eip155:1": {addressA}}),
	}
	gomock.InOrder(
		notifier.EXPECT().NotifyOrigin(gomock.Any(), originA, business.Notification{
			Method: constants.NotificationAccountsChanged,
			Params: []string{addressA},
		}).Return(nil),
		notifier.EXPECT().NotifyOrigin(gomock.Any(), originA, business.Notification{
			Method: constants.NotificationChainChanged,
			Params: business.ChainChangedParams{PermittedChains: []string{"eip155:1"}},
		}).Return(nil),
	)
	svc.AuthorizationsChanged(ctx, first)
	assert.Equal(t, []string{addressA}, history.calls[originA])
	flush(t, svc)

	// the same snapshot again is a no-op
	svc.AuthorizationsChanged(ctx, first)
	flush(t, svc)

	// a new chain without account changes only emits chainChanged
	second := map[string]*caip25.Authorization{
		originA: evmAuthorization(false, map[string][]string{"eip155:1": {addressA}, "eip155:10": {addressA}}),
	}
	notifier.EXPECT().NotifyOrigin(gomock.Any(), originA, business.Notification{
		Method: constants.NotificationChainChanged,
		Params: business.ChainChangedParams{PermittedChains: []string{"eip155:1", "eip155:10"}},
	}).Return(nil)
	svc.AuthorizationsChanged(ctx, second)
	flush(t, svc)

	// losing the grant tells the origin it has nothing left
	gomock.InOrder(
		notifier.EXPECT().NotifyOrigin(gomock.Any(), originA, business.Notification{
			Method: constants.NotificationAccountsChanged,
			Params: []string{},
		}).Return(nil),
		notifier.EXPECT().NotifyOrigin(gomock.Any(), originA, business.Notification{
			Method: constants.NotificationChainChanged,
			Params: business.ChainChangedParams{PermittedChains: []string{}},
		}).Return(nil),
	)
	svc.AuthorizationsChanged(ctx, map[string]*caip25.Authorization{})
	flush(t, svc)
}

func TestNotificationService_SessionChanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	svc := services.NewNotificationService(notifier, nil)
	ctx := context.Background()

	before := evmAuthorization(true, map[string][]string{"eip155:1": {addressA}, "eip155:10": {addressA}})
	svc.SetBaseline(map[string]*caip25.Authorization{originA: before})

	after := evmAuthorization(true, map[string][]string{"eip155:1": {addressA}})
	var sessions []business.Notification
	notifier.EXPECT().NotifyOrigin(gomock.Any(), originA, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, n business.Notification) error {
			sessions = append(sessions, n)
			return nil
		}).Times(2)

	svc.AuthorizationsChanged(ctx, map[string]*caip25.Authorization{originA: after})
	flush(t, svc)

	require.Len(t, sessions, 2)
	assert.Equal(t, constants.NotificationChainChanged, sessions[0].Method)
	assert.Equal(t, constants.NotificationSessionChanged, sessions[1].Method)
	params, ok := sessions[1].Params.(business.SessionChangedParams)
	require.True(t, ok)
	assert.Equal(t, after.SessionScopes(), params.SessionScopes)
	assert.Equal(t, caip25.ScopesObject{"eip155:10": before.OptionalScopes["eip155:10"]}, params.RemovedScopes)
}

func TestNotificationService_NotifierFailureIsLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	history := &recordingHistory{}
	svc := services.NewNotificationService(notifier, history)

	notifier.EXPECT().NotifyOrigin(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("queue unavailable")).Times(4)

	svc.AuthorizationsChanged(context.Background(), map[string]*caip25.Authorization{
		originA: evmAuthorization(false, map[string][]string{"eip155:1": {addressA}}),
		originB: evmAuthorization(false, map[string][]string{"eip155:1": {addressB}}),
	})

	flush(t, svc)

	// delivery failures do not block history or later diffs
	assert.Equal(t, []string{addressA}, history.calls[originA])
	assert.Equal(t, []string{addressB}, history.calls[originB])
}

func TestNotificationService_WiredToEngine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	logService, _ := newLogService(t, 0)
	svc := services.NewNotificationService(notifier, logService)
	f := newEngineFixture(t, services.WithObserver(svc))
	ctx := context.Background()

	var methods []string
	notifier.EXPECT().NotifyOrigin(gomock.Any(), originA, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, n business.Notification) error {
			methods = append(methods, n.Method)
			return nil
		}).AnyTimes()

	req, err := f.engine.RequestPermissions(ctx, originA, ethAccountsRequest())
	require.NoError(t, err)
	_, err = f.engine.ApprovePermissionsRequest(ctx, services.ApproveParams{
		ID: req.ID, Permissions: req.Permissions, Accounts: []string{addressA},
	})
	require.NoError(t, err)
	flush(t, svc)

	assert.Equal(t, []string{constants.NotificationAccountsChanged}, methods)
	entry := logService.GetHistory()[originA][constants.PermissionEthAccounts]
	assert.Equal(t, map[string]int64{addressA: startMillis}, entry.Accounts)
	assert.Zero(t, entry.LastApproved)

	require.NoError(t, f.engine.RemovePermittedAccount(ctx, originA, addressA))
	flush(t, svc)
	assert.Equal(t, []string{constants.NotificationAccountsChanged, constants.NotificationAccountsChanged}, methods)
}

func TestNotificationService_SlowOriginDoesNotBlockOthers(t *testing.T) {
	notifier := &gatedNotifier{gated: originA, release: make(chan struct{})}
	svc := services.NewNotificationService(notifier, nil)
	f := newEngineFixture(t, services.WithObserver(svc))
	ctx := context.Background()

	approve := func(origin, address string) error {
		req, err := f.engine.RequestPermissions(ctx, origin, ethAccountsRequest())
		if err != nil {
			return err
		}
		_, err = f.engine.ApprovePermissionsRequest(ctx, services.ApproveParams{
			ID: req.ID, Permissions: req.Permissions, Accounts: []string{address},
		})
		return err
	}

	// originA's delivery is stuck, its grant still lands
	require.NoError(t, approve(originA, addressA))

	done := make(chan error, 1)
	go func() { done <- approve(originB, addressB) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("approval for one origin waited on another origin's notification")
	}

	testutil.Eventually(t, func() bool {
		return len(notifier.methods(originB)) == 1
	}, testutil.DefaultTimeout, "other origin never notified")
	assert.Empty(t, notifier.methods(originA))

	close(notifier.release)
	flush(t, svc)
	assert.Equal(t, []string{constants.NotificationAccountsChanged}, notifier.methods(originA))
	assert.Equal(t, []string{constants.NotificationAccountsChanged}, notifier.methods(originB))
}

func TestNotificationService_PreservesOrderPerOrigin(t *testing.T) {
	notifier := &gatedNotifier{gated: originA, release: make(chan struct{})}
	svc := services.NewNotificationService(notifier, nil)
	ctx := context.Background()

	svc.AuthorizationsChanged(ctx, map[string]*caip25.Authorization{
		originA: evmAuthorization(false, map[string][]string{"eip155:1": {addressA}}),
	})
	svc.AuthorizationsChanged(ctx, map[string]*caip25.Authorization{
		originA: evmAuthorization(false, map[string][]string{"eip155:10": {addressA}}),
	})

	// nothing is delivered yet, so Flush gives up with the context
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Flush(short), context.DeadlineExceeded)

	close(notifier.release)
	flush(t, svc)
	assert.Equal(t, []string{
		constants.NotificationAccountsChanged,
		constants.NotificationChainChanged,
		constants.NotificationChainChanged,
	}, notifier.methods(originA))
}
