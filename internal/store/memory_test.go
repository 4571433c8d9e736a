package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/store"
	"github.com/cyphera/cyphera-permissions/internal/testutil"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

const origin = "https://dapp.example.com"

func accountsPermission(accounts ...string) business.RequestedPermissions {
	return business.RequestedPermissions{
		constants.PermissionEthAccounts: {
			Caveats: []business.Caveat{{Type: constants.CaveatRestrictReturnedAccounts, Value: accounts}},
		},
	}
}

type fakePersister struct {
	saved   map[string]business.SubjectPermissions
	deleted []string
	loaded  map[string]business.SubjectPermissions
	err     error
}

func (f *fakePersister) SaveSubject(_ context.Context, origin string, permissions business.SubjectPermissions) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string]business.SubjectPermissions{}
	}
	f.saved[origin] = permissions
	return nil
}

func (f *fakePersister) DeleteSubject(_ context.Context, origin string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, origin)
	return nil
}

func (f *fakePersister) LoadSubjects(context.Context) (map[string]business.SubjectPermissions, error) {
	return f.loaded, f.err
}

func TestMemoryGrantStore_GrantPermissions(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewFakeClockMillis(1000)
	s := store.NewMemoryGrantStore(store.WithClock(clock))

	granted, err := s.GrantPermissions(ctx, business.GrantPermissionsParams{
		Subject:             origin,
		ApprovedPermissions: accountsPermission("0xA"),
	})
	require.NoError(t, err)
	require.Contains(t, granted, constants.PermissionEthAccounts)

	permission := granted[constants.PermissionEthAccounts]
	assert.Equal(t, origin, permission.Invoker)
	assert.Equal(t, constants.PermissionEthAccounts, permission.ParentCapability)
	assert.Equal(t, int64(1000), permission.Date)
	assert.NotEmpty(t, permission.ID)

	caveat, err := s.GetCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xA"}, caveat.Value)

	origins, err := s.ListOrigins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{origin}, origins)
}

func TestMemoryGrantStore_GrantPermissionsValidation(t *testing.T) {
	s := store.NewMemoryGrantStore()

	_, err := s.GrantPermissions(context.Background(), business.GrantPermissionsParams{ApprovedPermissions: accountsPermission("0xA")})
	assert.ErrorContains(t, err, "subject is required")

	_, err = s.GrantPermissions(context.Background(), business.GrantPermissionsParams{Subject: origin})
	assert.ErrorContains(t, err, "at least one permission")
}

func TestMemoryGrantStore_GetCaveatErrors(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryGrantStore()

	_, err := s.GetCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts)
	assert.ErrorIs(t, err, store.ErrSubjectNotFound)

	_, err = s.GrantPermissions(ctx, business.GrantPermissionsParams{Subject: origin, ApprovedPermissions: accountsPermission("0xA")})
	require.NoError(t, err)

	_, err = s.GetCaveat(ctx, origin, constants.PermissionPermittedChains, constants.CaveatRestrictNetworkSwitching)
	assert.ErrorIs(t, err, store.ErrPermissionNotFound)

	_, err = s.GetCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictNetworkSwitching)
	assert.ErrorIs(t, err, store.ErrCaveatNotFound)

	err = s.UpdateCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictNetworkSwitching, []string{})
	assert.ErrorIs(t, err, store.ErrCaveatNotFound)
}

func TestMemoryGrantStore_UpdateCaveatReplacesValue(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryGrantStore()
	_, err := s.GrantPermissions(ctx, business.GrantPermissionsParams{Subject: origin, ApprovedPermissions: accountsPermission("0xA", "0xB")})
	require.NoError(t, err)

	before, err := s.GetPermissions(ctx, origin)
	require.NoError(t, err)

	require.NoError(t, s.UpdateCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts, []string{"0xB"}))

	caveat, err := s.GetCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xB"}, caveat.Value)

	// earlier reads are unaffected
	previous, _ := before[constants.PermissionEthAccounts].FindCaveat(constants.CaveatRestrictReturnedAccounts)
	assert.Equal(t, []string{"0xA", "0xB"}, previous.Value)
}

func TestMemoryGrantStore_RevokeLastPermissionDropsSubject(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryGrantStore()
	_, err := s.GrantPermissions(ctx, business.GrantPermissionsParams{Subject: origin, ApprovedPermissions: accountsPermission("0xA")})
	require.NoError(t, err)
	require.Contains(t, s.AuthorizationSnapshot(), origin)

	require.NoError(t, s.RevokePermission(ctx, origin, constants.PermissionEthAccounts))

	origins, err := s.ListOrigins(ctx)
	require.NoError(t, err)
	assert.Empty(t, origins)
	assert.NotContains(t, s.AuthorizationSnapshot(), origin)

	err = s.RevokePermission(ctx, origin, constants.PermissionEthAccounts)
	assert.ErrorIs(t, err, store.ErrSubjectNotFound)
}

func TestMemoryGrantStore_SnapshotIdentity(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryGrantStore()
	_, err := s.GrantPermissions(ctx, business.GrantPermissionsParams{Subject: origin, ApprovedPermissions: accountsPermission("0xA")})
	require.NoError(t, err)

	first := s.AuthorizationSnapshot()
	second := s.AuthorizationSnapshot()
	assert.Empty(t, caip25.DiffAuthorizations(second, first))

	_, err = s.GrantPermissions(ctx, business.GrantPermissionsParams{Subject: "https://other.example.com", ApprovedPermissions: accountsPermission("0xB")})
	require.NoError(t, err)

	third := s.AuthorizationSnapshot()
	diff := caip25.DiffAuthorizations(third, first)
	assert.Len(t, diff, 1)
	assert.Contains(t, diff, "https://other.example.com")
	assert.Same(t, first[origin], third[origin])
}

func TestMemoryGrantStore_SnapshotDerivation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryGrantStore()

	_, err := s.GrantPermissions(ctx, business.GrantPermissionsParams{
		Subject: origin,
		ApprovedPermissions: business.RequestedPermissions{
			constants.PermissionEthAccounts: {
				Caveats: []business.Caveat{{Type: constants.CaveatRestrictReturnedAccounts, Value: []string{"0xA"}}},
			},
			constants.PermissionPermittedChains: {
				Caveats: []business.Caveat{{Type: constants.CaveatRestrictNetworkSwitching, Value: []string{"eip155:1", "eip155:10"}}},
			},
		},
	})
	require.NoError(t, err)

	authorization := s.AuthorizationSnapshot()[origin]
	require.NotNil(t, authorization)
	assert.Equal(t, []string{"0xA"}, caip25.GetEthAccounts(authorization))
	assert.Equal(t, []string{"eip155:1", "eip155:10"}, caip25.GetPermittedChains(authorization))
	assert.False(t, authorization.IsMultichainOrigin)

	caip25Authorization := &caip25.Authorization{
		RequiredScopes: caip25.ScopesObject{},
		OptionalScopes: caip25.ScopesObject{
			"eip155:137": {Methods: []string{}, Notifications: []string{}, Accounts: []string{"eip155:137:0xC"}},
		},
		IsMultichainOrigin: true,
	}
	_, err = s.GrantPermissions(ctx, business.GrantPermissionsParams{
		Subject: origin,
		ApprovedPermissions: business.RequestedPermissions{
			constants.PermissionCaip25: {
				Caveats: []business.Caveat{{Type: constants.CaveatAuthorizedScopes, Value: caip25Authorization}},
			},
		},
	})
	require.NoError(t, err)
	assert.Same(t, caip25Authorization, s.AuthorizationSnapshot()[origin])
}

func TestMemoryGrantStore_PersisterFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	persister := &fakePersister{}
	s := store.NewMemoryGrantStore(store.WithPersister(persister))

	_, err := s.GrantPermissions(ctx, business.GrantPermissionsParams{Subject: origin, ApprovedPermissions: accountsPermission("0xA")})
	require.NoError(t, err)
	assert.Contains(t, persister.saved, origin)

	persister.err = errors.New("connection refused")
	before := s.AuthorizationSnapshot()

	err = s.UpdateCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts, []string{"0xB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	caveat, err := s.GetCaveat(ctx, origin, constants.PermissionEthAccounts, constants.CaveatRestrictReturnedAccounts)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xA"}, caveat.Value)
	assert.Empty(t, caip25.DiffAuthorizations(s.AuthorizationSnapshot(), before))

	persister.err = nil
	require.NoError(t, s.RevokePermission(ctx, origin, constants.PermissionEthAccounts))
	assert.Equal(t, []string{origin}, persister.deleted)
}

func TestMemoryGrantStore_Load(t *testing.T) {
	persister := &fakePersister{
		loaded: map[string]business.SubjectPermissions{
			origin: {
				constants.PermissionEthAccounts: {
					ParentCapability: constants.PermissionEthAccounts,
					Invoker:          origin,
					Caveats:          []business.Caveat{{Type: constants.CaveatRestrictReturnedAccounts, Value: []string{"0xA"}}},
				},
			},
		},
	}
	s := store.NewMemoryGrantStore(store.WithPersister(persister))

	require.NoError(t, s.Load(context.Background()))

	permissions, err := s.GetPermissions(context.Background(), origin)
	require.NoError(t, err)
	assert.Contains(t, permissions, constants.PermissionEthAccounts)
	assert.Equal(t, []string{"0xA"}, caip25.GetEthAccounts(s.AuthorizationSnapshot()[origin]))
}
