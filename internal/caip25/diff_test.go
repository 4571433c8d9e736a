package caip25_test

import (
	"testing"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthorization(scopeID string, accounts ...string) *caip25.Authorization {
	return &caip25.Authorization{
		RequiredScopes: caip25.ScopesObject{},
		OptionalScopes: caip25.ScopesObject{
			scopeID: {
				Methods:       []string{"eth_call"},
				Notifications: []string{},
				Accounts:      accounts,
			},
		},
	}
}

func TestDiffMap(t *testing.T) {
	a := &[]string{"0x1"}
	b := &[]string{"0x2"}
	c := &[]string{"0x3"}

	snapshot := map[string]*[]string{"a.com": a, "b.com": b}

	tests := []struct {
		name     string
		current  map[string]*[]string
		previous map[string]*[]string
		want     map[string]*[]string
	}{
		{
			name:     "nil previous returns current",
			current:  snapshot,
			previous: nil,
			want:     snapshot,
		},
		{
			name:     "identical map is empty",
			current:  snapshot,
			previous: snapshot,
			want:     map[string]*[]string{},
		},
		{
			name:     "equal contents in distinct maps is empty",
			current:  map[string]*[]string{"a.com": a, "b.com": b},
			previous: map[string]*[]string{"a.com": a, "b.com": b},
			want:     map[string]*[]string{},
		},
		{
			name:     "changed value reports current value",
			current:  map[string]*[]string{"a.com": c, "b.com": b},
			previous: snapshot,
			want:     map[string]*[]string{"a.com": c},
		},
		{
			name:     "vanished key reports zero value",
			current:  map[string]*[]string{"b.com": b},
			previous: snapshot,
			want:     map[string]*[]string{"a.com": nil},
		},
		{
			name:     "new key reports current value",
			current:  map[string]*[]string{"a.com": a, "b.com": b, "c.com": c},
			previous: snapshot,
			want:     map[string]*[]string{"c.com": c},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := caip25.DiffMap(tt.current, tt.previous)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiffMap_IdentityAlwaysEmpty(t *testing.T) {
	snapshots := []map[string]int{
		{},
		{"a": 1},
		{"a": 1, "b": 2, "c": 3},
	}
	for _, snapshot := range snapshots {
		assert.Empty(t, caip25.DiffMap(snapshot, snapshot))
	}
}

func TestDiffMap_ValueEqualityIsIdentityNotDeep(t *testing.T) {
	previous := map[string]*caip25.Authorization{"a.com": newAuthorization("eip155:1")}
	current := map[string]*caip25.Authorization{"a.com": newAuthorization("eip155:1")}

	diff := caip25.DiffMap(current, previous)

	require.Len(t, diff, 1)
	assert.Same(t, current["a.com"], diff["a.com"])
}

func TestDiffMapFunc_UsesEqualityFunction(t *testing.T) {
	previous := map[string][]string{"a.com": {"0x1"}, "b.com": {"0x2"}}
	current := map[string][]string{"a.com": {"0x1"}, "b.com": {"0x2", "0x3"}}

	diff := caip25.DiffMapFunc(current, previous, func(x, y []string) bool {
		return assert.ObjectsAreEqual(x, y)
	})

	assert.Equal(t, map[string][]string{"b.com": {"0x2", "0x3"}}, diff)
}

func TestDiffAuthorizations(t *testing.T) {
	unchanged := newAuthorization("eip155:1", "eip155:1:0x1")
	before := newAuthorization("eip155:5", "eip155:5:0x1")
	after := newAuthorization("eip155:10", "eip155:10:0x1")
	removed := newAuthorization("eip155:137")

	previous := map[string]*caip25.Authorization{
		"same.com":    unchanged,
		"changed.com": before,
		"gone.com":    removed,
	}
	current := map[string]*caip25.Authorization{
		"same.com":    unchanged,
		"changed.com": after,
		"new.com":     unchanged,
	}

	diff := caip25.DiffAuthorizations(current, previous)

	require.Len(t, diff, 3)
	assert.NotContains(t, diff, "same.com")
	assert.Equal(t, after.OptionalScopes, diff["changed.com"].OptionalScopes)
	assert.Equal(t, unchanged.OptionalScopes, diff["new.com"].OptionalScopes)
	assert.True(t, diff["gone.com"].IsEmpty())
	assert.NotNil(t, diff["gone.com"].RequiredScopes)
}

func TestDiffAuthorizations_FirstObservation(t *testing.T) {
	current := map[string]*caip25.Authorization{
		"a.com": newAuthorization("eip155:1"),
	}

	diff := caip25.DiffAuthorizations(current, nil)

	require.Len(t, diff, 1)
	assert.Contains(t, diff["a.com"].OptionalScopes, "eip155:1")
}

func TestRemovedScopes(t *testing.T) {
	previousA := &caip25.Authorization{
		RequiredScopes: caip25.ScopesObject{"eip155:1": {Methods: []string{}, Notifications: []string{}}},
		OptionalScopes: caip25.ScopesObject{
			"eip155:5":  {Methods: []string{}, Notifications: []string{}},
			"eip155:10": {Methods: []string{}, Notifications: []string{}},
		},
	}
	currentA := &caip25.Authorization{
		RequiredScopes: caip25.ScopesObject{"eip155:1": {Methods: []string{}, Notifications: []string{}}},
		OptionalScopes: caip25.ScopesObject{"eip155:10": {Methods: []string{}, Notifications: []string{}}},
	}
	previousB := newAuthorization("eip155:137")
	grown := newAuthorization("eip155:1")
	grownNext := caip25.MergeAuthorizations(grown, newAuthorization("eip155:5"))

	previous := map[string]*caip25.Authorization{
		"a.com":     previousA,
		"b.com":     previousB,
		"grown.com": grown,
	}
	current := map[string]*caip25.Authorization{
		"a.com":     currentA,
		"grown.com": grownNext,
	}

	removed := caip25.RemovedScopes(current, previous)

	require.Len(t, removed, 2)
	assert.Empty(t, removed["a.com"].RequiredScopes)
	assert.Equal(t, []string{"eip155:5"}, removed["a.com"].OptionalScopes.IDs())
	assert.Equal(t, []string{"eip155:137"}, removed["b.com"].OptionalScopes.IDs())
	assert.NotContains(t, removed, "grown.com")
}

func TestRemovedScopes_SameSnapshot(t *testing.T) {
	snapshot := map[string]*caip25.Authorization{"a.com": newAuthorization("eip155:1")}
	assert.Empty(t, caip25.RemovedScopes(snapshot, snapshot))
}
