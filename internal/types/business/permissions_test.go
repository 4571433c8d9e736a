package business_test

import (
	"encoding/json"
	"testing"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaveat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        any
		wantErr     bool
		errorString string
	}{
		{
			name:  "restrictReturnedAccounts decodes a string list",
			input: `{"type":"restrictReturnedAccounts","value":["0xa","0xb"]}`,
			want:  []string{"0xa", "0xb"},
		},
		{
			name:  "restrictNetworkSwitching decodes a string list",
			input: `{"type":"restrictNetworkSwitching","value":["eip155:1"]}`,
			want:  []string{"eip155:1"},
		},
		{
			name:  "authorizedScopes decodes an authorization",
			input: `{"type":"authorizedScopes","value":{"requiredScopes":{},"optionalScopes":{"eip155:1":{"methods":[],"notifications":[],"accounts":["eip155:1:0xa"]}},"isMultichainOrigin":true}}`,
			want: &caip25.Authorization{
				RequiredScopes: caip25.ScopesObject{},
				OptionalScopes: caip25.ScopesObject{
					"eip155:1": {Methods: []string{}, Notifications: []string{}, Accounts: []string{"eip155:1:0xa"}},
				},
				IsMultichainOrigin: true,
			},
		},
		{
			name:  "unknown type keeps generic json",
			input: `{"type":"custom","value":{"a":1}}`,
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:        "list caveat with object value fails",
			input:       `{"type":"restrictReturnedAccounts","value":{"a":1}}`,
			wantErr:     true,
			errorString: "invalid restrictReturnedAccounts caveat value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var caveat business.Caveat
			err := json.Unmarshal([]byte(tt.input), &caveat)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, caveat.Value)
		})
	}
}

func TestPermission_WithCaveat(t *testing.T) {
	permission := business.Permission{
		ParentCapability: constants.PermissionEthAccounts,
		Invoker:          "https://a.com",
		Caveats: []business.Caveat{
			{Type: "other", Value: "x"},
			{Type: constants.CaveatRestrictReturnedAccounts, Value: []string{"0xold"}},
		},
	}

	replaced := permission.WithCaveat(business.Caveat{Type: constants.CaveatRestrictReturnedAccounts, Value: []string{"0xnew"}})
	require.Len(t, replaced.Caveats, 2)
	caveat, ok := replaced.FindCaveat(constants.CaveatRestrictReturnedAccounts)
	require.True(t, ok)
	assert.Equal(t, []string{"0xnew"}, caveat.Value)

	original, _ := permission.FindCaveat(constants.CaveatRestrictReturnedAccounts)
	assert.Equal(t, []string{"0xold"}, original.Value)

	appended := permission.WithCaveat(business.Caveat{Type: constants.CaveatRestrictNetworkSwitching, Value: []string{"eip155:1"}})
	assert.Len(t, appended.Caveats, 3)
}

func TestPermissionHistory_Clone(t *testing.T) {
	history := business.PermissionHistory{
		"https://a.com": {
			constants.PermissionEthAccounts: {LastApproved: 1, Accounts: map[string]int64{"0xa": 1}},
		},
	}

	cloned := history.Clone()
	cloned["https://a.com"][constants.PermissionEthAccounts].Accounts["0xa"] = 2

	assert.Equal(t, int64(1), history["https://a.com"][constants.PermissionEthAccounts].Accounts["0xa"])
}
