package store_test

import (
	"context"
	"testing"

	"github.com/cyphera/cyphera-permissions/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addressA = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	addressB = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func TestStaticAccountDirectory(t *testing.T) {
	ctx := context.Background()
	directory, err := store.NewStaticAccountDirectory([]string{
		"eip155:1:0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"eip155:10:0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"eip155:1:" + addressB,
	})
	require.NoError(t, err)

	account, err := directory.GetAccountByAddress(ctx, "0X5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	require.NoError(t, err)
	assert.Equal(t, addressA, account.Address)
	assert.Equal(t, []string{"eip155:1", "eip155:10"}, account.Scopes)

	all, err := directory.GetAllAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, addressA, all[0].Address)
	assert.Equal(t, addressB, all[1].Address)

	// returned values are copies
	all[0].Scopes[0] = "mutated"
	again, err := directory.GetAccountByAddress(ctx, addressA)
	require.NoError(t, err)
	assert.Equal(t, "eip155:1", again.Scopes[0])

	missing, err := directory.GetAccountByAddress(ctx, "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStaticAccountDirectory_InvalidInput(t *testing.T) {
	_, err := store.NewStaticAccountDirectory([]string{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"})
	assert.Error(t, err)

	_, err = store.NewStaticAccountDirectory([]string{"eip155:1:0x123"})
	assert.ErrorContains(t, err, "invalid ethereum address")
}
