package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/helpers"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
)

// StaticAccountDirectory is a read-only account directory built once at startup
type StaticAccountDirectory struct {
	accounts []business.Account
	index    map[string]int
}

// NewStaticAccountDirectory builds a directory from CAIP-10 account ids. Ids
// sharing an address are merged into one account whose scopes are the
// "namespace:reference" parts of each id.
func NewStaticAccountDirectory(accountIDs []string) (*StaticAccountDirectory, error) {
	d := &StaticAccountDirectory{index: map[string]int{}}
	for _, id := range accountIDs {
		parsed, err := caip25.ParseAccountID(id)
		if err != nil {
			return nil, err
		}
		address := parsed.Address
		if parsed.IsEvm() {
			if !helpers.IsAddressValid(address) {
				return nil, fmt.Errorf("invalid ethereum address in %q", id)
			}
			address = helpers.NormalizeAddress(address)
		}
		scope := parsed.Namespace + ":" + parsed.Reference

		key := directoryKey(address)
		if i, ok := d.index[key]; ok {
			d.accounts[i].Scopes = append(d.accounts[i].Scopes, scope)
			continue
		}
		d.index[key] = len(d.accounts)
		d.accounts = append(d.accounts, business.Account{Address: address, Scopes: []string{scope}})
	}
	return d, nil
}

// GetAccountByAddress looks an account up case-insensitively. Unknown
// addresses yield a nil account and no error.
func (d *StaticAccountDirectory) GetAccountByAddress(_ context.Context, address string) (*business.Account, error) {
	i, ok := d.index[directoryKey(address)]
	if !ok {
		return nil, nil
	}
	account := d.accounts[i]
	account.Scopes = append([]string(nil), account.Scopes...)
	return &account, nil
}

// GetAllAccounts returns every account in configuration order
func (d *StaticAccountDirectory) GetAllAccounts(_ context.Context) ([]business.Account, error) {
	out := make([]business.Account, len(d.accounts))
	for i, account := range d.accounts {
		account.Scopes = append([]string(nil), account.Scopes...)
		out[i] = account
	}
	return out, nil
}

func directoryKey(address string) string {
	return strings.ToLower(address)
}
