package caveats

import (
	"fmt"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
)

// Mutation names a removal that can be applied to a caveat value.
type Mutation string

const (
	MutationRemoveAccount Mutation = "remove_account"
	MutationRemoveChain   Mutation = "remove_chain"
)

type mutatorKey struct {
	caveatType string
	mutation   Mutation
}

type mutator func(target string, value any) (Result[any], error)

var mutators = map[mutatorKey]mutator{
	{constants.CaveatRestrictReturnedAccounts, MutationRemoveAccount}: listMutator(RemoveAccount),
	{constants.CaveatRestrictNetworkSwitching, MutationRemoveChain}:   listMutator(RemoveChainID),
	{constants.CaveatAuthorizedScopes, MutationRemoveAccount}:         authorizationMutator(RemoveAccountFromAuthorization),
	{constants.CaveatAuthorizedScopes, MutationRemoveChain}:           authorizationMutator(RemoveScope),
}

// Supports reports whether a mutation is defined for the caveat type.
func Supports(caveatType string, mutation Mutation) bool {
	_, ok := mutators[mutatorKey{caveatType, mutation}]
	return ok
}

// Apply runs the mutator registered for the caveat type and mutation against
// the current caveat value.
func Apply(caveatType string, mutation Mutation, target string, value any) (Result[any], error) {
	fn, ok := mutators[mutatorKey{caveatType, mutation}]
	if !ok {
		return Result[any]{}, fmt.Errorf("no %s mutator for caveat type %q", mutation, caveatType)
	}
	return fn(target, value)
}

func listMutator(fn func(string, []string) Result[[]string]) mutator {
	return func(target string, value any) (Result[any], error) {
		list, ok := value.([]string)
		if !ok {
			return Result[any]{}, fmt.Errorf("caveat value has type %T, expected []string", value)
		}
		res := fn(target, list)
		if res.Operation != UpdateValue {
			return Result[any]{Operation: res.Operation}, nil
		}
		return Result[any]{Operation: res.Operation, Value: res.Value}, nil
	}
}

func authorizationMutator(fn func(string, *caip25.Authorization) Result[*caip25.Authorization]) mutator {
	return func(target string, value any) (Result[any], error) {
		authorization, ok := value.(*caip25.Authorization)
		if !ok {
			return Result[any]{}, fmt.Errorf("caveat value has type %T, expected *caip25.Authorization", value)
		}
		res := fn(target, authorization)
		if res.Operation != UpdateValue {
			return Result[any]{Operation: res.Operation}, nil
		}
		return Result[any]{Operation: res.Operation, Value: res.Value}, nil
	}
}
