// Package caveats computes the next value of a permission restriction after
// removing an account, a chain or a scope. The mutators are pure: they never
// consult external state and never fail for well-formed input.
package caveats

import (
	"slices"
	"strings"
)

// Operation classifies the outcome of a mutator.
type Operation int

const (
	// Noop means the target was not present and nothing changes.
	Noop Operation = iota
	// UpdateValue means the caveat must be replaced with Result.Value.
	UpdateValue
	// RevokePermission means the permission cannot exist without the target
	// and must be revoked entirely.
	RevokePermission
)

func (o Operation) String() string {
	switch o {
	case Noop:
		return "noop"
	case UpdateValue:
		return "update_value"
	case RevokePermission:
		return "revoke_permission"
	default:
		return "unknown"
	}
}

// Result is the outcome of a mutator. Value is only set for UpdateValue.
type Result[T any] struct {
	Operation Operation
	Value     T
}

// RemoveAccount filters targetAddress out of existingAccounts, comparing
// case-insensitively.
func RemoveAccount(targetAddress string, existingAccounts []string) Result[[]string] {
	return removeFromList(existingAccounts, func(account string) bool {
		return strings.EqualFold(account, targetAddress)
	})
}

// RemoveChainID filters targetChainID out of existingChainIDs using exact
// comparison.
func RemoveChainID(targetChainID string, existingChainIDs []string) Result[[]string] {
	return removeFromList(existingChainIDs, func(chainID string) bool {
		return chainID == targetChainID
	})
}

func removeFromList(existing []string, matches func(string) bool) Result[[]string] {
	next := slices.DeleteFunc(slices.Clone(existing), matches)
	switch {
	case len(next) == len(existing):
		return Result[[]string]{Operation: Noop}
	case len(next) == 0:
		return Result[[]string]{Operation: RevokePermission}
	default:
		return Result[[]string]{Operation: UpdateValue, Value: next}
	}
}
