package caip25

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// NamespaceEip155 is the EVM chain namespace.
	NamespaceEip155 = "eip155"
	// NamespaceWallet addresses the wallet itself rather than a chain.
	NamespaceWallet = "wallet"
	// WildcardReference matches any reference within the same namespace.
	WildcardReference = "0"
)

var (
	namespacePattern = regexp.MustCompile(`^[-a-z0-9]{3,8}$`)
	referencePattern = regexp.MustCompile(`^[-_a-zA-Z0-9]{1,32}$`)
	addressPattern   = regexp.MustCompile(`^[-.%a-zA-Z0-9]{1,128}$`)

	errNilAuthorization = errors.New("authorization is nil")
	errNoScopes         = errors.New("authorization must contain at least one scope")
)

// InvalidScopeError reports a scope string that is not a valid CAIP-2 id or namespace.
type InvalidScopeError struct {
	Scope string
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid scope: %q", e.Scope)
}

// InvalidAccountError reports an account string that is not a valid CAIP-10 id.
type InvalidAccountError struct {
	Account string
}

func (e *InvalidAccountError) Error() string {
	return fmt.Sprintf("invalid CAIP-10 account id: %q", e.Account)
}

// ScopeMismatchError reports an account listed under a scope it does not belong to.
type ScopeMismatchError struct {
	Scope   string
	Account string
}

func (e *ScopeMismatchError) Error() string {
	return fmt.Sprintf("account %q does not belong to scope %q", e.Account, e.Scope)
}

// Scope is a parsed scope id. Reference is empty for namespace-only scopes
// such as "eip155" or "wallet".
type Scope struct {
	Namespace string
	Reference string
}

// ParseScope parses "namespace" or "namespace:reference".
func ParseScope(scope string) (Scope, error) {
	namespace, reference, hasReference := strings.Cut(scope, ":")
	if !namespacePattern.MatchString(namespace) {
		return Scope{}, &InvalidScopeError{Scope: scope}
	}
	if hasReference && !referencePattern.MatchString(reference) {
		return Scope{}, &InvalidScopeError{Scope: scope}
	}
	return Scope{Namespace: namespace, Reference: reference}, nil
}

func (s Scope) String() string {
	if s.Reference == "" {
		return s.Namespace
	}
	return s.Namespace + ":" + s.Reference
}

// Covers reports whether an account id may be listed under this scope.
//
// "wallet:<ns>" covers accounts expressed as "wallet:<ns>:<address>" and any
// account of namespace <ns>. A namespace-only scope covers every account of
// that namespace. Otherwise the namespaces must match and the references must
// be equal, or either side must be the wildcard reference "0".
func (s Scope) Covers(account AccountID) bool {
	if s.Namespace == NamespaceWallet {
		if s.Reference == "" {
			return false
		}
		if account.Namespace == NamespaceWallet {
			return account.Reference == s.Reference
		}
		return account.Namespace == s.Reference
	}
	if account.Namespace != s.Namespace {
		return false
	}
	if s.Reference == "" {
		return true
	}
	return account.Reference == s.Reference ||
		account.Reference == WildcardReference ||
		s.Reference == WildcardReference
}

// AccountPrefix is the "namespace:reference" used when an account is written
// into this scope. Namespace-only scopes keep the account's own chain.
func (s Scope) AccountPrefix(account AccountID) string {
	if s.Reference == "" || (s.Namespace != NamespaceWallet && s.Reference == WildcardReference) {
		return account.Namespace + ":" + account.Reference
	}
	return s.String()
}

// AccountID is a parsed CAIP-10 account id.
type AccountID struct {
	Namespace string
	Reference string
	Address   string
}

// ParseAccountID parses "namespace:reference:address".
func ParseAccountID(id string) (AccountID, error) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 {
		return AccountID{}, &InvalidAccountError{Account: id}
	}
	if !namespacePattern.MatchString(parts[0]) ||
		!referencePattern.MatchString(parts[1]) ||
		!addressPattern.MatchString(parts[2]) {
		return AccountID{}, &InvalidAccountError{Account: id}
	}
	return AccountID{Namespace: parts[0], Reference: parts[1], Address: parts[2]}, nil
}

func (a AccountID) String() string {
	return a.Namespace + ":" + a.Reference + ":" + a.Address
}

// IsEvm reports whether the account belongs to the eip155 family, either
// directly or through the "wallet:eip155" scope.
func (a AccountID) IsEvm() bool {
	return a.Namespace == NamespaceEip155 ||
		(a.Namespace == NamespaceWallet && a.Reference == NamespaceEip155)
}

// SameAddress compares addresses, case-insensitively for EVM accounts.
func (a AccountID) SameAddress(address string) bool {
	if a.IsEvm() {
		return strings.EqualFold(a.Address, address)
	}
	return a.Address == address
}
