package constants

// Permission names
const (
	PermissionEthAccounts     = "eth_accounts"
	PermissionPermittedChains = "endowment:permitted-chains"
	PermissionCaip25          = "endowment:caip25"
)

// GrantablePermissions are the permission names an origin may request
var GrantablePermissions = []string{
	PermissionEthAccounts,
	PermissionPermittedChains,
	PermissionCaip25,
}

// Caveat types
const (
	CaveatRestrictReturnedAccounts = "restrictReturnedAccounts"
	CaveatRestrictNetworkSwitching = "restrictNetworkSwitching"
	CaveatAuthorizedScopes         = "authorizedScopes"
)

// RPC method names
const (
	WalletPrefix = "wallet_"

	MethodRequestPermissions = "wallet_requestPermissions"
	MethodGetPermissions     = "wallet_getPermissions"
	MethodRevokePermissions  = "wallet_revokePermissions"
	MethodCreateSession      = "wallet_createSession"
	MethodGetSession         = "wallet_getSession"
	MethodRevokeSession      = "wallet_revokeSession"
	MethodEthAccounts        = "eth_accounts"
	MethodEthRequestAccounts = "eth_requestAccounts"
	MethodSendDomainMetadata = "metamask_sendDomainMetadata"
)

// Notification methods emitted to origins
const (
	NotificationAccountsChanged = "metamask_accountsChanged"
	NotificationChainChanged    = "metamask_chainChanged"
	NotificationSessionChanged  = "wallet_sessionChanged"
)

// Approval request types
const (
	ApprovalTypeRequestPermissions = "wallet_requestPermissions"
)

// Activity log defaults
const (
	DefaultActivityLogLimit = 100
)

// DefaultRestrictedMethods are the methods logged as restricted activity
// unless overridden by configuration.
var DefaultRestrictedMethods = []string{
	MethodEthAccounts,
}

// DefaultLogIgnoreMethods are never recorded in activity or history.
var DefaultLogIgnoreMethods = []string{
	MethodSendDomainMetadata,
	"wallet_registerOnboarding",
	"wallet_watchAsset",
}
