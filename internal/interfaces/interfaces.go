package interfaces

//go:generate mockgen -destination=../mocks/mock_interfaces.go -package=mocks github.com/cyphera/cyphera-permissions/internal/interfaces AccountDirectory,ApprovalSurface,GrantStore,Notifier,AuthorizationObserver

import (
	"context"
	"time"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
)

// AccountDirectory answers which accounts exist and which scopes they belong
// to. It is only ever queried. GetAccountByAddress returns a nil account
// without error for unknown addresses.
type AccountDirectory interface {
	GetAccountByAddress(ctx context.Context, address string) (*business.Account, error)
	GetAllAccounts(ctx context.Context) ([]business.Account, error)
}

// ApprovalSurface shows a request to a human or policy and blocks until a
// decision is made. ctx is cancelled when the request is settled elsewhere,
// after which the surface should drop it.
type ApprovalSurface interface {
	AddAndShowApprovalRequest(ctx context.Context, req business.ApprovalRequest) (*business.ApprovalResult, error)
}

// GrantStore holds the permissions granted to every origin. Every write
// replaces values, it never mutates stored values in place.
type GrantStore interface {
	GetPermissions(ctx context.Context, origin string) (business.SubjectPermissions, error)
	GetCaveat(ctx context.Context, origin, permissionName, caveatType string) (*business.Caveat, error)
	UpdateCaveat(ctx context.Context, origin, permissionName, caveatType string, value any) error
	RevokePermission(ctx context.Context, origin, permissionName string) error
	GrantPermissions(ctx context.Context, params business.GrantPermissionsParams) (business.SubjectPermissions, error)
	ListOrigins(ctx context.Context) ([]string, error)
	AuthorizationSnapshot() map[string]*caip25.Authorization
}

// Notifier delivers a notification to an origin
type Notifier interface {
	NotifyOrigin(ctx context.Context, origin string, notification business.Notification) error
}

// AuthorizationObserver is told about every store change with the latest
// authorization snapshot. Store writes are serialized around the call, so
// implementations must not block on delivery.
type AuthorizationObserver interface {
	AuthorizationsChanged(ctx context.Context, snapshot map[string]*caip25.Authorization)
}

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

// RealClock is the wall clock
type RealClock struct{}

// Now returns time.Now()
func (RealClock) Now() time.Time {
	return time.Now()
}
