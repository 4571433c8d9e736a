// Package store holds granted permissions. The in-memory store is the single
// source of truth at runtime; a Persister can mirror every write to Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/interfaces"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrCaveatNotFound     = errors.New("caveat not found")
)

// Persister mirrors subject permissions to durable storage
type Persister interface {
	SaveSubject(ctx context.Context, origin string, permissions business.SubjectPermissions) error
	DeleteSubject(ctx context.Context, origin string) error
	LoadSubjects(ctx context.Context) (map[string]business.SubjectPermissions, error)
}

// MemoryGrantStore implements interfaces.GrantStore. Both the subject map and
// the authorization snapshot are copy-on-write: readers may keep the maps they
// were handed, and AuthorizationSnapshot returns the same map until the next
// write.
type MemoryGrantStore struct {
	mu        sync.RWMutex
	subjects  map[string]business.SubjectPermissions
	snapshot  map[string]*caip25.Authorization
	persister Persister
	clock     interfaces.Clock
	logger    *zap.Logger
}

// Option configures a MemoryGrantStore
type Option func(*MemoryGrantStore)

// WithPersister mirrors every write to p before it becomes visible
func WithPersister(p Persister) Option {
	return func(s *MemoryGrantStore) { s.persister = p }
}

// WithClock sets the clock used for permission dates
func WithClock(c interfaces.Clock) Option {
	return func(s *MemoryGrantStore) { s.clock = c }
}

// NewMemoryGrantStore creates an empty grant store
func NewMemoryGrantStore(opts ...Option) *MemoryGrantStore {
	s := &MemoryGrantStore{
		subjects: map[string]business.SubjectPermissions{},
		snapshot: map[string]*caip25.Authorization{},
		clock:    interfaces.RealClock{},
		logger:   logger.ForComponent(logger.ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the store contents with what the persister holds
func (s *MemoryGrantStore) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	subjects, err := s.persister.LoadSubjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subjects: %w", err)
	}

	snapshot := make(map[string]*caip25.Authorization, len(subjects))
	for origin, permissions := range subjects {
		if authorization := deriveAuthorization(permissions); authorization != nil {
			snapshot[origin] = authorization
		}
	}

	s.mu.Lock()
	s.subjects = subjects
	s.snapshot = snapshot
	s.mu.Unlock()

	s.logger.Info("Loaded subject permissions", zap.Int("subjects", len(subjects)))
	return nil
}

// GetPermissions returns the permissions held by origin. An unknown origin has
// no permissions.
func (s *MemoryGrantStore) GetPermissions(_ context.Context, origin string) (business.SubjectPermissions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjects[origin].Clone(), nil
}

// GetCaveat returns one caveat of a granted permission
func (s *MemoryGrantStore) GetCaveat(_ context.Context, origin, permissionName, caveatType string) (*business.Caveat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	permission, err := s.permissionLocked(origin, permissionName)
	if err != nil {
		return nil, err
	}
	caveat, ok := permission.FindCaveat(caveatType)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s for %s", ErrCaveatNotFound, caveatType, permissionName, origin)
	}
	return &caveat, nil
}

// UpdateCaveat replaces the value of an existing caveat
func (s *MemoryGrantStore) UpdateCaveat(ctx context.Context, origin, permissionName, caveatType string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	permission, err := s.permissionLocked(origin, permissionName)
	if err != nil {
		return err
	}
	if _, ok := permission.FindCaveat(caveatType); !ok {
		return fmt.Errorf("%w: %s on %s for %s", ErrCaveatNotFound, caveatType, permissionName, origin)
	}

	next := s.subjects[origin].Clone()
	next[permissionName] = permission.WithCaveat(business.Caveat{Type: caveatType, Value: value})
	return s.commitLocked(ctx, origin, next)
}

// RevokePermission removes a permission. The subject is dropped when it holds
// no other permission.
func (s *MemoryGrantStore) RevokePermission(ctx context.Context, origin, permissionName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.permissionLocked(origin, permissionName); err != nil {
		return err
	}
	next := s.subjects[origin].Clone()
	delete(next, permissionName)
	return s.commitLocked(ctx, origin, next)
}

// GrantPermissions grants the approved permissions to the subject, replacing
// any permission of the same name. It returns the newly granted permissions.
func (s *MemoryGrantStore) GrantPermissions(ctx context.Context, params business.GrantPermissionsParams) (business.SubjectPermissions, error) {
	if params.Subject == "" {
		return nil, errors.New("subject is required")
	}
	if len(params.ApprovedPermissions) == 0 {
		return nil, errors.New("at least one permission is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UnixMilli()
	granted := make(business.SubjectPermissions, len(params.ApprovedPermissions))
	next := s.subjects[params.Subject].Clone()
	for name, requested := range params.ApprovedPermissions {
		permission := business.Permission{
			ID:               uuid.New().String(),
			ParentCapability: name,
			Invoker:          params.Subject,
			Caveats:          append([]business.Caveat(nil), requested.Caveats...),
			Date:             now,
		}
		next[name] = permission
		granted[name] = permission
	}

	if err := s.commitLocked(ctx, params.Subject, next); err != nil {
		return nil, err
	}
	return granted.Clone(), nil
}

// ListOrigins returns every origin holding a permission, sorted
func (s *MemoryGrantStore) ListOrigins(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.subjects)), nil
}

// AuthorizationSnapshot returns the current origin to authorization map.
// The map must not be modified by callers.
func (s *MemoryGrantStore) AuthorizationSnapshot() map[string]*caip25.Authorization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *MemoryGrantStore) permissionLocked(origin, permissionName string) (business.Permission, error) {
	subject, ok := s.subjects[origin]
	if !ok {
		return business.Permission{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, origin)
	}
	permission, ok := subject[permissionName]
	if !ok {
		return business.Permission{}, fmt.Errorf("%w: %s for %s", ErrPermissionNotFound, permissionName, origin)
	}
	return permission, nil
}

// commitLocked persists next and then swaps in new subject and snapshot maps.
// An empty next deletes the subject.
func (s *MemoryGrantStore) commitLocked(ctx context.Context, origin string, next business.SubjectPermissions) error {
	if s.persister != nil {
		var err error
		if len(next) == 0 {
			err = s.persister.DeleteSubject(ctx, origin)
		} else {
			err = s.persister.SaveSubject(ctx, origin, next)
		}
		if err != nil {
			s.logger.Error("Failed to persist subject permissions",
				zap.String("origin", origin),
				zap.Error(err))
			return fmt.Errorf("failed to persist permissions for %s: %w", origin, err)
		}
	}

	subjects := maps.Clone(s.subjects)
	snapshot := maps.Clone(s.snapshot)
	if len(next) == 0 {
		delete(subjects, origin)
		delete(snapshot, origin)
	} else {
		subjects[origin] = next
		if authorization := deriveAuthorization(next); authorization != nil {
			snapshot[origin] = authorization
		} else {
			delete(snapshot, origin)
		}
	}
	s.subjects = subjects
	s.snapshot = snapshot

	s.logger.Debug("Committed subject permissions",
		zap.String("origin", origin),
		zap.Strings("permissions", next.Names()))
	return nil
}
