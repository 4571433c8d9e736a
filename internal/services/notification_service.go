package services

import (
	"context"
	"slices"
	"sync"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/interfaces"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"go.uber.org/zap"
)

// AccountsHistoryRecorder records that accounts were exposed to an origin
type AccountsHistoryRecorder interface {
	UpdateAccountsHistory(origin string, accounts []string)
}

// NotificationService turns authorization snapshots into per-origin change
// notifications. It remembers the previous snapshot and what it last told
// each origin, so an origin only hears about values that actually changed.
//
// Diffs are computed synchronously. Delivery happens on a per-origin
// goroutine that preserves snapshot order, so a slow notifier for one origin
// never holds up grants or notifications for another.
type NotificationService struct {
	notifier interfaces.Notifier
	history  AccountsHistoryRecorder
	logger   *zap.Logger

	mu       sync.Mutex
	previous map[string]*caip25.Authorization
	accounts map[string][]string
	chains   map[string][]string

	outboxes map[string][]delivery
	queued   int
	idle     chan struct{}
}

type delivery struct {
	ctx          context.Context
	notification business.Notification
}

// NewNotificationService creates a notification service. history may be nil.
func NewNotificationService(notifier interfaces.Notifier, history AccountsHistoryRecorder) *NotificationService {
	return &NotificationService{
		notifier: notifier,
		history:  history,
		logger:   logger.ForComponent(logger.ComponentNotifications),
		accounts: map[string][]string{},
		chains:   map[string][]string{},
		outboxes: map[string][]delivery{},
		idle:     closedChan(),
	}
}

// SetBaseline records snapshot as already known without notifying anyone.
// It is used after loading persisted grants at startup.
func (s *NotificationService) SetBaseline(snapshot map[string]*caip25.Authorization) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.previous = snapshot
	for origin, authorization := range snapshot {
		s.accounts[origin] = caip25.GetEthAccounts(authorization)
		s.chains[origin] = caip25.GetPermittedChains(authorization)
	}
}

// AuthorizationsChanged implements interfaces.AuthorizationObserver
func (s *NotificationService) AuthorizationsChanged(ctx context.Context, snapshot map[string]*caip25.Authorization) {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := caip25.DiffAuthorizations(snapshot, s.previous)
	removed := caip25.RemovedScopes(snapshot, s.previous)
	previous := s.previous
	s.previous = snapshot

	for _, origin := range sortedNames(changed) {
		current := snapshot[origin]
		s.accountsChangedLocked(ctx, origin, current)
		s.chainChangedLocked(ctx, origin, current)

		before := previous[origin]
		if (current != nil && current.IsMultichainOrigin) || (before != nil && before.IsMultichainOrigin) {
			params := business.SessionChangedParams{SessionScopes: current.SessionScopes()}
			if diff, ok := removed[origin]; ok {
				params.RemovedScopes = caip25.MergeScopes(diff.RequiredScopes, diff.OptionalScopes)
			}
			s.enqueueLocked(ctx, origin, constants.NotificationSessionChanged, params)
		}
	}
}

func (s *NotificationService) accountsChangedLocked(ctx context.Context, origin string, authorization *caip25.Authorization) {
	accounts := caip25.GetEthAccounts(authorization)
	if slices.Equal(accounts, s.accounts[origin]) {
		return
	}
	if len(accounts) == 0 {
		delete(s.accounts, origin)
	} else {
		s.accounts[origin] = accounts
	}

	s.enqueueLocked(ctx, origin, constants.NotificationAccountsChanged, accounts)
	if s.history != nil {
		s.history.UpdateAccountsHistory(origin, accounts)
	}
}

func (s *NotificationService) chainChangedLocked(ctx context.Context, origin string, authorization *caip25.Authorization) {
	chains := caip25.GetPermittedChains(authorization)
	if slices.Equal(chains, s.chains[origin]) {
		return
	}
	if len(chains) == 0 {
		delete(s.chains, origin)
	} else {
		s.chains[origin] = chains
	}

	s.enqueueLocked(ctx, origin, constants.NotificationChainChanged, business.ChainChangedParams{PermittedChains: chains})
}

// Flush blocks until every queued notification has been handed to the
// notifier or ctx ends
func (s *NotificationService) Flush(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueueLocked appends a notification to origin's outbox, starting its
// delivery goroutine when the outbox was empty. Callers hold mu.
func (s *NotificationService) enqueueLocked(ctx context.Context, origin, method string, params any) {
	if s.queued == 0 {
		s.idle = make(chan struct{})
	}
	s.queued++
	s.outboxes[origin] = append(s.outboxes[origin], delivery{
		ctx:          ctx,
		notification: business.Notification{Method: method, Params: params},
	})
	if len(s.outboxes[origin]) == 1 {
		go s.deliver(origin)
	}
}

// deliver drains origin's outbox in order. The head entry stays queued until
// it is sent, which keeps a single goroutine per origin.
func (s *NotificationService) deliver(origin string) {
	for {
		s.mu.Lock()
		next := s.outboxes[origin][0]
		s.mu.Unlock()

		s.send(next.ctx, origin, next.notification)

		s.mu.Lock()
		rest := s.outboxes[origin][1:]
		if len(rest) == 0 {
			delete(s.outboxes, origin)
		} else {
			s.outboxes[origin] = rest
		}
		s.queued--
		if s.queued == 0 {
			close(s.idle)
		}
		s.mu.Unlock()

		if len(rest) == 0 {
			return
		}
	}
}

func (s *NotificationService) send(ctx context.Context, origin string, notification business.Notification) {
	err := s.notifier.NotifyOrigin(ctx, origin, notification)
	if err != nil {
		s.logger.Warn("Failed to notify origin",
			zap.String("origin", origin),
			zap.String("method", notification.Method),
			zap.Error(err))
		return
	}
	s.logger.Debug("Notified origin",
		zap.String("origin", origin),
		zap.String("method", notification.Method))
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
