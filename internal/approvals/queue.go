// Package approvals holds permission requests until an operator decides on
// them through the HTTP API.
package approvals

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"go.uber.org/zap"
)

var (
	ErrQueueClosed     = errors.New("approval queue closed")
	ErrRequestNotFound = errors.New("approval request not found")
)

type decision struct {
	result *business.ApprovalResult
	err    error
}

type entry struct {
	req      business.ApprovalRequest
	seq      uint64
	decision chan decision
}

// Listener hears about each request once it is parked
type Listener interface {
	ApprovalRequested(ctx context.Context, req business.ApprovalRequest)
}

// Option configures a Queue
type Option func(*Queue)

// WithListener adds a listener called for every parked request
func WithListener(l Listener) Option {
	return func(q *Queue) {
		q.listeners = append(q.listeners, l)
	}
}

// Queue is an ApprovalSurface that parks each request until Approve or
// Reject is called for its id
type Queue struct {
	logger    *zap.Logger
	listeners []Listener

	mu      sync.Mutex
	pending map[string]*entry
	nextSeq uint64
	closed  bool
}

// NewQueue creates an empty queue
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		logger:  logger.ForComponent(logger.ComponentApprovals),
		pending: map[string]*entry{},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// AddAndShowApprovalRequest parks req and blocks until it is decided, the
// queue is closed, or ctx ends. An ended ctx drops the request.
func (q *Queue) AddAndShowApprovalRequest(ctx context.Context, req business.ApprovalRequest) (*business.ApprovalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	if _, ok := q.pending[req.ID]; ok {
		q.mu.Unlock()
		return nil, rpcerrors.ResourceUnavailable("Approval request with id %q already exists.", req.ID)
	}
	q.nextSeq++
	e := &entry{req: req, seq: q.nextSeq, decision: make(chan decision, 1)}
	q.pending[req.ID] = e
	q.mu.Unlock()

	q.logger.Info("Approval request added",
		zap.String("request_id", req.ID),
		zap.String("origin", req.Origin),
		zap.String("type", req.Type))
	for _, l := range q.listeners {
		l.ApprovalRequested(ctx, req)
	}

	select {
	case d := <-e.decision:
		return d.result, d.err
	case <-ctx.Done():
		if q.remove(req.ID) != nil {
			q.logger.Info("Approval request dismissed", zap.String("request_id", req.ID))
		}
		return nil, ctx.Err()
	}
}

// List returns the parked requests in arrival order
func (q *Queue) List() []business.ApprovalRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*entry, 0, len(q.pending))
	for _, e := range q.pending {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]business.ApprovalRequest, len(entries))
	for i, e := range entries {
		out[i] = e.req
	}
	return out
}

// Get returns the parked request with the given id
func (q *Queue) Get(id string) (business.ApprovalRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.pending[id]
	if !ok {
		return business.ApprovalRequest{}, false
	}
	return e.req, true
}

// Approve releases the request with the operator's decision. When the result
// carries no permissions the requested ones are approved as is.
func (q *Queue) Approve(id string, result business.ApprovalResult) error {
	e := q.remove(id)
	if e == nil {
		return ErrRequestNotFound
	}
	if result.Permissions == nil {
		result.Permissions = e.req.RequestData.Permissions.Clone()
	}
	q.logger.Info("Approval request approved", zap.String("request_id", id))
	e.decision <- decision{result: &result}
	return nil
}

// Reject releases the request with a user rejection
func (q *Queue) Reject(id string) error {
	e := q.remove(id)
	if e == nil {
		return ErrRequestNotFound
	}
	q.logger.Info("Approval request rejected", zap.String("request_id", id))
	e.decision <- decision{err: rpcerrors.UserRejected()}
	return nil
}

// Close fails every parked request and refuses new ones
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	pending := q.pending
	q.pending = map[string]*entry{}
	q.mu.Unlock()

	for _, e := range pending {
		e.decision <- decision{err: ErrQueueClosed}
	}
}

func (q *Queue) remove(id string) *entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.pending[id]
	if !ok {
		return nil
	}
	delete(q.pending, id)
	return e
}
