package services

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/interfaces"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"go.uber.org/zap"
)

// ResponseHandle correlates a logged request with its later response. Handles
// are issued in increasing order and never reused.
type ResponseHandle uint64

// PermissionLogConfig configures a PermissionLogService
type PermissionLogConfig struct {
	Limit             int
	RestrictedMethods []string
	IgnoreMethods     []string
	Clock             interfaces.Clock
}

// PermissionLogService keeps a bounded activity log of permission-relevant
// requests and the permanent per-origin history of granted permissions.
type PermissionLogService struct {
	limit      int
	restricted map[string]struct{}
	ignored    map[string]struct{}
	clock      interfaces.Clock
	logger     *zap.Logger

	mu         sync.Mutex
	log        []logRecord
	history    business.PermissionHistory
	nextHandle ResponseHandle
	pending    map[ResponseHandle]*correlation
}

type logRecord struct {
	entry  *business.ActivityLogEntry
	handle ResponseHandle
}

// correlation is what a response needs to land on the right entry and to
// update history
type correlation struct {
	entry  *business.ActivityLogEntry
	origin string
	method string
	// requested lists the permission names a successful response may record
	// in history. Nil means the request never produces history.
	requested []string
}

// NewPermissionLogService creates a log service
func NewPermissionLogService(cfg PermissionLogConfig) *PermissionLogService {
	if cfg.Limit <= 0 {
		cfg.Limit = constants.DefaultActivityLogLimit
	}
	if cfg.RestrictedMethods == nil {
		cfg.RestrictedMethods = constants.DefaultRestrictedMethods
	}
	if cfg.IgnoreMethods == nil {
		cfg.IgnoreMethods = constants.DefaultLogIgnoreMethods
	}
	if cfg.Clock == nil {
		cfg.Clock = interfaces.RealClock{}
	}

	return &PermissionLogService{
		limit:      cfg.Limit,
		restricted: toSet(cfg.RestrictedMethods),
		ignored:    toSet(cfg.IgnoreMethods),
		clock:      cfg.Clock,
		logger:     logger.ForComponent(logger.ComponentPermissionLog),
		log:        make([]logRecord, 0, cfg.Limit),
		history:    business.PermissionHistory{},
		pending:    map[ResponseHandle]*correlation{},
	}
}

// LogRequest records a request in the activity log if it is permission
// relevant. The returned handle must be passed to LogResponse; ok is false
// when nothing was recorded.
func (s *PermissionLogService) LogRequest(req business.RPCRequest) (ResponseHandle, bool) {
	methodType, ok := s.classify(req.Method)
	if !ok {
		return 0, false
	}

	entry := &business.ActivityLogEntry{
		ID:          append(json.RawMessage(nil), req.ID...),
		Method:      req.Method,
		MethodType:  methodType,
		Origin:      req.Origin,
		RequestTime: s.clock.Now().UnixMilli(),
	}
	corr := &correlation{
		entry:     entry,
		origin:    req.Origin,
		method:    req.Method,
		requested: requestedPermissionNames(req),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHandle++
	handle := s.nextHandle
	s.pending[handle] = corr
	s.log = append(s.log, logRecord{entry: entry, handle: handle})
	if len(s.log) > s.limit {
		evicted := s.log[0]
		s.log = append(s.log[:0:0], s.log[1:]...)
		if c, ok := s.pending[evicted.handle]; ok && c.requested == nil {
			delete(s.pending, evicted.handle)
		}
	}
	return handle, true
}

// LogResponse fills in the entry created by LogRequest and, for successful
// grants, merges the granted permissions into history. Unknown or already
// used handles are ignored.
func (s *PermissionLogService) LogResponse(handle ResponseHandle, res business.RPCResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	corr, ok := s.pending[handle]
	if !ok {
		return
	}
	delete(s.pending, handle)

	now := s.clock.Now().UnixMilli()
	success := res.Error == nil
	payload, err := json.Marshal(res)
	if err != nil {
		s.logger.Warn("Failed to encode response for activity log",
			zap.String("method", corr.method),
			zap.Error(err))
		payload = nil
	}
	corr.entry.Response = payload
	corr.entry.ResponseTime = &now
	corr.entry.Success = &success

	if !success || corr.requested == nil {
		return
	}
	if update := historyFromResult(corr, res.Result, now); len(update) > 0 {
		s.mergeHistoryLocked(corr.origin, update)
	}
}

// UpdateAccountsHistory records that accounts were exposed to origin now,
// without touching lastApproved. An empty list is a no-op.
func (s *PermissionLogService) UpdateAccountsHistory(origin string, accounts []string) {
	if len(accounts) == 0 {
		return
	}
	now := s.clock.Now().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeHistoryLocked(origin, business.OriginHistory{
		constants.PermissionEthAccounts: {Accounts: accountTimes(accounts, now)},
	})
}

// GetActivityLog returns a copy of the activity log in request order
func (s *PermissionLogService) GetActivityLog() []business.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]business.ActivityLogEntry, len(s.log))
	for i, record := range s.log {
		out[i] = record.entry.Clone()
	}
	return out
}

// GetHistory returns a copy of the permission history
func (s *PermissionLogService) GetHistory() business.PermissionHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Clone()
}

// classify returns the activity method type, or false when the method is not
// logged at all
func (s *PermissionLogService) classify(method string) (string, bool) {
	if _, ok := s.ignored[method]; ok {
		return "", false
	}
	if strings.HasPrefix(method, constants.WalletPrefix) {
		return business.MethodTypeInternal, true
	}
	if _, ok := s.restricted[method]; ok || method == constants.MethodEthRequestAccounts {
		return business.MethodTypeRestricted, true
	}
	return "", false
}

// mergeHistoryLocked merges update into origin's history. Account maps are
// merged additively; lastApproved is replaced unless the update carries none.
func (s *PermissionLogService) mergeHistoryLocked(origin string, update business.OriginHistory) {
	existing, ok := s.history[origin]
	if !ok {
		existing = business.OriginHistory{}
		s.history[origin] = existing
	}

	for name, incoming := range update {
		previous := existing[name]
		merged := business.PermissionHistoryEntry{LastApproved: previous.LastApproved}
		if incoming.LastApproved != 0 {
			merged.LastApproved = incoming.LastApproved
		}
		if previous.Accounts != nil || incoming.Accounts != nil {
			merged.Accounts = make(map[string]int64, len(previous.Accounts)+len(incoming.Accounts))
			for account, seen := range previous.Accounts {
				merged.Accounts[account] = seen
			}
			for account, seen := range incoming.Accounts {
				merged.Accounts[account] = seen
			}
		}
		existing[name] = merged
	}
}

// requestedPermissionNames returns the permission names a request may add to
// history, or nil when it cannot produce history
func requestedPermissionNames(req business.RPCRequest) []string {
	switch req.Method {
	case constants.MethodEthRequestAccounts:
		return []string{constants.PermissionEthAccounts}
	case constants.MethodCreateSession:
		return []string{constants.PermissionCaip25}
	case constants.MethodRequestPermissions:
		var params []json.RawMessage
		if err := json.Unmarshal(req.Params, &params); err != nil || len(params) == 0 {
			return nil
		}
		var requested map[string]json.RawMessage
		if err := json.Unmarshal(params[0], &requested); err != nil || requested == nil {
			return nil
		}
		names := make([]string, 0, len(requested))
		for name := range requested {
			names = append(names, name)
		}
		return names
	default:
		return nil
	}
}

// historyFromResult extracts the history update carried by a successful
// response, keeping only originally requested permissions
func historyFromResult(corr *correlation, result any, now int64) business.OriginHistory {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil
	}

	update := business.OriginHistory{}
	switch corr.method {
	case constants.MethodEthRequestAccounts:
		var accounts []string
		if err := json.Unmarshal(raw, &accounts); err != nil || len(accounts) == 0 {
			return nil
		}
		update[constants.PermissionEthAccounts] = business.PermissionHistoryEntry{
			LastApproved: now,
			Accounts:     accountTimes(accounts, now),
		}

	case constants.MethodCreateSession:
		var session struct {
			SessionScopes caip25.ScopesObject `json:"sessionScopes"`
		}
		if err := json.Unmarshal(raw, &session); err != nil || len(session.SessionScopes) == 0 {
			return nil
		}
		entry := business.PermissionHistoryEntry{LastApproved: now}
		if accounts := caip25.GetEthAccounts(&caip25.Authorization{OptionalScopes: session.SessionScopes}); len(accounts) > 0 {
			entry.Accounts = accountTimes(accounts, now)
		}
		update[constants.PermissionCaip25] = entry

	case constants.MethodRequestPermissions:
		var granted []business.Permission
		if err := json.Unmarshal(raw, &granted); err != nil {
			return nil
		}
		requested := toSet(corr.requested)
		for _, permission := range granted {
			if _, ok := requested[permission.ParentCapability]; !ok {
				continue
			}
			entry := business.PermissionHistoryEntry{LastApproved: now}
			if accounts := permissionAccounts(permission); len(accounts) > 0 {
				entry.Accounts = accountTimes(accounts, now)
			}
			update[permission.ParentCapability] = entry
		}
	}
	return update
}

// permissionAccounts returns the accounts a granted permission exposes
func permissionAccounts(permission business.Permission) []string {
	if caveat, ok := permission.FindCaveat(constants.CaveatRestrictReturnedAccounts); ok {
		values, _ := caveat.StringValues()
		return values
	}
	if caveat, ok := permission.FindCaveat(constants.CaveatAuthorizedScopes); ok {
		if authorization, ok := caveat.Authorization(); ok {
			return caip25.GetEthAccounts(authorization)
		}
	}
	return nil
}

func accountTimes(accounts []string, now int64) map[string]int64 {
	out := make(map[string]int64, len(accounts))
	for _, account := range accounts {
		out[account] = now
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range values {
		out[value] = struct{}{}
	}
	return out
}
