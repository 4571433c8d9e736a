package business

import (
	"encoding/json"
	"maps"
)

// Method types recorded in the activity log
const (
	MethodTypeRestricted = "restricted"
	MethodTypeInternal   = "internal"
)

// ActivityLogEntry records one request and, once it lands, its response.
// Times are unix milliseconds.
type ActivityLogEntry struct {
	ID           json.RawMessage `json:"id"`
	Method       string          `json:"method"`
	MethodType   string          `json:"methodType"`
	Origin       string          `json:"origin"`
	RequestTime  int64           `json:"requestTime"`
	Response     json.RawMessage `json:"response"`
	ResponseTime *int64          `json:"responseTime"`
	Success      *bool           `json:"success"`
}

// Clone returns a deep copy of the entry
func (e ActivityLogEntry) Clone() ActivityLogEntry {
	out := e
	out.ID = append(json.RawMessage(nil), e.ID...)
	if e.Response != nil {
		out.Response = append(json.RawMessage(nil), e.Response...)
	}
	if e.ResponseTime != nil {
		v := *e.ResponseTime
		out.ResponseTime = &v
	}
	if e.Success != nil {
		v := *e.Success
		out.Success = &v
	}
	return out
}

// PermissionHistoryEntry is the history of one permission for one origin.
// Accounts maps addresses to the last time they were exposed.
type PermissionHistoryEntry struct {
	LastApproved int64            `json:"lastApproved"`
	Accounts     map[string]int64 `json:"accounts,omitempty"`
}

// OriginHistory maps permission names to their history
type OriginHistory map[string]PermissionHistoryEntry

// PermissionHistory maps origins to their history
type PermissionHistory map[string]OriginHistory

// Clone returns a deep copy of the history
func (h PermissionHistory) Clone() PermissionHistory {
	out := make(PermissionHistory, len(h))
	for origin, permissions := range h {
		cloned := make(OriginHistory, len(permissions))
		for name, entry := range permissions {
			if entry.Accounts != nil {
				entry.Accounts = maps.Clone(entry.Accounts)
			}
			cloned[name] = entry
		}
		out[origin] = cloned
	}
	return out
}
