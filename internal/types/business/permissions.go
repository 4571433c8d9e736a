package business

import (
	"encoding/json"
	"fmt"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/constants"
)

// Account is an entry of the account directory
type Account struct {
	Address string   `json:"address"`
	Scopes  []string `json:"scopes"`
}

// Caveat is a restriction attached to a granted permission. Value is a
// []string for restrictReturnedAccounts and restrictNetworkSwitching, and a
// *caip25.Authorization for authorizedScopes.
type Caveat struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// UnmarshalJSON decodes Value into the concrete type implied by Type
func (c *Caveat) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Type = raw.Type
	switch raw.Type {
	case constants.CaveatRestrictReturnedAccounts, constants.CaveatRestrictNetworkSwitching:
		var values []string
		if err := json.Unmarshal(raw.Value, &values); err != nil {
			return fmt.Errorf("invalid %s caveat value: %w", raw.Type, err)
		}
		c.Value = values
	case constants.CaveatAuthorizedScopes:
		var authorization caip25.Authorization
		if err := json.Unmarshal(raw.Value, &authorization); err != nil {
			return fmt.Errorf("invalid %s caveat value: %w", raw.Type, err)
		}
		c.Value = &authorization
	default:
		var value any
		if len(raw.Value) > 0 {
			if err := json.Unmarshal(raw.Value, &value); err != nil {
				return err
			}
		}
		c.Value = value
	}
	return nil
}

// StringValues returns the value of a list caveat
func (c Caveat) StringValues() ([]string, bool) {
	values, ok := c.Value.([]string)
	return values, ok
}

// Authorization returns the value of an authorizedScopes caveat
func (c Caveat) Authorization() (*caip25.Authorization, bool) {
	authorization, ok := c.Value.(*caip25.Authorization)
	return authorization, ok && authorization != nil
}

// Permission is a capability granted to an origin
type Permission struct {
	ID               string   `json:"id"`
	ParentCapability string   `json:"parentCapability"`
	Invoker          string   `json:"invoker"`
	Caveats          []Caveat `json:"caveats"`
	Date             int64    `json:"date"`
}

// FindCaveat returns the caveat of the given type
func (p Permission) FindCaveat(caveatType string) (Caveat, bool) {
	for _, caveat := range p.Caveats {
		if caveat.Type == caveatType {
			return caveat, true
		}
	}
	return Caveat{}, false
}

// WithCaveat returns a copy of the permission whose caveat of the same type is
// replaced by caveat, or appended if none exists.
func (p Permission) WithCaveat(caveat Caveat) Permission {
	next := p
	next.Caveats = make([]Caveat, 0, len(p.Caveats)+1)
	replaced := false
	for _, existing := range p.Caveats {
		if existing.Type == caveat.Type {
			next.Caveats = append(next.Caveats, caveat)
			replaced = true
			continue
		}
		next.Caveats = append(next.Caveats, existing)
	}
	if !replaced {
		next.Caveats = append(next.Caveats, caveat)
	}
	return next
}

// SubjectPermissions maps permission names to the permissions held by one origin
type SubjectPermissions map[string]Permission

// Clone returns a copy of the map. Permissions are values and caveat values
// are treated as immutable, so a shallow copy per entry is sufficient.
func (s SubjectPermissions) Clone() SubjectPermissions {
	out := make(SubjectPermissions, len(s))
	for name, permission := range s {
		permission.Caveats = append([]Caveat(nil), permission.Caveats...)
		out[name] = permission
	}
	return out
}

// Names returns the permission names in the map
func (s SubjectPermissions) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// RequestedPermission describes one permission an origin asks for
type RequestedPermission struct {
	Caveats []Caveat `json:"caveats,omitempty"`
}

// WithCaveat returns a copy whose caveat of the same type is replaced, or
// appended if none exists
func (r RequestedPermission) WithCaveat(caveat Caveat) RequestedPermission {
	return RequestedPermission{Caveats: Permission{Caveats: r.Caveats}.WithCaveat(caveat).Caveats}
}

// FindCaveat returns the requested caveat of the given type
func (r RequestedPermission) FindCaveat(caveatType string) (Caveat, bool) {
	return Permission{Caveats: r.Caveats}.FindCaveat(caveatType)
}

// RequestedPermissions maps permission names to what was requested
type RequestedPermissions map[string]RequestedPermission

// Clone returns a copy of the requested permissions
func (r RequestedPermissions) Clone() RequestedPermissions {
	out := make(RequestedPermissions, len(r))
	for name, requested := range r {
		requested.Caveats = append([]Caveat(nil), requested.Caveats...)
		out[name] = requested
	}
	return out
}

// GrantPermissionsParams is the input of a grant store write
type GrantPermissionsParams struct {
	Subject             string
	ApprovedPermissions RequestedPermissions
}
