package business

// ApprovalRequestData is what the approval surface shows to the user
type ApprovalRequestData struct {
	Metadata    ApprovalMetadata     `json:"metadata"`
	Permissions RequestedPermissions `json:"permissions"`
}

// ApprovalMetadata identifies the pending request inside the request data
type ApprovalMetadata struct {
	ID     string `json:"id"`
	Origin string `json:"origin"`
}

// ApprovalRequest is handed to the approval surface
type ApprovalRequest struct {
	ID          string              `json:"id"`
	Origin      string              `json:"origin"`
	Type        string              `json:"type"`
	RequestData ApprovalRequestData `json:"requestData"`
}

// ApprovalResult is the decision returned by the approval surface
type ApprovalResult struct {
	Permissions RequestedPermissions `json:"permissions"`
	Accounts    []string             `json:"accounts,omitempty"`
	ChainIDs    []string             `json:"chainIds,omitempty"`
}
