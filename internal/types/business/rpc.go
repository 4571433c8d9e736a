package business

import "encoding/json"

// RPCRequest is a JSON-RPC request tagged with the origin that sent it
type RPCRequest struct {
	ID      json.RawMessage `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method" binding:"required"`
	Params  json.RawMessage `json:"params,omitempty"`
	Origin  string          `json:"origin,omitempty"`
}

// RPCErrorPayload is the error member of a JSON-RPC response
type RPCErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RPCResponse is a JSON-RPC response
type RPCResponse struct {
	ID      json.RawMessage  `json:"id,omitempty"`
	JSONRPC string           `json:"jsonrpc"`
	Result  any              `json:"result,omitempty"`
	Error   *RPCErrorPayload `json:"error,omitempty"`
}

// MarshalJSON emits exactly one of result and error. A successful response
// carries "result" even when it is null.
func (r RPCResponse) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			ID      json.RawMessage  `json:"id,omitempty"`
			JSONRPC string           `json:"jsonrpc"`
			Error   *RPCErrorPayload `json:"error"`
		}{r.ID, r.JSONRPC, r.Error})
	}
	return json.Marshal(struct {
		ID      json.RawMessage `json:"id,omitempty"`
		JSONRPC string          `json:"jsonrpc"`
		Result  any             `json:"result"`
	}{r.ID, r.JSONRPC, r.Result})
}

// Notification is an event pushed to an origin
type Notification struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// ChainChangedParams is the payload of a chain changed notification
type ChainChangedParams struct {
	PermittedChains []string `json:"permittedChains"`
}

// SessionChangedParams is the payload of a session changed notification
type SessionChangedParams struct {
	SessionScopes any `json:"sessionScopes"`
	RemovedScopes any `json:"removedScopes,omitempty"`
}
