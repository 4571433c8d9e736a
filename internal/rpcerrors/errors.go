// Package rpcerrors defines the JSON-RPC and EIP-1193 error conditions
// surfaced to requesting origins.
package rpcerrors

import (
	"errors"
	"fmt"

	"github.com/cyphera/cyphera-permissions/internal/types/business"
)

// Error codes
const (
	CodeUserRejected        = 4001
	CodeUnauthorized        = 4100
	CodeUnsupportedMethod   = 4200
	CodeResourceUnavailable = -32002
	CodeInvalidParams       = -32602
	CodeMethodNotFound      = -32601
	CodeInternal            = -32603
)

// Sentinels for errors.Is matching. Two *Error values match when their codes
// are equal.
var (
	ErrUserRejected        = &Error{Code: CodeUserRejected, Message: "User rejected the request."}
	ErrUnauthorized        = &Error{Code: CodeUnauthorized, Message: "The requested account and/or method has not been authorized by the user."}
	ErrResourceUnavailable = &Error{Code: CodeResourceUnavailable, Message: "Resource unavailable."}
	ErrInvalidParams       = &Error{Code: CodeInvalidParams, Message: "Invalid method parameter(s)."}
	ErrMethodNotFound      = &Error{Code: CodeMethodNotFound, Message: "The method does not exist / is not available."}
	ErrInternal            = &Error{Code: CodeInternal, Message: "Internal JSON-RPC error."}
)

// Error is a JSON-RPC error
type Error struct {
	Code    int
	Message string
	Data    any
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Payload converts the error to its wire form
func (e *Error) Payload() *business.RPCErrorPayload {
	return &business.RPCErrorPayload{Code: e.Code, Message: e.Message, Data: e.Data}
}

// UserRejected reports that the user declined the request
func UserRejected() *Error {
	return &Error{Code: CodeUserRejected, Message: ErrUserRejected.Message}
}

// Unauthorized reports a call to a permission the origin does not hold
func Unauthorized(format string, args ...any) *Error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// ResourceUnavailable reports a request that cannot be accepted now, such as
// a second pending request for the same origin
func ResourceUnavailable(format string, args ...any) *Error {
	return &Error{Code: CodeResourceUnavailable, Message: fmt.Sprintf(format, args...)}
}

// InvalidParams reports a malformed request
func InvalidParams(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

// MethodNotFound reports an unrecognised method
func MethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("The method %q does not exist / is not available.", method)}
}

// Internal wraps an unexpected failure
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: ErrInternal.Message, Data: err.Error()}
}

// From converts any error to an *Error, keeping *Error values as they are
func From(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return Internal(err)
}
