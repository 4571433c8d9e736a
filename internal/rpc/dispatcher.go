// Package rpc routes origin JSON-RPC requests to the authorization engine.
// Methods are registered in a table keyed by name; each entry declares the
// params struct it decodes and validates before the handler runs.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/cyphera/cyphera-permissions/internal/services"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const jsonRPCVersion = "2.0"

// PermissionEngine is the engine surface the dispatcher calls
type PermissionEngine interface {
	RequestPermissions(ctx context.Context, origin string, requested business.RequestedPermissions, opts ...services.RequestOption) (*services.PendingRequest, error)
	GetPermissions(ctx context.Context, origin string) (business.SubjectPermissions, error)
	GetPermittedAccounts(ctx context.Context, origin string) ([]string, error)
	GetSession(origin string) *caip25.Authorization
	RevokePermissions(ctx context.Context, origin string, names []string) error
	RevokeSession(ctx context.Context, origin string) error
}

// ActivityLog records requests and their responses
type ActivityLog interface {
	LogRequest(req business.RPCRequest) (services.ResponseHandle, bool)
	LogResponse(handle services.ResponseHandle, res business.RPCResponse)
}

// handlerFunc runs a method with decoded and validated params
type handlerFunc func(ctx context.Context, origin string, params any) (any, error)

type method struct {
	// newParams returns a pointer to a fresh params value, or nil when the
	// method takes no params
	newParams func() any
	handle    handlerFunc
}

// Dispatcher decodes, validates and routes JSON-RPC requests
type Dispatcher struct {
	engine   PermissionEngine
	log      ActivityLog
	validate *validator.Validate
	methods  map[string]method
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher with every supported method registered
func NewDispatcher(engine PermissionEngine, log ActivityLog) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		methods:  map[string]method{},
		logger:   logger.ForComponent(logger.ComponentRPC),
	}
	d.registerMethods()
	return d
}

// register adds a method whose params decode into P
func register[P any](d *Dispatcher, name string, fn func(ctx context.Context, origin string, params *P) (any, error)) {
	d.methods[name] = method{
		newParams: func() any { return new(P) },
		handle: func(ctx context.Context, origin string, params any) (any, error) {
			return fn(ctx, origin, params.(*P))
		},
	}
}

// registerNoParams adds a method that ignores its params
func registerNoParams(d *Dispatcher, name string, fn func(ctx context.Context, origin string) (any, error)) {
	d.methods[name] = method{
		handle: func(ctx context.Context, origin string, _ any) (any, error) {
			return fn(ctx, origin)
		},
	}
}

// Supports reports whether method is registered
func (d *Dispatcher) Supports(method string) bool {
	_, ok := d.methods[method]
	return ok
}

// Dispatch handles one request. The request and its response are recorded in
// the activity log; errors are returned inside the response.
func (d *Dispatcher) Dispatch(ctx context.Context, req business.RPCRequest) business.RPCResponse {
	handle, logged := d.log.LogRequest(req)

	res := business.RPCResponse{ID: req.ID, JSONRPC: jsonRPCVersion}
	result, err := d.call(ctx, req)
	if err != nil {
		rpcErr := rpcerrors.From(err)
		if rpcErr.Code == rpcerrors.CodeInternal {
			d.logger.Error("RPC method failed",
				zap.String("method", req.Method),
				zap.String("origin", req.Origin),
				zap.Error(err))
		}
		res.Error = rpcErr.Payload()
	} else {
		res.Result = result
	}

	if logged {
		d.log.LogResponse(handle, res)
	}
	return res
}

func (d *Dispatcher) call(ctx context.Context, req business.RPCRequest) (any, error) {
	m, ok := d.methods[req.Method]
	if !ok {
		return nil, rpcerrors.MethodNotFound(req.Method)
	}

	var params any
	if m.newParams != nil {
		params = m.newParams()
		if err := d.decodeParams(req.Params, params); err != nil {
			return nil, err
		}
	}

	result, err := m.handle(ctx, req.Origin, params)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, rpcerrors.ResourceUnavailable("Request for %s was abandoned: %s", req.Method, err.Error())
	}
	return result, err
}

func (d *Dispatcher) decodeParams(raw json.RawMessage, params any) error {
	if len(raw) == 0 {
		return rpcerrors.InvalidParams("Missing params.")
	}
	if err := json.Unmarshal(raw, params); err != nil {
		return rpcerrors.InvalidParams("Invalid params: %s", err.Error())
	}
	if reflect.Indirect(reflect.ValueOf(params)).Kind() != reflect.Struct {
		return nil
	}
	if err := d.validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return rpcerrors.InvalidParams("Invalid params: %s failed on the '%s' rule", first.Field(), first.Tag())
		}
		return rpcerrors.InvalidParams("Invalid params: %s", err.Error())
	}
	return nil
}

// firstParam decodes a positional params array whose first element is an
// object, as used by the wallet permission methods
func firstParam(data []byte, out any) error {
	var positional []json.RawMessage
	if err := json.Unmarshal(data, &positional); err != nil {
		return fmt.Errorf("expected params array: %w", err)
	}
	if len(positional) == 0 {
		return errors.New("expected at least one param")
	}
	return json.Unmarshal(positional[0], out)
}
