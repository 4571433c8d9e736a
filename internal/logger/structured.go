package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogComponent represents different system components for filtering
type LogComponent string

const (
	ComponentEngine        LogComponent = "engine"
	ComponentPermissionLog LogComponent = "permission_log"
	ComponentNotifications LogComponent = "notifications"
	ComponentStore         LogComponent = "store"
	ComponentRPC           LogComponent = "rpc"
	ComponentApprovals     LogComponent = "approvals"
	ComponentMiddleware    LogComponent = "middleware"
	ComponentServer        LogComponent = "server"
	ComponentConfig        LogComponent = "config"
)

// ForComponent returns the global logger tagged with a component field.
func ForComponent(component LogComponent) *zap.Logger {
	return L().With(zap.String("component", string(component)))
}

// LogContext holds structured context information for logs
type LogContext struct {
	Origin        string
	CorrelationID string
	RequestID     string
	Component     LogComponent
	Operation     string
	Duration      time.Duration
	Fields        map[string]interface{}
}

// StructuredLogger provides enhanced logging with structured context
type StructuredLogger struct {
	logger    *zap.Logger
	component LogComponent
	context   LogContext
}

// NewStructuredLogger creates a new structured logger for a specific component
func NewStructuredLogger(component LogComponent) *StructuredLogger {
	return &StructuredLogger{
		logger:    L(),
		component: component,
		context:   LogContext{Component: component, Fields: make(map[string]interface{})},
	}
}

// WithField adds a field to the log context
func (sl *StructuredLogger) WithField(key string, value interface{}) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.Fields[key] = value
	return newLogger
}

// WithFields adds multiple fields to the log context
func (sl *StructuredLogger) WithFields(fields map[string]interface{}) *StructuredLogger {
	newLogger := sl.clone()
	for k, v := range fields {
		newLogger.context.Fields[k] = v
	}
	return newLogger
}

// WithOrigin adds the requesting origin to the log context
func (sl *StructuredLogger) WithOrigin(origin string) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.Origin = origin
	return newLogger
}

// WithCorrelationID adds correlation ID to the log context
func (sl *StructuredLogger) WithCorrelationID(correlationID string) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.CorrelationID = correlationID
	return newLogger
}

// WithRequestID adds the RPC or approval request ID to the log context
func (sl *StructuredLogger) WithRequestID(requestID string) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.RequestID = requestID
	return newLogger
}

// WithOperation adds operation name to the log context
func (sl *StructuredLogger) WithOperation(operation string) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.Operation = operation
	return newLogger
}

// WithDuration adds duration to the log context
func (sl *StructuredLogger) WithDuration(duration time.Duration) *StructuredLogger {
	newLogger := sl.clone()
	newLogger.context.Duration = duration
	return newLogger
}

func (sl *StructuredLogger) clone() *StructuredLogger {
	newFields := make(map[string]interface{}, len(sl.context.Fields))
	for k, v := range sl.context.Fields {
		newFields[k] = v
	}

	ctx := sl.context
	ctx.Fields = newFields
	return &StructuredLogger{
		logger:    sl.logger,
		component: sl.component,
		context:   ctx,
	}
}

// buildFields creates zap fields from the log context
func (sl *StructuredLogger) buildFields() []zapcore.Field {
	fields := make([]zapcore.Field, 0, len(sl.context.Fields)+6)

	if sl.context.Component != "" {
		fields = append(fields, zap.String("component", string(sl.context.Component)))
	}
	if sl.context.Origin != "" {
		fields = append(fields, zap.String("origin", sl.context.Origin))
	}
	if sl.context.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", sl.context.CorrelationID))
	}
	if sl.context.RequestID != "" {
		fields = append(fields, zap.String("request_id", sl.context.RequestID))
	}
	if sl.context.Operation != "" {
		fields = append(fields, zap.String("operation", sl.context.Operation))
	}
	if sl.context.Duration > 0 {
		fields = append(fields, zap.Duration("duration", sl.context.Duration))
	}

	for key, value := range sl.context.Fields {
		fields = append(fields, zap.Any(key, value))
	}

	return fields
}

// Debug logs a debug message with structured context
func (sl *StructuredLogger) Debug(msg string) {
	sl.logger.Debug(msg, sl.buildFields()...)
}

// Info logs an info message with structured context
func (sl *StructuredLogger) Info(msg string) {
	sl.logger.Info(msg, sl.buildFields()...)
}

// Warn logs a warning message with structured context
func (sl *StructuredLogger) Warn(msg string) {
	sl.logger.Warn(msg, sl.buildFields()...)
}

// Error logs an error message with structured context
func (sl *StructuredLogger) Error(msg string, err error) {
	fields := sl.buildFields()
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	sl.logger.Error(msg, fields...)
}

// LogOperation logs the start and end of an operation with timing
func (sl *StructuredLogger) LogOperation(operation string, fn func() error) error {
	start := time.Now()
	opLogger := sl.WithOperation(operation)

	opLogger.Debug("Operation started")

	err := fn()
	finalLogger := opLogger.WithDuration(time.Since(start))

	if err != nil {
		finalLogger.Error("Operation failed", err)
	} else {
		finalLogger.Info("Operation completed")
	}

	return err
}

// LogApprovalEvent logs a decision taken on a pending permissions request
func (sl *StructuredLogger) LogApprovalEvent(requestID, origin, decision string) {
	sl.WithRequestID(requestID).WithOrigin(origin).WithField("decision", decision).Info("Approval decision recorded")
}
