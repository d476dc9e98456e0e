package logger

import "time"

// OperationLogger logs the steps of one multi-stage operation, each line
// tagged with the operation name
type OperationLogger struct {
	log     Logger
	started time.Time
}

// NewOperationLogger logs the start of operation
func NewOperationLogger(operation string, log Logger) *OperationLogger {
	if log == nil {
		log = GetGlobalLogger()
	}
	op := &OperationLogger{log: log.WithField("operation", operation), started: time.Now()}
	op.log.Info("Starting operation")
	return op
}

// Step logs an intermediate stage
func (op *OperationLogger) Step(step string, fields Fields) {
	op.log.WithField("step", step).WithFields(fields).Info("Operation step")
}

// Success logs the end of the operation
func (op *OperationLogger) Success(message string) {
	op.finish("success").Info(message)
}

// Error logs the failure that ended the operation
func (op *OperationLogger) Error(err error, message string) {
	op.finish("error").WithError(err).Error(message)
}

func (op *OperationLogger) finish(status string) Logger {
	return op.log.WithFields(Fields{
		"status":   status,
		"duration": time.Since(op.started).Round(time.Millisecond).String(),
	})
}

// TimedOperation runs fn between a start and an end line and returns its
// error unchanged
func TimedOperation(operation string, log Logger, fn func() error) error {
	op := NewOperationLogger(operation, log)
	if err := fn(); err != nil {
		op.Error(err, "Operation failed")
		return err
	}
	op.Success("Operation completed")
	return nil
}
