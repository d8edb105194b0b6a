package iou

import (
	"context"

	"github.com/tendermint/tendermint/libs/log"
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

type contextKey int

const (
	contextKeyLogger contextKey = iota
)

// WithLogger returns a context carrying given logger.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the logger stored in the context, or DefaultLogger.
func GetLogger(ctx context.Context) log.Logger {
	if l, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return l
	}
	return DefaultLogger
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	return WithLogger(ctx, GetLogger(ctx).With(keyvals...))
}
