package strongbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/keyless-one/strongbox/errors"
)

// Context is just a renaming of the standard context interface. It carries
// the block time, the execution height and the logger between the
// application and the handlers.
type Context = context.Context

type contextKey int // local to the strongbox module

const (
	contextKeyBlockTime contextKey = iota
	contextKeyHeight
	contextKeyLogger
)

// WithBlockTime sets the block time for the Context. The block time is the
// engine's only notion of "now"; handlers must never read the wall clock.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyBlockTime, t)
}

// BlockTime returns the block time as declared in the context. An error is
// returned if the time was not set, which means the context was built
// outside of a transaction processing flow.
func BlockTime(ctx Context) (time.Time, error) {
	val, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	if !ok {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	return val, nil
}

// IsExpired returns true if given time is in the past as compared to the
// "now" as declared for the block. Expiration is inclusive, meaning that if
// current time is equal to the expiration time then this function returns
// true.
func IsExpired(ctx Context, t UnixTime) (bool, error) {
	now, err := BlockTime(ctx)
	if err != nil {
		return false, errors.Wrap(err, "block time")
	}
	return t <= AsUnixTime(now), nil
}

// WithHeight sets the block height for the Context.
func WithHeight(ctx Context, height int64) Context {
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height, and a flag whether it was set.
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithLogger sets the logger for the Context.
func WithLogger(ctx Context, logger *zap.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the logger from the context, or a no-op logger when
// none was set.
func GetLogger(ctx Context) *zap.Logger {
	if logger, ok := ctx.Value(contextKeyLogger).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}
