package errorlog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	installOnce sync.Once
	installed   atomic.Pointer[Reporter]
)

// Install makes logger the process-wide slog default and r the reporter
// returned by Current. Only the first call has an effect.
func Install(logger *slog.Logger, r Reporter) {
	installOnce.Do(func() {
		slog.SetDefault(logger)
		installed.Store(&r)
	})
}

// Current returns the installed reporter, or one that only logs through the
// default slog logger.
func Current() Reporter {
	if r := installed.Load(); r != nil {
		return *r
	}
	return New(slog.Default(), nil)
}

// Recover reports a panic in the calling goroutine. It must be deferred
// directly:
//
//	defer errorlog.Recover(ctx, reporter, "webp-worker")
func Recover(ctx context.Context, r Reporter, component string) {
	v := recover()
	if v == nil {
		return
	}
	err, ok := v.(error)
	if !ok {
		err = fmt.Errorf("%v", v)
	}
	r.LogError(ctx, fmt.Errorf("panic recovered: %w", err),
		"component", component,
		"stack", string(debug.Stack()),
	)
}

// Go runs fn in a new goroutine whose panics are reported instead of
// crashing the process.
func Go(ctx context.Context, r Reporter, component string, fn func(context.Context)) {
	go func() {
		defer Recover(ctx, r, component)
		fn(ctx)
	}()
}
