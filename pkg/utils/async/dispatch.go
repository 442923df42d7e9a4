package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/utils/errutil"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

// Func is the signature of Dispatch. Use cases hold one so tests can swap in
// a synchronous runner.
type Func func(ctx context.Context, handler func(ctx context.Context) error)

// Dispatch executes a handler function asynchronously in a new goroutine.
// The request context is detached (the handler must outlive the HTTP
// request) but its logger is carried over.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(bgCtx, goerr.New("panic in async handler", goerr.V("panic", r)), "async handler panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()
}

// Sync runs handler inline and logs its error. It satisfies Func.
func Sync(ctx context.Context, handler func(ctx context.Context) error) {
	if err := handler(ctx); err != nil {
		errutil.Handle(ctx, err, "handler failed")
	}
}
