package httpapi

import (
	"context"
)

// serverBaseCtx is canceled on shutdown. Background cycles started by
// POST /process and open event streams run under it.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level context. Nil restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context from a that is also canceled when b is
// done. The returned cancel releases the watch on b.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	// AfterFunc holds no goroutine once stop runs, even if b never finishes.
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
