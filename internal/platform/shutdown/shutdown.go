package shutdown

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

const DefaultGracePeriod = 15 * time.Second

func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// GraceContext is detached from the already-cancelled signal context.
func GraceContext(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultGracePeriod
	}
	return context.WithTimeout(context.Background(), d)
}
