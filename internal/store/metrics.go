package store

import (
	"context"
	"time"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/metrics"
)

func observeDB(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveDBLatency(ctx, operation, start)
	}
}
