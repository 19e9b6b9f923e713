package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type FormSweeper interface {
	Sweep(ctx context.Context) int
}

type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StartFormSweepJob periodically drops idle form instances. Their pending
// uploads are reported by the registry's orphan hook.
func StartFormSweepJob(ctx context.Context, interval time.Duration, forms FormSweeper, logger zerolog.Logger) {
	if forms == nil {
		return
	}
	every(ctx, interval, func(tickCtx context.Context) {
		if n := forms.Sweep(tickCtx); n > 0 {
			logger.Info().Int("forms", n).Msg("form sweep discarded idle forms")
		}
	})
}

// StartSessionCleanupJob deletes expired rows from a database session store.
func StartSessionCleanupJob(ctx context.Context, interval time.Duration, sessions ExpiredSessionDeleter, logger zerolog.Logger) {
	if sessions == nil {
		logger.Debug().Msg("session cleanup job disabled: no database store")
		return
	}
	every(ctx, interval, func(tickCtx context.Context) {
		n, err := sessions.DeleteExpired(tickCtx)
		if err != nil {
			logger.Error().Err(err).Msg("session cleanup job error")
			return
		}
		if n > 0 {
			logger.Info().Int64("sessions", n).Msg("session cleanup removed expired sessions")
		}
	})
}

func every(ctx context.Context, interval time.Duration, run func(context.Context)) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	timeout := 10 * time.Second
	if interval < timeout {
		timeout = interval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				run(tickCtx)
				cancel()
			}
		}
	}()
}
