// Package task runs background jobs around the assessment engine. The only
// job today is the expiry watchdog, which force-completes timed sessions
// whose deadline passed without the user calling Complete.
package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/toeicprep/engine/internal/platform/clock"
	"github.com/toeicprep/engine/internal/service/exam"
	"github.com/toeicprep/engine/internal/store"
)

// sweepTimeout bounds one watchdog pass so a stuck store call cannot pile
// up overlapping sweeps.
const sweepTimeout = 30 * time.Second

// ExpiryWatchdog periodically lists overdue in-progress sessions and
// completes them through the engine's public Complete operation, exactly as
// a user-triggered call would. It holds no state of its own.
type ExpiryWatchdog struct {
	sessions  store.ExamStore
	engine    exam.Service
	clock     clock.Clock
	logger    *slog.Logger
	scheduler *gocron.Scheduler
	interval  time.Duration
}

// NewExpiryWatchdog creates a watchdog sweeping at the given interval.
func NewExpiryWatchdog(
	sessions store.ExamStore,
	engine exam.Service,
	clk clock.Clock,
	interval time.Duration,
	logger *slog.Logger,
) *ExpiryWatchdog {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}
	if clk == nil {
		clk = clock.System()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ExpiryWatchdog{
		sessions:  sessions,
		engine:    engine,
		clock:     clk,
		logger:    logger.With(slog.String("component", "expiry_watchdog")),
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
	}
}

// Start schedules the sweep and returns immediately.
func (w *ExpiryWatchdog) Start() error {
	_, err := w.scheduler.Every(w.interval).Do(w.sweep)
	if err != nil {
		return err
	}
	w.scheduler.StartAsync()
	w.logger.Info("expiry watchdog started",
		slog.Duration("interval", w.interval))
	return nil
}

// Stop halts the sweep schedule. A sweep already in flight finishes.
func (w *ExpiryWatchdog) Stop() {
	w.scheduler.Stop()
	w.logger.Info("expiry watchdog stopped")
}

// Sweep runs one pass immediately, outside the schedule. Used by tests and
// by startup to catch sessions that expired while the process was down.
func (w *ExpiryWatchdog) Sweep(ctx context.Context) {
	w.run(ctx)
}

func (w *ExpiryWatchdog) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	w.run(ctx)
}

func (w *ExpiryWatchdog) run(ctx context.Context) {
	now := w.clock.Now()
	expired, err := w.sessions.ListExpiredSessions(ctx, now)
	if err != nil {
		w.logger.Error("failed to list expired sessions",
			slog.String("error", err.Error()))
		return
	}
	if len(expired) == 0 {
		return
	}

	w.logger.Info("force-completing expired sessions",
		slog.Int("count", len(expired)))

	for _, session := range expired {
		_, err := w.engine.Complete(ctx, session.UserID, session.ID)
		switch {
		case err == nil:
			w.logger.Info("expired session completed",
				slog.String("session_id", session.ID.String()),
				slog.String("user_id", session.UserID.String()))
		case errors.Is(err, exam.ErrAlreadyCompleted),
			errors.Is(err, exam.ErrInvalidState):
			// Raced with the user completing or abandoning; nothing to do.
		default:
			w.logger.Error("failed to complete expired session",
				slog.String("session_id", session.ID.String()),
				slog.String("error", err.Error()))
		}
	}
}
