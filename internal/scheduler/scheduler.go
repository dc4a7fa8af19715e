// Package scheduler runs the background reminder loop: a periodic check that
// pushes a notification for every open task due within the lookahead window,
// gated by a daily start time and a debounce interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskbot/internal/domain"
	"taskbot/internal/logger"
	"taskbot/internal/metrics"
)

// DueSource yields the open tasks whose deadline falls inside the due window
// starting at now.
type DueSource interface {
	DueSoon(ctx context.Context, now time.Time) ([]domain.DueTask, error)
}

// Notifier delivers a reminder message to a user chat.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Config controls the reminder loop. Zero values fall back to the defaults.
type Config struct {
	WindowStart string        // time-of-day "HH:MM:SS" the daily window opens
	Debounce    time.Duration // min spacing between notification passes
	Tick        time.Duration // poll interval
	Now         func() time.Time
}

func (c *Config) normalize() {
	if c.WindowStart == "" {
		c.WindowStart = "09:00:00"
	}
	if c.Debounce <= 0 {
		c.Debounce = 10 * time.Minute
	}
	if c.Tick <= 0 {
		c.Tick = 10 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Scheduler owns all reminder state explicitly: the last pass time lives here,
// not in a global, and shutdown arrives through the Run context.
type Scheduler struct {
	source   DueSource
	notifier Notifier
	cfg      Config
	log      *slog.Logger

	windowHour, windowMin, windowSec int

	// lastFire starts one debounce in the past so the first eligible
	// window fires on the first tick instead of waiting out the debounce.
	lastFire time.Time
}

func New(source DueSource, notifier Notifier, cfg Config) *Scheduler {
	cfg.normalize()

	log := logger.With("component", "scheduler")

	start, err := time.Parse("15:04:05", cfg.WindowStart)
	if err != nil {
		log.Warn("invalid window start, using 09:00:00", "value", cfg.WindowStart)
		start, _ = time.Parse("15:04:05", "09:00:00")
	}

	return &Scheduler{
		source:     source,
		notifier:   notifier,
		cfg:        cfg,
		log:        log,
		windowHour: start.Hour(),
		windowMin:  start.Minute(),
		windowSec:  start.Second(),
		lastFire:   cfg.Now().Add(-cfg.Debounce),
	}
}

// Run loops until ctx is canceled. Cancellation is observed within one tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	s.log.Info("reminder scheduler started",
		"window_start", s.cfg.WindowStart, "debounce", s.cfg.Debounce, "tick", s.cfg.Tick)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick fires a notification pass when the daily window is open and the
// debounce since the previous pass has elapsed.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.cfg.Now()
	windowStart := time.Date(now.Year(), now.Month(), now.Day(),
		s.windowHour, s.windowMin, s.windowSec, 0, now.Location())

	if now.Before(windowStart) || !now.After(s.lastFire.Add(s.cfg.Debounce)) {
		return
	}

	// Advance before querying: a failed pass is not retried until the next
	// debounce window, matching the at-most-one-pass-per-window guarantee.
	s.lastFire = now
	s.notifyDueTasks(ctx, now)
}

func (s *Scheduler) notifyDueTasks(ctx context.Context, now time.Time) {
	metrics.ReminderPasses.Inc()

	tasks, err := s.source.DueSoon(ctx, now)
	if err != nil {
		s.log.Error("due task query failed", "error", err)
		return
	}

	for _, t := range tasks {
		text := fmt.Sprintf("Reminder: Task '%s' is due in 24 hours!", t.Description)
		if err := s.notifier.Notify(t.UserID, text); err != nil {
			// One failed delivery never blocks the remaining tasks.
			s.log.Error("reminder delivery failed", "user_id", t.UserID, "task_id", t.ID, "error", err)
			metrics.ReminderFailures.Inc()
			continue
		}
		s.log.Info("notified user about due task", "user_id", t.UserID, "task_id", t.ID)
		metrics.RemindersSent.Inc()
	}
}
