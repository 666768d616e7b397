// Package scheduler runs MealMate's periodic jobs, such as the midnight reset
// of every daily calorie tracker.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Midnight fires at 00:00 in the scheduler's location.
const Midnight = "0 0 * * *"

// Opts holds scheduler configuration.
type Opts struct {
	Location *time.Location
}

// Option configures the scheduler.
type Option func(*Opts)

// WithLocation sets the zone cron expressions are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) { o.Location = loc }
}

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	loc    *time.Location
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	cfg := Opts{Location: time.Local}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	// Standard 5-field parser (min, hour, dom, month, dow) plus @descriptors
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	c.Start()
	slog.Debug("Scheduler started", "location", cfg.Location.String())
	return &Scheduler{cron: c, parser: parser, loc: cfg.Location}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	id, err := s.cron.AddFunc(expr, task)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	slog.Debug("Scheduler.AddJob: job scheduled", "expr", expr, "id", id, "next", s.cron.Entry(id).Next)
	return nil
}

// NextRun returns when expr would next fire after from, in the scheduler's location.
func (s *Scheduler) NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := s.parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched.Next(from.In(s.loc)), nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Debug("Scheduler stopped")
}
