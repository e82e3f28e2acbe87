package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rfid-access-console/internal/access"
)

// Refresher is the part of the tracker the poller drives.
type Refresher interface {
	Refresh(ctx context.Context) (*access.Snapshot, error)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// Poller refreshes the tracker on a cron schedule. A run that is still going
// when the next one is due causes that next run to be skipped.
type Poller struct {
	cron    *cron.Cron
	target  Refresher
	timeout time.Duration
	logger  *slog.Logger
}

// NewPoller schedules refreshes with a standard cron spec or a descriptor
// such as "@every 30s". timeout bounds each run; zero means no bound.
func NewPoller(target Refresher, spec string, timeout time.Duration) (*Poller, error) {
	logger := slog.With("component", "poller")
	cl := cronLogger{logger: logger}

	p := &Poller{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		target:  target,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := p.cron.AddFunc(spec, p.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return p, nil
}

func (p *Poller) run() {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if _, err := p.target.Refresh(ctx); err != nil {
		p.logger.Warn("Scheduled refresh failed", "error", err)
	}
}

// Start begins polling in the background.
func (p *Poller) Start() {
	p.logger.Info("Starting scheduled refresh", "entries", len(p.cron.Entries()))
	p.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish or ctx
// to expire.
func (p *Poller) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		p.logger.Warn("Scheduled refresh still running at shutdown")
	}
}

// Next returns when the next refresh is due.
func (p *Poller) Next() time.Time {
	entries := p.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
