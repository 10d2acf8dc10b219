package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jacobbrewer1/wardenbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
	"github.com/Jacobbrewer1/wardenbot/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const (
	// DefaultSweepInterval is how often inactive report tickets are looked for.
	DefaultSweepInterval = 10 * time.Minute

	// DefaultMaxIdle is how long a report ticket may go without a message before it is closed.
	DefaultMaxIdle = 24 * time.Hour

	// defaultSweepConcurrency is how many guilds are swept at the same time.
	defaultSweepConcurrency = 4
)

// closer closes tickets.
type closer interface {
	Status(ctx context.Context, guildID, threadID string) (*entities.TicketRecord, error)
	Close(ctx context.Context, req CloseRequest) error
}

// SweepResult counts what a sweep did.
type SweepResult struct {
	// Overlapped is set when the sweep did not run because another one was in progress.
	Overlapped bool

	Guilds  int
	Checked int
	Closed  int
	Missing int
	Failed  int
}

func (r *SweepResult) add(o SweepResult) {
	r.Checked += o.Checked
	r.Closed += o.Closed
	r.Missing += o.Missing
	r.Failed += o.Failed
}

// Sweeper closes report tickets whose thread has been inactive for too long. The tickets are found from the stored
// records on every sweep; there is no timer per ticket.
type Sweeper struct {
	// l is the logger.
	l *slog.Logger

	// tickets closes the inactive tickets.
	tickets closer

	// store is where the open tickets are found.
	store dataaccess.TicketStore

	// dir resolves the ticket threads.
	dir Directory

	// interval is the time between sweeps.
	interval time.Duration

	// maxIdle is how long a thread may be inactive.
	maxIdle time.Duration

	// concurrency is the number of guilds swept at once.
	concurrency int

	// now is the clock.
	now func() time.Time

	// mut is held while a sweep runs.
	mut sync.Mutex

	// lastSweep is the unix nano time of the last completed sweep, or of the start of Run.
	lastSweep atomic.Int64
}

// NewSweeper creates a new sweeper. Zero durations use the defaults.
func NewSweeper(l *slog.Logger, svc *Service, store dataaccess.TicketStore, dir Directory, interval, maxIdle time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}

	return &Sweeper{
		l:           l.With(slog.String("component", "ticket_sweeper")),
		tickets:     svc,
		store:       store,
		dir:         dir,
		interval:    interval,
		maxIdle:     maxIdle,
		concurrency: defaultSweepConcurrency,
		now:         time.Now,
	}
}

// Interval is the time between sweeps.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Run sweeps every interval until the context is done. The first sweep happens one interval after Run is called.
//
// A sweep that is in progress when the context is done is allowed to finish; no further sweep is started.
func (s *Sweeper) Run(ctx context.Context) {
	s.lastSweep.Store(s.now().UnixNano())

	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.l.Info("Ticket sweeper started",
		slog.Duration("interval", s.interval),
		slog.Duration("max_idle", s.maxIdle),
	)

	for {
		select {
		case <-ctx.Done():
			s.l.Info("Ticket sweeper stopped")
			return
		case <-t.C:
			res := s.Sweep(context.WithoutCancel(ctx))
			if res.Overlapped {
				s.l.Warn("Previous sweep still running, skipping")
			}
		}
	}
}

// LastSweep is the time the last sweep completed. Before the first sweep it is the time Run started.
func (s *Sweeper) LastSweep() time.Time {
	n := s.lastSweep.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Check reports an error when sweeps have stopped happening.
func (s *Sweeper) Check(_ context.Context) error {
	last := s.LastSweep()
	if last.IsZero() {
		return errors.New("ticket sweeper not started")
	}
	if since := s.now().Sub(last); since > 3*s.interval {
		return fmt.Errorf("no ticket sweep completed for %s", since.Round(time.Second))
	}
	return nil
}

// Sweep closes every open report ticket whose thread has been inactive for longer than the maximum idle time.
//
// A failure on one ticket is logged and does not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	if !s.mut.TryLock() {
		return SweepResult{Overlapped: true}
	}
	defer s.mut.Unlock()

	timer := prometheus.NewTimer(SweepDuration)
	defer timer.ObserveDuration()

	res := SweepResult{}

	guilds, err := s.store.ListGuildsWithOpenReportTickets(ctx)
	if err != nil {
		s.l.Error("Error listing guilds with open report tickets", slog.String(logging.KeyError, err.Error()))
		res.Failed++
		return res
	}
	res.Guilds = len(guilds)

	now := s.now()
	p := pool.NewWithResults[SweepResult]().WithMaxGoroutines(s.concurrency)
	for _, g := range guilds {
		g := g
		p.Go(func() SweepResult {
			return s.sweepGuild(ctx, g, now)
		})
	}
	for _, r := range p.Wait() {
		res.add(r)
	}

	s.lastSweep.Store(s.now().UnixNano())

	s.l.Debug("Ticket sweep complete",
		slog.Int("guilds", res.Guilds),
		slog.Int("checked", res.Checked),
		slog.Int("closed", res.Closed),
		slog.Int("missing", res.Missing),
		slog.Int("failed", res.Failed),
	)
	return res
}

func (s *Sweeper) sweepGuild(ctx context.Context, g *entities.GuildSettings, now time.Time) SweepResult {
	res := SweepResult{}
	l := s.l.With(slog.String(logging.KeyGuild, g.ID))

	for _, threadID := range g.OpenTickets(entities.TicketTypeReport) {
		res.Checked++

		var outcome string
		var err error

		var pc panics.Catcher
		pc.Try(func() {
			outcome, err = s.sweepTicket(ctx, g.ID, threadID, now)
		})
		if r := pc.Recovered(); r != nil {
			outcome, err = outcomeFailed, r.AsError()
		}

		SweepTickets.WithLabelValues(outcome).Inc()

		switch outcome {
		case outcomeClosed:
			res.Closed++
			if err != nil {
				l.Warn("Inactive ticket closed with errors",
					slog.String(logging.KeyThread, threadID),
					slog.String(logging.KeyError, err.Error()),
				)
			} else {
				l.Info("Inactive ticket closed", slog.String(logging.KeyThread, threadID))
			}
		case outcomeMissing:
			res.Missing++
		case outcomeFailed:
			res.Failed++
			l.Error("Error sweeping ticket",
				slog.String(logging.KeyThread, threadID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	return res
}

// sweepTicket closes the ticket if its thread is inactive.
func (s *Sweeper) sweepTicket(ctx context.Context, guildID, threadID string, now time.Time) (string, error) {
	thread, err := s.dir.Thread(ctx, guildID, threadID)
	if errors.Is(err, ErrNotFound) {
		// The thread was deleted. The record is left as it is.
		return outcomeMissing, nil
	} else if err != nil {
		return outcomeFailed, fmt.Errorf("error getting thread: %w", err)
	}

	if now.Sub(thread.LastActivity) <= s.maxIdle {
		return outcomeActive, nil
	}

	// The ticket may have been closed since the guild was listed.
	record, err := s.tickets.Status(ctx, guildID, threadID)
	if errors.Is(err, ErrNoSuchTicket) {
		return outcomeMissing, nil
	} else if err != nil {
		return outcomeFailed, fmt.Errorf("error getting ticket: %w", err)
	}
	if !record.Open || record.Type != entities.TicketTypeReport {
		return outcomeSkipped, nil
	}

	err = s.tickets.Close(ctx, CloseRequest{
		GuildID:  guildID,
		ThreadID: threadID,
	})
	sideEffectErr := new(SideEffectError)
	switch {
	case err == nil:
		return outcomeClosed, nil
	case errors.As(err, &sideEffectErr):
		return outcomeClosed, err
	case errors.Is(err, ErrNoSuchTicket):
		return outcomeMissing, nil
	default:
		return outcomeFailed, err
	}
}
