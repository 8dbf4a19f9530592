package order

import (
	"context"
	"log/slog"
	"time"

	"github.com/6431503106/brselab/service/notify"
)

// Sweeper scans borrowed items whose planned return date is inside the
// lookahead window and sends each owner a one-time reminder. The
// notification_sent flag keeps the sweep idempotent per item; two
// overlapping sweeps can still double-send for an item caught mid-pass,
// which is accepted at a daily cadence.
type Sweeper struct {
	r         Repo
	d         notify.Dispatcher
	log       *slog.Logger
	lookahead time.Duration
	now       func() time.Time
}

func NewSweeper(r Repo, d notify.Dispatcher, log *slog.Logger, lookahead time.Duration) *Sweeper {
	return &Sweeper{r: r, d: d, log: log, lookahead: lookahead, now: time.Now}
}

// Run performs one sweep and reports how many reminders were sent.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	cutoff := s.now().Add(s.lookahead)
	due, err := s.r.DueForReminder(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, d := range due {
		n := notify.ReturnReminder(d.UserEmail, d.UserName, d.ItemName, d.ReturnDate)
		if err := s.d.Dispatch(ctx, n); err != nil {
			// Left unmarked so the next sweep retries it.
			s.log.Error("reminder: dispatch failed", "order_id", d.OrderID, "item", d.ItemName, "err", err)
			continue
		}
		if err := s.r.MarkNotified(ctx, d.ItemRowID); err != nil {
			s.log.Error("reminder: mark failed", "order_id", d.OrderID, "item", d.ItemName, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Job runs the sweep on a fixed interval. Explicit lifecycle: nothing
// ticks before Start, nothing after Stop.
type Job struct {
	sweeper  *Sweeper
	interval time.Duration
	log      *slog.Logger
	stop     chan struct{}
	done     chan struct{}
}

func NewJob(s *Sweeper, interval time.Duration, log *slog.Logger) *Job {
	return &Job{
		sweeper:  s,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (j *Job) Start(ctx context.Context) {
	go func() {
		defer close(j.done)

		t := time.NewTicker(j.interval)
		defer t.Stop()

		j.run(ctx)
		for {
			select {
			case <-t.C:
				j.run(ctx)
			case <-j.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (j *Job) run(ctx context.Context) {
	n, err := j.sweeper.Run(ctx)
	if err != nil {
		j.log.Error("reminder sweep failed", "err", err)
		return
	}
	j.log.Info("reminder sweep done", "sent", n)
}

func (j *Job) Stop() {
	close(j.stop)
	<-j.done
}
