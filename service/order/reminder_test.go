package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	orderrepo "github.com/6431503106/brselab/repository/order"
	"github.com/6431503106/brselab/service/notify"
	order "github.com/6431503106/brselab/service/order"
)

func dueFixture() []orderrepo.DueItem {
	rd := time.Now().AddDate(0, 0, 2)
	return []orderrepo.DueItem{
		{ItemRowID: 11, OrderID: 1, ItemName: "Oscilloscope", ReturnDate: rd, UserName: "May", UserEmail: "may@example.com"},
		{ItemRowID: 12, OrderID: 2, ItemName: "Soldering iron", ReturnDate: rd, UserName: "Tan", UserEmail: "tan@example.com"},
	}
}

func TestSweep_SendsAndMarks(t *testing.T) {
	var marked []int64
	var gotCutoff time.Time
	r := &repoMock{
		dueFn: func(ctx context.Context, cutoff time.Time) ([]orderrepo.DueItem, error) {
			gotCutoff = cutoff
			return dueFixture(), nil
		},
		markNotifiedFn: func(ctx context.Context, itemRowID int64) error {
			marked = append(marked, itemRowID)
			return nil
		},
	}
	d := &dispatchMock{}

	before := time.Now()
	sw := order.NewSweeper(r, d, testLog, 72*time.Hour)
	sent, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(marked) != 2 || marked[0] != 11 || marked[1] != 12 {
		t.Fatalf("marked = %v, want [11 12]", marked)
	}
	if d.sent[0].Reason != notify.ReasonReminder {
		t.Fatalf("reason = %q, want %q", d.sent[0].Reason, notify.ReasonReminder)
	}

	want := before.Add(72 * time.Hour)
	if gotCutoff.Before(want) || gotCutoff.After(want.Add(time.Minute)) {
		t.Fatalf("cutoff = %v, want about %v", gotCutoff, want)
	}
}

func TestSweep_FailedDispatchLeavesUnmarked(t *testing.T) {
	var marked []int64
	r := &repoMock{
		dueFn: func(ctx context.Context, cutoff time.Time) ([]orderrepo.DueItem, error) {
			return dueFixture(), nil
		},
		markNotifiedFn: func(ctx context.Context, itemRowID int64) error {
			marked = append(marked, itemRowID)
			return nil
		},
	}
	d := &dispatchMock{fn: func(ctx context.Context, n notify.Notification) error {
		if n.To == "may@example.com" {
			return errors.New("broker down")
		}
		return nil
	}}

	sw := order.NewSweeper(r, d, testLog, 72*time.Hour)
	sent, err := sw.Run(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if len(marked) != 1 || marked[0] != 12 {
		t.Fatalf("marked = %v, want only the delivered item", marked)
	}
}

func TestSweep_QueryError(t *testing.T) {
	r := &repoMock{
		dueFn: func(ctx context.Context, cutoff time.Time) ([]orderrepo.DueItem, error) {
			return nil, errors.New("db down")
		},
	}
	sw := order.NewSweeper(r, &dispatchMock{}, testLog, time.Hour)
	if _, err := sw.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing query")
	}
}

func TestJob_StopTerminates(t *testing.T) {
	r := &repoMock{
		dueFn: func(ctx context.Context, cutoff time.Time) ([]orderrepo.DueItem, error) {
			return nil, nil
		},
	}
	sw := order.NewSweeper(r, &dispatchMock{}, testLog, time.Hour)
	j := order.NewJob(sw, time.Hour, testLog)
	j.Start(context.Background())
	j.Stop()
}
