package order

import (
	"time"

	"github.com/6431503106/brselab/model"
	orderrepo "github.com/6431503106/brselab/repository/order"
)

// Notice names the notification an accepted transition emits.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeConfirmed
	NoticeCanceled
	NoticeNonReturnable
)

// The closed transition table. The original application overwrote the
// status for any unmatched pair with no side effects, which let a
// Pending item jump straight to Borrowing without touching stock;
// unmatched pairs are rejected here instead. Cancel is reachable from
// every other status, Confirm from anywhere (re-approval).
var validNext = map[model.ItemStatus]map[model.ItemStatus]bool{
	model.StatusPending:       {model.StatusConfirm: true, model.StatusCancel: true},
	model.StatusConfirm:       {model.StatusBorrowing: true, model.StatusNonReturnable: true, model.StatusConfirm: true, model.StatusCancel: true},
	model.StatusBorrowing:     {model.StatusReturn: true, model.StatusConfirm: true, model.StatusCancel: true},
	model.StatusReturn:        {model.StatusConfirm: true, model.StatusCancel: true},
	model.StatusNonReturnable: {model.StatusConfirm: true, model.StatusCancel: true},
	model.StatusCancel:        {model.StatusConfirm: true, model.StatusCancel: true},
}

func CanTransition(from, to model.ItemStatus) bool {
	return validNext[from][to]
}

type decision struct {
	state      orderrepo.ItemState
	stockDelta int64
	notice     Notice
	// noop marks an accepted request with nothing to persist
	// (canceling an already-canceled item).
	noop bool
}

// decide maps (current status, requested status) to the item's next
// lifecycle state, the stock adjustment, and the notification to emit.
// Pure; persistence and dispatch happen in the service.
func decide(item *model.OrderItem, req model.ItemStatus, suppliedReturn *time.Time, now time.Time) (decision, error) {
	cur := item.Status
	if !CanTransition(cur, req) {
		return decision{}, makeErr(ErrInvalidTransition)
	}

	st := orderrepo.ItemState{
		Status:           req,
		BorrowingDate:    item.BorrowingDate,
		ReturnDate:       item.ReturnDate,
		ReturnedDate:     item.ReturnedDate,
		CanceledDate:     item.CanceledDate,
		NotificationSent: item.NotificationSent,
	}

	switch {
	case req == model.StatusBorrowing && cur == model.StatusConfirm:
		st.BorrowingDate = &now
		if suppliedReturn != nil {
			st.ReturnDate = suppliedReturn
		}
		st.NotificationSent = false
		return decision{state: st, stockDelta: -item.Qty}, nil

	case req == model.StatusNonReturnable && cur == model.StatusConfirm:
		st.ReturnDate = nil
		st.NotificationSent = true
		return decision{state: st, stockDelta: -item.Qty, notice: NoticeNonReturnable}, nil

	case req == model.StatusReturn && cur == model.StatusBorrowing:
		st.ReturnedDate = &now
		st.ReturnDate = nil
		return decision{state: st, stockDelta: item.Qty}, nil

	case req == model.StatusCancel && cur == model.StatusCancel:
		// canceledDate is never reset
		return decision{noop: true}, nil

	case req == model.StatusCancel:
		st.CanceledDate = &now
		st.ReturnDate = nil
		return decision{state: st, notice: NoticeCanceled}, nil

	case req == model.StatusConfirm:
		return decision{state: st, notice: NoticeConfirmed}, nil
	}

	return decision{}, makeErr(ErrInvalidTransition)
}
