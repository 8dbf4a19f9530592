package order

import (
	"context"
	"errors"
	"time"

	"github.com/6431503106/brselab/model"
	orderrepo "github.com/6431503106/brselab/repository/order"
	productrepo "github.com/6431503106/brselab/repository/product"
	"github.com/6431503106/brselab/service/notify"
)

// RequestTransition validates one lifecycle step, applies it atomically
// together with its stock adjustment, and dispatches the notification
// after the write has committed. A failed dispatch never rolls back or
// fails the transition.
func (s *service) RequestTransition(ctx context.Context, orderID int64, itemID string, status model.ItemStatus, returnDate *time.Time) (*model.Order, error) {
	if !model.ValidItemStatus(status) {
		return nil, makeErr(ErrBadStatus)
	}

	o, err := s.r.ByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	var item *model.OrderItem
	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			item = &o.Items[i]
			break
		}
	}
	if item == nil {
		return nil, makeErr(ErrNotFound)
	}

	if _, err := s.products.ByID(ctx, item.ProductID); err != nil {
		if errors.Is(err, productrepo.ErrNotFound) {
			return nil, makeErr(ErrProductNotFound)
		}
		return nil, err
	}

	dec, err := decide(item, status, returnDate, s.now())
	if err != nil {
		return nil, err
	}
	if dec.noop {
		return o, nil
	}

	err = s.r.ApplyTransition(ctx, orderrepo.Transition{
		OrderID:    orderID,
		ItemID:     itemID,
		From:       item.Status,
		ProductID:  item.ProductID,
		StockDelta: dec.stockDelta,
		State:      dec.state,
	})
	switch {
	case errors.Is(err, orderrepo.ErrInsufficientStock):
		return nil, makeErr(ErrNoStock)
	case errors.Is(err, orderrepo.ErrStatusChanged):
		return nil, makeErr(ErrStatusConflict)
	case errors.Is(err, orderrepo.ErrItemNotFound):
		return nil, makeErr(ErrNotFound)
	case err != nil:
		return nil, err
	}

	if s.cache != nil && dec.stockDelta != 0 {
		s.cache.Invalidate(ctx, item.ProductID)
	}

	s.notifyTransition(ctx, o, item.Name, dec)

	return s.r.ByID(ctx, orderID)
}

func (s *service) notifyTransition(ctx context.Context, o *model.Order, itemName string, dec decision) {
	if s.d == nil || o.UserEmail == "" {
		return
	}

	var n notify.Notification
	switch dec.notice {
	case NoticeConfirmed:
		n = notify.Confirmed(o.UserEmail, o.UserName, itemName, dec.state.BorrowingDate)
	case NoticeCanceled:
		n = notify.Canceled(o.UserEmail, o.UserName, itemName)
	case NoticeNonReturnable:
		n = notify.NonReturnable(o.UserEmail, o.UserName, itemName)
	default:
		return
	}

	if err := s.d.Dispatch(ctx, n); err != nil {
		s.log.Error("order: notification dispatch failed", "order_id", o.ID, "reason", n.Reason, "err", err)
	}
}
