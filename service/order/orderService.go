package order

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/6431503106/brselab/model"
	orderrepo "github.com/6431503106/brselab/repository/order"
	productrepo "github.com/6431503106/brselab/repository/product"
	"github.com/6431503106/brselab/service/notify"
	"github.com/google/uuid"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrProductNotFound    ErrCode = "PRODUCT_NOT_FOUND"
	ErrNoStock            ErrCode = "NO_STOCK"
	ErrInvalidTransition  ErrCode = "INVALID_TRANSITION"
	ErrStatusConflict     ErrCode = "STATUS_CONFLICT"
	ErrNoItems            ErrCode = "NO_ORDER_ITEMS"
	ErrBadStatus          ErrCode = "INVALID_STATUS"
	ErrReturnDateRequired ErrCode = "RETURN_DATE_REQUIRED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type SubmitItem struct {
	ProductID     int64
	Qty           int64
	Reason        string
	BorrowingDate *time.Time
	ReturnDate    *time.Time
}

type Repo = orderrepo.Repo

type ProductReader interface {
	ByID(ctx context.Context, id int64) (*model.Product, error)
}

// StockCache is invalidated after a committed stock change so catalog
// reads do not serve a stale count. Optional.
type StockCache interface {
	Invalidate(ctx context.Context, productID int64)
}

type Service interface {
	// Submit creates an order with all items Pending.
	Submit(ctx context.Context, userID int64, items []SubmitItem) (*model.Order, error)

	ByID(ctx context.Context, id int64) (*model.Order, error)
	ListMine(ctx context.Context, userID int64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	Delete(ctx context.Context, id int64) error

	// RequestTransition drives one item through the lifecycle table.
	RequestTransition(ctx context.Context, orderID int64, itemID string, status model.ItemStatus, returnDate *time.Time) (*model.Order, error)

	// RemoveItem deletes an item; the order itself is deleted with its
	// last item.
	RemoveItem(ctx context.Context, orderID int64, itemID string) (orderDeleted bool, err error)

	// StampBorrowingDates sets every item's borrowing date to now.
	StampBorrowingDates(ctx context.Context, orderID int64) (*model.Order, error)

	// ChangeReturnDate moves an item's planned return date and rearms
	// its reminder.
	ChangeReturnDate(ctx context.Context, orderID int64, itemID string, at time.Time) error
}

// ----- Service implementation -----

type service struct {
	r        Repo
	products ProductReader
	d        notify.Dispatcher
	cache    StockCache
	log      *slog.Logger

	freeCategoryID int64
	now            func() time.Time
}

func New(r Repo, products ProductReader, d notify.Dispatcher, cache StockCache, log *slog.Logger, freeCategoryID int64) Service {
	return &service{
		r: r, products: products, d: d, cache: cache, log: log,
		freeCategoryID: freeCategoryID,
		now:            time.Now,
	}
}

func (s *service) Submit(ctx context.Context, userID int64, items []SubmitItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, makeErr(ErrNoItems)
	}

	now := s.now()
	o := &model.Order{UserID: userID}
	for _, in := range items {
		p, err := s.products.ByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, productrepo.ErrNotFound) {
				return nil, makeErr(ErrProductNotFound)
			}
			return nil, err
		}

		// Zero-cost items need no planned return date.
		if p.CategoryID != s.freeCategoryID && in.ReturnDate == nil {
			return nil, makeErr(ErrReturnDateRequired)
		}

		reason := in.Reason
		if reason == "" {
			reason = "No reason provided"
		}
		bd := in.BorrowingDate
		if bd == nil {
			bd = &now
		}

		o.Items = append(o.Items, model.OrderItem{
			ItemID:        uuid.NewString(),
			ProductID:     p.ID,
			CategoryID:    p.CategoryID,
			Name:          p.Name,
			Image:         p.Image,
			Qty:           in.Qty,
			Status:        model.StatusPending,
			BorrowingDate: bd,
			ReturnDate:    in.ReturnDate,
			Reason:        reason,
		})
	}

	if err := s.r.Create(ctx, o); err != nil {
		return nil, err
	}
	return s.r.ByID(ctx, o.ID)
}

func (s *service) ByID(ctx context.Context, id int64) (*model.Order, error) {
	o, err := s.r.ByID(ctx, id)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, makeErr(ErrNotFound)
	}
	return o, err
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.r.ListAll(ctx)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.r.Delete(ctx, id)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return makeErr(ErrNotFound)
	}
	return err
}

func (s *service) RemoveItem(ctx context.Context, orderID int64, itemID string) (bool, error) {
	deleted, err := s.r.RemoveItem(ctx, orderID, itemID)
	if errors.Is(err, orderrepo.ErrNotFound) || errors.Is(err, orderrepo.ErrItemNotFound) {
		return false, makeErr(ErrNotFound)
	}
	return deleted, err
}

func (s *service) StampBorrowingDates(ctx context.Context, orderID int64) (*model.Order, error) {
	err := s.r.StampBorrowingDates(ctx, orderID, s.now())
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.r.ByID(ctx, orderID)
}

func (s *service) ChangeReturnDate(ctx context.Context, orderID int64, itemID string, at time.Time) error {
	err := s.r.UpdateReturnDate(ctx, orderID, itemID, at)
	if errors.Is(err, orderrepo.ErrItemNotFound) {
		return makeErr(ErrNotFound)
	}
	return err
}
