package order_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/6431503106/brselab/model"
	orderrepo "github.com/6431503106/brselab/repository/order"
	productrepo "github.com/6431503106/brselab/repository/product"
	"github.com/6431503106/brselab/service/notify"
	order "github.com/6431503106/brselab/service/order"
)

type repoMock struct {
	createFn          func(ctx context.Context, o *model.Order) error
	byIDFn            func(ctx context.Context, id int64) (*model.Order, error)
	listByUserFn      func(ctx context.Context, userID int64) ([]model.Order, error)
	listAllFn         func(ctx context.Context) ([]model.Order, error)
	deleteFn          func(ctx context.Context, id int64) error
	applyTransitionFn func(ctx context.Context, t orderrepo.Transition) error
	removeItemFn      func(ctx context.Context, orderID int64, itemID string) (bool, error)
	stampFn           func(ctx context.Context, orderID int64, at time.Time) error
	updateReturnFn    func(ctx context.Context, orderID int64, itemID string, at time.Time) error
	dueFn             func(ctx context.Context, cutoff time.Time) ([]orderrepo.DueItem, error)
	markNotifiedFn    func(ctx context.Context, itemRowID int64) error
}

func (m *repoMock) Create(ctx context.Context, o *model.Order) error { return m.createFn(ctx, o) }
func (m *repoMock) ByID(ctx context.Context, id int64) (*model.Order, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *repoMock) ListAll(ctx context.Context) ([]model.Order, error) { return m.listAllFn(ctx) }
func (m *repoMock) Delete(ctx context.Context, id int64) error         { return m.deleteFn(ctx, id) }
func (m *repoMock) ApplyTransition(ctx context.Context, t orderrepo.Transition) error {
	return m.applyTransitionFn(ctx, t)
}
func (m *repoMock) RemoveItem(ctx context.Context, orderID int64, itemID string) (bool, error) {
	return m.removeItemFn(ctx, orderID, itemID)
}
func (m *repoMock) StampBorrowingDates(ctx context.Context, orderID int64, at time.Time) error {
	return m.stampFn(ctx, orderID, at)
}
func (m *repoMock) UpdateReturnDate(ctx context.Context, orderID int64, itemID string, at time.Time) error {
	return m.updateReturnFn(ctx, orderID, itemID, at)
}
func (m *repoMock) DueForReminder(ctx context.Context, cutoff time.Time) ([]orderrepo.DueItem, error) {
	return m.dueFn(ctx, cutoff)
}
func (m *repoMock) MarkNotified(ctx context.Context, itemRowID int64) error {
	return m.markNotifiedFn(ctx, itemRowID)
}

type productsMock struct {
	byIDFn func(ctx context.Context, id int64) (*model.Product, error)
}

func (m *productsMock) ByID(ctx context.Context, id int64) (*model.Product, error) {
	return m.byIDFn(ctx, id)
}

type dispatchMock struct {
	fn   func(ctx context.Context, n notify.Notification) error
	sent []notify.Notification
}

func (m *dispatchMock) Dispatch(ctx context.Context, n notify.Notification) error {
	if m.fn != nil {
		if err := m.fn(ctx, n); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, n)
	return nil
}

type cacheMock struct{ invalidated []int64 }

func (m *cacheMock) Invalidate(ctx context.Context, productID int64) {
	m.invalidated = append(m.invalidated, productID)
}

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

const freeCat = int64(99)

func fixedProduct(id, catID int64) *model.Product {
	return &model.Product{ID: id, CategoryID: catID, Name: "Oscilloscope", Image: "scope.png"}
}

func orderWith(items ...model.OrderItem) *model.Order {
	return &model.Order{
		ID: 1, UserID: 10, UserName: "May", UserEmail: "may@example.com",
		Items: items,
	}
}

func TestSubmit_NoItems(t *testing.T) {
	s := order.New(&repoMock{}, &productsMock{}, nil, nil, testLog, freeCat)
	_, err := s.Submit(context.Background(), 10, nil)
	if order.Code(err) != order.ErrNoItems {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrNoItems)
	}
}

func TestSubmit_ReturnDateRequired(t *testing.T) {
	p := &productsMock{byIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
		return fixedProduct(id, 5), nil
	}}
	s := order.New(&repoMock{}, p, nil, nil, testLog, freeCat)

	_, err := s.Submit(context.Background(), 10, []order.SubmitItem{{ProductID: 7, Qty: 1}})
	if order.Code(err) != order.ErrReturnDateRequired {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrReturnDateRequired)
	}
}

func TestSubmit_FreeCategorySkipsReturnDate(t *testing.T) {
	p := &productsMock{byIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
		return fixedProduct(id, freeCat), nil
	}}
	var created *model.Order
	r := &repoMock{
		createFn: func(ctx context.Context, o *model.Order) error {
			o.ID = 1
			created = o
			return nil
		},
		byIDFn: func(ctx context.Context, id int64) (*model.Order, error) { return created, nil },
	}
	s := order.New(r, p, nil, nil, testLog, freeCat)

	o, err := s.Submit(context.Background(), 10, []order.SubmitItem{{ProductID: 7, Qty: 2}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	it := o.Items[0]
	if it.Status != model.StatusPending {
		t.Fatalf("status = %s, want Pending", it.Status)
	}
	if it.ItemID == "" {
		t.Fatal("item id not assigned")
	}
	if it.Reason != "No reason provided" {
		t.Fatalf("reason = %q, want default", it.Reason)
	}
	if it.BorrowingDate == nil {
		t.Fatal("borrowing date not defaulted")
	}
	if it.Name != "Oscilloscope" || it.Image != "scope.png" {
		t.Fatal("product fields not denormalized from catalog")
	}
}

func TestSubmit_UnknownProduct(t *testing.T) {
	p := &productsMock{byIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
		return nil, productrepo.ErrNotFound
	}}
	s := order.New(&repoMock{}, p, nil, nil, testLog, freeCat)

	_, err := s.Submit(context.Background(), 10, []order.SubmitItem{{ProductID: 404, Qty: 1}})
	if order.Code(err) != order.ErrProductNotFound {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrProductNotFound)
	}
}

func transitionFixture(st model.ItemStatus) (*repoMock, *productsMock, *model.Order) {
	o := orderWith(model.OrderItem{
		ItemID: "it-1", ProductID: 7, Qty: 2, Status: st,
	})
	r := &repoMock{
		byIDFn:            func(ctx context.Context, id int64) (*model.Order, error) { return o, nil },
		applyTransitionFn: func(ctx context.Context, tr orderrepo.Transition) error { return nil },
	}
	p := &productsMock{byIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
		return fixedProduct(id, 5), nil
	}}
	return r, p, o
}

func TestRequestTransition_UnknownStatus(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusPending)
	s := order.New(r, p, nil, nil, testLog, freeCat)

	_, err := s.RequestTransition(context.Background(), 1, "it-1", "Vanished", nil)
	if order.Code(err) != order.ErrBadStatus {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrBadStatus)
	}
}

func TestRequestTransition_InvalidPair(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusPending)
	s := order.New(r, p, nil, nil, testLog, freeCat)

	_, err := s.RequestTransition(context.Background(), 1, "it-1", model.StatusBorrowing, nil)
	if order.Code(err) != order.ErrInvalidTransition {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrInvalidTransition)
	}
}

func TestRequestTransition_ItemNotFound(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusPending)
	s := order.New(r, p, nil, nil, testLog, freeCat)

	_, err := s.RequestTransition(context.Background(), 1, "missing", model.StatusConfirm, nil)
	if order.Code(err) != order.ErrNotFound {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrNotFound)
	}
}

func TestRequestTransition_StockExhausted(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusConfirm)
	r.applyTransitionFn = func(ctx context.Context, tr orderrepo.Transition) error {
		return orderrepo.ErrInsufficientStock
	}
	cache := &cacheMock{}
	s := order.New(r, p, nil, cache, testLog, freeCat)

	_, err := s.RequestTransition(context.Background(), 1, "it-1", model.StatusBorrowing, nil)
	if order.Code(err) != order.ErrNoStock {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrNoStock)
	}
	if len(cache.invalidated) != 0 {
		t.Fatal("cache must not be invalidated on a rejected transition")
	}
}

func TestRequestTransition_ConcurrentUpdate(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusConfirm)
	r.applyTransitionFn = func(ctx context.Context, tr orderrepo.Transition) error {
		return orderrepo.ErrStatusChanged
	}
	s := order.New(r, p, nil, nil, testLog, freeCat)

	_, err := s.RequestTransition(context.Background(), 1, "it-1", model.StatusBorrowing, nil)
	if order.Code(err) != order.ErrStatusConflict {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrStatusConflict)
	}
}

func TestRequestTransition_BorrowAdjustsStockAndCache(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusConfirm)
	var applied orderrepo.Transition
	r.applyTransitionFn = func(ctx context.Context, tr orderrepo.Transition) error {
		applied = tr
		return nil
	}
	cache := &cacheMock{}
	s := order.New(r, p, nil, cache, testLog, freeCat)

	if _, err := s.RequestTransition(context.Background(), 1, "it-1", model.StatusBorrowing, nil); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if applied.From != model.StatusConfirm {
		t.Fatalf("expected-from = %s, want Confirm", applied.From)
	}
	if applied.StockDelta != -2 {
		t.Fatalf("stock delta = %d, want -2", applied.StockDelta)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != 7 {
		t.Fatalf("cache invalidations = %v, want [7]", cache.invalidated)
	}
}

func TestRequestTransition_ConfirmSendsNotification(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusPending)
	d := &dispatchMock{}
	s := order.New(r, p, d, nil, testLog, freeCat)

	if _, err := s.RequestTransition(context.Background(), 1, "it-1", model.StatusConfirm, nil); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(d.sent))
	}
	if d.sent[0].To != "may@example.com" || d.sent[0].Reason != notify.ReasonConfirmed {
		t.Fatalf("unexpected notification: %+v", d.sent[0])
	}
}

func TestRequestTransition_DispatchFailureDoesNotFail(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusPending)
	d := &dispatchMock{fn: func(ctx context.Context, n notify.Notification) error {
		return errors.New("broker down")
	}}
	s := order.New(r, p, d, nil, testLog, freeCat)

	if _, err := s.RequestTransition(context.Background(), 1, "it-1", model.StatusConfirm, nil); err != nil {
		t.Fatalf("transition must survive a failed dispatch, got %v", err)
	}
}

func TestRequestTransition_CancelTwiceSkipsRepo(t *testing.T) {
	r, p, _ := transitionFixture(model.StatusCancel)
	applies := 0
	r.applyTransitionFn = func(ctx context.Context, tr orderrepo.Transition) error {
		applies++
		return nil
	}
	s := order.New(r, p, nil, nil, testLog, freeCat)

	o, err := s.RequestTransition(context.Background(), 1, "it-1", model.StatusCancel, nil)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if applies != 0 {
		t.Fatal("no-op cancel must not write")
	}
	if o == nil {
		t.Fatal("no-op cancel should still return the order")
	}
}

func TestRemoveItem_LastItemDeletesOrder(t *testing.T) {
	r := &repoMock{removeItemFn: func(ctx context.Context, orderID int64, itemID string) (bool, error) {
		return true, nil
	}}
	s := order.New(r, &productsMock{}, nil, nil, testLog, freeCat)

	deleted, err := s.RemoveItem(context.Background(), 1, "it-1")
	if err != nil || !deleted {
		t.Fatalf("got deleted=%v err=%v; want true nil", deleted, err)
	}
}

func TestRemoveItem_NotFound(t *testing.T) {
	r := &repoMock{removeItemFn: func(ctx context.Context, orderID int64, itemID string) (bool, error) {
		return false, orderrepo.ErrItemNotFound
	}}
	s := order.New(r, &productsMock{}, nil, nil, testLog, freeCat)

	_, err := s.RemoveItem(context.Background(), 1, "missing")
	if order.Code(err) != order.ErrNotFound {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrNotFound)
	}
}

func TestChangeReturnDate_NotFound(t *testing.T) {
	r := &repoMock{updateReturnFn: func(ctx context.Context, orderID int64, itemID string, at time.Time) error {
		return orderrepo.ErrItemNotFound
	}}
	s := order.New(r, &productsMock{}, nil, nil, testLog, freeCat)

	err := s.ChangeReturnDate(context.Background(), 1, "missing", time.Now())
	if order.Code(err) != order.ErrNotFound {
		t.Fatalf("code = %v, want %v", order.Code(err), order.ErrNotFound)
	}
}
