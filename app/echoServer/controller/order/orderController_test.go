package order_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	orderctrl "github.com/6431503106/brselab/app/echoServer/controller/order"
	"github.com/6431503106/brselab/model"
	ordersvc "github.com/6431503106/brselab/service/order"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type coded struct{ c ordersvc.ErrCode }

func (e coded) Error() string          { return string(e.c) }
func (e coded) Code() ordersvc.ErrCode { return e.c }

type svcMock struct {
	requestTransitionFn func(ctx context.Context, orderID int64, itemID string, status model.ItemStatus, returnDate *time.Time) (*model.Order, error)
	removeItemFn        func(ctx context.Context, orderID int64, itemID string) (bool, error)
}

func (m *svcMock) Submit(ctx context.Context, userID int64, items []ordersvc.SubmitItem) (*model.Order, error) {
	panic("not used")
}
func (m *svcMock) ByID(ctx context.Context, id int64) (*model.Order, error) { panic("not used") }
func (m *svcMock) ListMine(ctx context.Context, userID int64) ([]model.Order, error) {
	panic("not used")
}
func (m *svcMock) ListAll(ctx context.Context) ([]model.Order, error) { panic("not used") }
func (m *svcMock) Delete(ctx context.Context, id int64) error         { panic("not used") }
func (m *svcMock) RequestTransition(ctx context.Context, orderID int64, itemID string, status model.ItemStatus, returnDate *time.Time) (*model.Order, error) {
	return m.requestTransitionFn(ctx, orderID, itemID, status, returnDate)
}
func (m *svcMock) RemoveItem(ctx context.Context, orderID int64, itemID string) (bool, error) {
	return m.removeItemFn(ctx, orderID, itemID)
}
func (m *svcMock) StampBorrowingDates(ctx context.Context, orderID int64) (*model.Order, error) {
	panic("not used")
}
func (m *svcMock) ChangeReturnDate(ctx context.Context, orderID int64, itemID string, at time.Time) error {
	panic("not used")
}

func newCtrl(svc ordersvc.Service) *orderctrl.Controller {
	return &orderctrl.Controller{
		Svc: svc,
		V:   validator.New(),
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func statusRequest(t *testing.T, ctrl *orderctrl.Controller, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/orders/1/items/it-1/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	c.SetParamNames("orderID", "itemID")
	c.SetParamValues("1", "it-1")

	require.NoError(t, ctrl.UpdateItemStatus(c))
	return rec
}

func TestUpdateItemStatus_OK(t *testing.T) {
	svc := &svcMock{
		requestTransitionFn: func(ctx context.Context, orderID int64, itemID string, status model.ItemStatus, returnDate *time.Time) (*model.Order, error) {
			require.Equal(t, int64(1), orderID)
			require.Equal(t, "it-1", itemID)
			require.Equal(t, model.StatusConfirm, status)
			return &model.Order{ID: orderID}, nil
		},
	}
	rec := statusRequest(t, newCtrl(svc), `{"status":"Confirm"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateItemStatus_Codes(t *testing.T) {
	cases := []struct {
		name string
		code ordersvc.ErrCode
		want int
	}{
		{"not found", ordersvc.ErrNotFound, http.StatusNotFound},
		{"product gone", ordersvc.ErrProductNotFound, http.StatusNotFound},
		{"out of stock", ordersvc.ErrNoStock, http.StatusBadRequest},
		{"bad status", ordersvc.ErrBadStatus, http.StatusBadRequest},
		{"invalid transition", ordersvc.ErrInvalidTransition, http.StatusConflict},
		{"lost race", ordersvc.ErrStatusConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &svcMock{
				requestTransitionFn: func(ctx context.Context, orderID int64, itemID string, status model.ItemStatus, returnDate *time.Time) (*model.Order, error) {
					return nil, coded{tc.code}
				},
			}
			rec := statusRequest(t, newCtrl(svc), `{"status":"Confirm"}`)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestUpdateItemStatus_MissingStatus(t *testing.T) {
	rec := statusRequest(t, newCtrl(&svcMock{}), `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem_Messages(t *testing.T) {
	e := echo.New()

	run := func(orderDeleted bool) *httptest.ResponseRecorder {
		svc := &svcMock{removeItemFn: func(ctx context.Context, orderID int64, itemID string) (bool, error) {
			return orderDeleted, nil
		}}
		req := httptest.NewRequest(http.MethodDelete, "/v1/orders/1/items/it-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("orderID", "itemID")
		c.SetParamValues("1", "it-1")
		require.NoError(t, newCtrl(svc).RemoveItem(c))
		return rec
	}

	rec := run(false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "item removed")

	rec = run(true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "order and item deleted")
}
