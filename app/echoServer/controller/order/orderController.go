package order

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/6431503106/brselab/app/echoServer/jwtx"
	"github.com/6431503106/brselab/model"
	os "github.com/6431503106/brselab/service/order"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc os.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/orders
func (h *Controller) Submit(c echo.Context) error {
	var req SubmitOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	items := make([]os.SubmitItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, os.SubmitItem{
			ProductID:     it.ProductID,
			Qty:           it.Qty,
			Reason:        it.Reason,
			BorrowingDate: it.BorrowingDate,
			ReturnDate:    it.ReturnDate,
		})
	}

	out, err := h.Svc.Submit(c.Request().Context(), uid, items)
	if err != nil {
		h.Log.Error("order submit", "err", err)
		switch os.Code(err) {
		case os.ErrNoItems:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "no order items"})
		case os.ErrProductNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		case os.ErrReturnDateRequired:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "return date is required for non-free items"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/orders/my
func (h *Controller) Mine(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	out, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("order list mine", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/orders/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.ByID(c.Request().Context(), id)
	if err != nil {
		if os.Code(err) == os.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order not found"})
		}
		h.Log.Error("order detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	// Owners see their own orders; staff see all.
	uid, _ := jwtx.UserIDFromContext(c)
	if out.UserID != uid && !jwtx.IsStaff(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/orders
func (h *Controller) ListAll(c echo.Context) error {
	out, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("order list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// DELETE /v1/orders/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if os.Code(err) == os.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order not found"})
		}
		h.Log.Error("order delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// PUT /v1/orders/:id/borrow
func (h *Controller) StampBorrowingDates(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.StampBorrowingDates(c.Request().Context(), id)
	if err != nil {
		if os.Code(err) == os.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order not found"})
		}
		h.Log.Error("order borrow stamp", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /v1/orders/:orderID/items/:itemID/status
func (h *Controller) UpdateItemStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid order id"})
	}
	itemID := c.Param("itemID")

	var req UpdateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	out, err := h.Svc.RequestTransition(c.Request().Context(), orderID, itemID,
		model.ItemStatus(req.Status), req.ReturnDate)
	if err != nil {
		h.Log.Error("order item status", "order_id", orderID, "item_id", itemID, "err", err)
		switch os.Code(err) {
		case os.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order or item not found"})
		case os.ErrProductNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		case os.ErrNoStock:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "not enough stock to confirm the order"})
		case os.ErrBadStatus:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown status"})
		case os.ErrInvalidTransition:
			return c.JSON(http.StatusConflict, echo.Map{"message": "invalid status transition"})
		case os.ErrStatusConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "item was updated concurrently, retry"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /v1/orders/:orderID/items/:itemID/return-date
func (h *Controller) ChangeReturnDate(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid order id"})
	}
	itemID := c.Param("itemID")

	var req ChangeReturnDateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	if err := h.Svc.ChangeReturnDate(c.Request().Context(), orderID, itemID, req.ReturnDate); err != nil {
		if os.Code(err) == os.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order or item not found"})
		}
		h.Log.Error("order return date", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "return date updated"})
}

// DELETE /v1/orders/:orderID/items/:itemID
func (h *Controller) RemoveItem(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid order id"})
	}
	itemID := c.Param("itemID")

	orderDeleted, err := h.Svc.RemoveItem(c.Request().Context(), orderID, itemID)
	if err != nil {
		if os.Code(err) == os.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "order or item not found"})
		}
		h.Log.Error("order remove item", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if orderDeleted {
		return c.JSON(http.StatusOK, echo.Map{"message": "order and item deleted"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "item removed from order"})
}
