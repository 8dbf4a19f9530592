package product

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/6431503106/brselab/app/echoServer/jwtx"
	"github.com/6431503106/brselab/model"
	productrepo "github.com/6431503106/brselab/repository/product"
	ps "github.com/6431503106/brselab/service/product"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ps.Service
	V   *validator.Validate
	Log *slog.Logger
}

type UpsertReq struct {
	Name         string `json:"name" validate:"required"`
	Image        string `json:"image"`
	Brand        string `json:"brand"`
	CategoryID   int64  `json:"category_id" validate:"required,gt=0"`
	Description  string `json:"description"`
	CountInStock int64  `json:"count_in_stock" validate:"gte=0"`
}

type ReviewReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// GET /v1/products?keyword=&category=
func (h *Controller) List(c echo.Context) error {
	var f productrepo.Filter
	f.Keyword = c.QueryParam("keyword")
	if raw := c.QueryParam("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid category"})
		}
		f.CategoryID = id
	}
	out, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("product list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/products/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	out, err := h.Svc.ByID(c.Request().Context(), id)
	if err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		h.Log.Error("product detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/products
func (h *Controller) Create(c echo.Context) error {
	var req UpsertReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	p := model.Product{
		UserID:       uid,
		Name:         req.Name,
		Image:        req.Image,
		Brand:        req.Brand,
		CategoryID:   req.CategoryID,
		Description:  req.Description,
		CountInStock: req.CountInStock,
	}
	if err := h.Svc.Create(c.Request().Context(), &p); err != nil {
		switch ps.Code(err) {
		case ps.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product"})
		case ps.ErrBadCategory:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown category"})
		}
		h.Log.Error("product create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, p)
}

// PUT /v1/products/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpsertReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	p := model.Product{
		ID:           id,
		Name:         req.Name,
		Image:        req.Image,
		Brand:        req.Brand,
		CategoryID:   req.CategoryID,
		Description:  req.Description,
		CountInStock: req.CountInStock,
	}
	if err := h.Svc.Update(c.Request().Context(), &p); err != nil {
		switch ps.Code(err) {
		case ps.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		case ps.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product"})
		case ps.ErrBadCategory:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown category"})
		}
		h.Log.Error("product update", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, p)
}

// DELETE /v1/products/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		h.Log.Error("product delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /v1/products/:id/reviews
func (h *Controller) AddReview(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ReviewReq
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

	rv := model.ProductReview{
		ProductID: id,
		UserID:    uid,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.Svc.AddReview(c.Request().Context(), &rv); err != nil {
		switch ps.Code(err) {
		case ps.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		case ps.ErrAlreadyReviewed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "product already reviewed"})
		case ps.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "rating must be between 1 and 5"})
		}
		h.Log.Error("product review", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "review added"})
}
