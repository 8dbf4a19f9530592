package category

import (
	"errors"
	"log/slog"
	"net/http"

	cs "github.com/6431503106/brselab/service/category"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc cs.Service
	V   *validator.Validate
	Log *slog.Logger
}

type CreateReq struct {
	Name string `json:"name" validate:"required"`
}

// GET /v1/categories
func (h *Controller) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("category list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// POST /v1/categories
func (h *Controller) Create(c echo.Context) error {
	var req CreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	out, err := h.Svc.Create(c.Request().Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, cs.ErrNameRequired):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "category name is required"})
		case errors.Is(err, cs.ErrDuplicate):
			return c.JSON(http.StatusConflict, echo.Map{"message": "category already exists"})
		}
		h.Log.Error("category create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, out)
}
