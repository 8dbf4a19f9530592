package general

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/6431503106/brselab/model"
	gs "github.com/6431503106/brselab/service/general"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc gs.Service
	V   *validator.Validate
	Log *slog.Logger
}

type ContactReq struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

type HandleReq struct {
	ID     int64  `json:"id" validate:"required,gt=0"`
	Action string `json:"action" validate:"required,oneof=reply dismiss"`
	Reply  string `json:"reply"`
}

// POST /v1/contact-us
func (h *Controller) ContactUs(c echo.Context) error {
	var req ContactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	m := model.ContactMessage{Name: req.Name, Email: req.Email, Message: req.Message}
	if err := h.Svc.SubmitMessage(c.Request().Context(), &m); err != nil {
		h.Log.Error("contact submit", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "message received"})
}

// GET /v1/contact-us
func (h *Controller) Messages(c echo.Context) error {
	out, err := h.Svc.ListUnread(c.Request().Context())
	if err != nil {
		h.Log.Error("contact list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// POST /v1/contact-us/handle
func (h *Controller) HandleMessage(c echo.Context) error {
	var req HandleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	if err := h.Svc.Handle(c.Request().Context(), req.ID, req.Action, req.Reply); err != nil {
		switch {
		case errors.Is(err, gs.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "message not found"})
		case errors.Is(err, gs.ErrReplyRequired):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "reply message is required"})
		case errors.Is(err, gs.ErrUnknownAction):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "unknown action"})
		}
		h.Log.Error("contact handle", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "message handled"})
}
