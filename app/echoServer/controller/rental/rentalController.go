package rental

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"booklend/model"
	rs "booklend/service/rental"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/rentals/rent
func (h *Controller) Rent(c echo.Context) error {
	var req RentBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(string)

	out, err := h.Svc.Rent(c.Request().Context(), uid, req.BookID)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case rs.ErrNoStock:
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": "book is not available for rent"})
		default:
			h.Log.Error("rental rent", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"rental": out})
}

// PATCH /v1/rentals/:id/return
func (h *Controller) Return(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(string)

	out, err := h.Svc.Return(c.Request().Context(), uid, id)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrRentalNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "rental not found"})
		case rs.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "you can only return your own rented books"})
		case rs.ErrAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book already returned"})
		default:
			h.Log.Error("rental return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"rental": out})
}

// GET /v1/rentals/my
func (h *Controller) MyRentals(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	rows, err := h.Svc.MyRentals(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("rental history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/rentals  (admin)
func (h *Controller) AllRentals(c echo.Context) error {
	role, _ := c.Get("role").(string)
	if role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.AllRentals(c.Request().Context())
	if err != nil {
		h.Log.Error("rental list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
