package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/pkg/auth"
	"github.com/labstack/echo/v4"
)

func (h *Handler) GetAvailability(c echo.Context) error {
	itemUid := c.Param("itemUid")

	start, err := time.Parse(time.DateOnly, c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start is invalid, expected YYYY-MM-DD")
	}
	end, err := time.Parse(time.DateOnly, c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "end is invalid, expected YYYY-MM-DD")
	}

	resp, err := h.cageSvc.RangeAvailability(c.Request().Context(), itemUid, model.Date{Time: start}, model.Date{Time: end})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userName := auth.UserName(c.Request().Context())
	if userName == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errs.ErrUserName.Error())
	}
	req.UserName = userName

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.cageSvc.CreateReservation(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetReservation(c echo.Context) error {
	res, err := h.cageSvc.GetReservation(c.Request().Context(), c.Param("reservationUid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetReservations lists pending requests first, then by start date. Students
// only see their own; staff may filter by any user with mine=false.
func (h *Handler) GetReservations(c echo.Context) error {
	ctx := c.Request().Context()

	filter := model.ReservationFilter{
		Status: model.ReservationStatus(c.QueryParam("status")),
	}
	mine := !auth.IsStaff(ctx)
	if mineParam := c.QueryParam("mine"); mineParam != "" {
		v, err := strconv.ParseBool(mineParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "mine is invalid")
		}
		mine = mine || v
	}
	if mine {
		filter.UserName = auth.UserName(ctx)
	}

	rsv, err := h.cageSvc.GetReservations(ctx, filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

func (h *Handler) UpdateReservationStatus(c echo.Context) error {
	reservationUid := c.Param("reservationUid")
	if reservationUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}

	var req model.UpdateReservationStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	// students may only withdraw their own requests
	if !auth.IsStaff(ctx) {
		if req.Status != model.ReservationStatusCancelled {
			return echo.NewHTTPError(http.StatusForbidden, "staff only")
		}
		res, err := h.cageSvc.GetReservation(ctx, reservationUid)
		if err != nil {
			return httpError(err)
		}
		if res.UserName != auth.UserName(ctx) {
			return echo.NewHTTPError(http.StatusForbidden, "not the owner")
		}
	}

	res, err := h.cageSvc.UpdateReservationStatus(ctx, reservationUid, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}
