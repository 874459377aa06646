package handler

import (
	"net/http"
	"strconv"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/pkg/auth"
	"github.com/labstack/echo/v4"
)

func (h *Handler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsStaff(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "staff only")
	}

	var req model.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userName := auth.UserName(ctx)
	if userName == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errs.ErrUserName.Error())
	}
	req.UserName = userName

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	loan, err := h.cageSvc.Checkout(ctx, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsStaff(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "staff only")
	}

	loanUid := c.Param("loanUid")
	if loanUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "loanUid is empty")
	}
	var req model.ReturnLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	loan, err := h.cageSvc.ReturnLoan(ctx, loanUid, req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) GetLoan(c echo.Context) error {
	loan, err := h.cageSvc.GetLoan(c.Request().Context(), c.Param("loanUid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) GetLoans(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsStaff(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "staff only")
	}

	filter := model.LoanFilter{
		Status:    model.LoanStatus(c.QueryParam("status")),
		StudentID: c.QueryParam("studentId"),
	}
	if overdueParam := c.QueryParam("overdue"); overdueParam != "" {
		v, err := strconv.ParseBool(overdueParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "overdue is invalid")
		}
		filter.OverdueOnly = v
	}

	loans, err := h.cageSvc.GetLoans(ctx, filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}
