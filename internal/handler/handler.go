package handler

import (
	"net/http"
	"strconv"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/pkg/auth"
	md "github.com/equipcage/cage-service/pkg/middleware"
	"github.com/equipcage/cage-service/pkg/validate"
	_ "github.com/equipcage/cage-service/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	cageSvc CageService
	log     *zap.Logger
}

func New(cageSvc CageService, log *zap.Logger) *Handler {
	return &Handler{
		cageSvc: cageSvc,
		log:     log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	api = api.Group("", md.AuthContext)

	api.GET("/items", h.GetItems)
	api.POST("/items", h.CreateItem)
	api.GET("/items/:itemUid", h.GetItem)
	api.PATCH("/items/:itemUid", h.UpdateItem)
	api.DELETE("/items/:itemUid", h.DeleteItem)
	api.GET("/items/:itemUid/availability", h.GetAvailability)

	api.GET("/reservations", h.GetReservations)
	api.POST("/reservations", h.CreateReservation)
	api.GET("/reservations/:reservationUid", h.GetReservation)
	api.PATCH("/reservations/:reservationUid", h.UpdateReservationStatus)

	api.GET("/loans", h.GetLoans)
	api.POST("/loans", h.Checkout)
	api.GET("/loans/:loanUid", h.GetLoan)
	api.POST("/loans/:loanUid/return", h.ReturnLoan)

	api.GET("/stats", h.GetStats)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps business error kinds onto transport status codes; anything
// unrecognized is an infrastructure failure.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrItemInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	var validation *errs.ValidationError
	if errors.As(err, &validation) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var (
		capacity   *errs.InsufficientCapacityError
		available  *errs.InsufficientAvailableError
		returned   *errs.AlreadyReturnedError
		transition *errs.InvalidTransitionError
		conflict   *errs.ConflictError
	)
	if errors.As(err, &capacity) || errors.As(err, &available) ||
		errors.As(err, &returned) || errors.As(err, &transition) || errors.As(err, &conflict) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) CreateItem(c echo.Context) error {
	if !auth.IsStaff(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusForbidden, "staff only")
	}
	var req model.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.cageSvc.CreateItem(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) GetItem(c echo.Context) error {
	item, err := h.cageSvc.GetItem(c.Request().Context(), c.Param("itemUid"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) GetItems(c echo.Context) error {
	var (
		err  error
		page int
		size int
	)
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("page is invalid"))
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.New("size is invalid"))
		}
	}

	items, err := h.cageSvc.ListItems(c.Request().Context(), c.QueryParam("category"), page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	if !auth.IsStaff(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusForbidden, "staff only")
	}
	var req model.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.cageSvc.UpdateItem(c.Request().Context(), c.Param("itemUid"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	if !auth.IsStaff(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusForbidden, "staff only")
	}
	if err := h.cageSvc.DeleteItem(c.Request().Context(), c.Param("itemUid")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	if !auth.IsAdmin(ctx) {
		return echo.NewHTTPError(http.StatusUnauthorized, "no admin")
	}

	stat, err := h.cageSvc.GetStats(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stat)
}
