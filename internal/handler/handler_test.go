package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/handler"
	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/pkg/auth"
	md "github.com/equipcage/cage-service/pkg/middleware"
	"github.com/equipcage/cage-service/pkg/validate"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/equipcage/cage-service/internal/handler/mocks"
)

func newTestRouter(h *handler.Handler) *echo.Echo {
	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1", md.AuthContext)

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

func TestHandler_CreateItem(t *testing.T) {
	t.Parallel()
	type input struct {
		userName string
		userRole string
		body     string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockCageService, inp input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					CreateItem(gomock.Any(), model.CreateItemRequest{
						Name:          "Canon C70",
						Category:      "camera",
						TotalQuantity: 3,
					}).
					Return(model.Item{
						ItemUid:           "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
						Name:              "Canon C70",
						Category:          "camera",
						TotalQuantity:     3,
						AvailableQuantity: 3,
						IsAvailable:       true,
					}, nil)
			},
			input: input{
				userName: "kit",
				userRole: auth.RoleStaff,
				body:     `{"name":"Canon C70","category":"camera","totalQuantity":3}`,
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"itemUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","name":"Canon C70","category":"camera","totalQuantity":3,"availableQuantity":3,"isAvailable":true,"notes":""}`,
			},
			wantErr: false,
		},
		{
			name:         "err. student forbidden",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {},
			input: input{
				userName: "sam",
				userRole: auth.RoleStudent,
				body:     `{"name":"Canon C70","totalQuantity":3}`,
			},
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"message":"staff only"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. quantity required",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {},
			input: input{
				userName: "kit",
				userRole: auth.RoleStaff,
				body:     `{"name":"Canon C70"}`,
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'CreateItemRequest.TotalQuantity' Error:Field validation for 'TotalQuantity' failed on the 'required' tag"}`,
			},
			wantErr: true,
		},
		{
			name: "err. duplicate name",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					CreateItem(gomock.Any(), gomock.Any()).
					Return(model.Item{}, &errs.ConflictError{Message: `item "Canon C70" already exists`})
			},
			input: input{
				userName: "kit",
				userRole: auth.RoleStaff,
				body:     `{"name":"Canon C70","totalQuantity":3}`,
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"item \"Canon C70\" already exists"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockCageService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)
			e := newTestRouter(h)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(tt.input.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			r.Header.Set(auth.XUserNameHeader, tt.input.userName)
			r.Header.Set(auth.XUserRoleHeader, tt.input.userRole)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetItems(t *testing.T) {
	t.Parallel()
	type input struct {
		category   string
		page, size int
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockCageService, inp input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					ListItems(gomock.Any(), inp.category, inp.page, inp.size).
					Return(model.ListItems{
						Paging: model.Paging{
							Page:          inp.page,
							PageSize:      inp.size,
							TotalElements: 1,
						},
						Items: []model.Item{
							{
								ItemUid:           "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
								Name:              "Sennheiser MKH 416",
								Category:          "audio",
								TotalQuantity:     5,
								AvailableQuantity: 2,
								IsAvailable:       true,
							},
						},
					}, nil)
			},
			input: input{
				category: "audio",
				page:     1,
				size:     10,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"page":1,"pageSize":10,"totalElements":1,"items":[{"itemUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","name":"Sennheiser MKH 416","category":"audio","totalQuantity":5,"availableQuantity":2,"isAvailable":true,"notes":""}]}`,
			},
			wantErr: false,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					ListItems(gomock.Any(), inp.category, inp.page, inp.size).
					Return(model.ListItems{}, errors.New("db internal"))
			},
			input: input{
				category: "audio",
				page:     1,
				size:     10,
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockCageService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)
			e := newTestRouter(h)

			r := httptest.NewRequest(
				http.MethodGet, fmt.Sprintf("/api/v1/items?category=%s&page=%d&size=%d", tt.input.category, tt.input.page, tt.input.size), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			r.Header.Set(auth.XUserNameHeader, "sam")
			r.Header.Set(auth.XUserRoleHeader, auth.RoleStudent)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetItem(t *testing.T) {
	t.Parallel()
	type input struct {
		itemUid string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockCageService, inp input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					GetItem(gomock.Any(), inp.itemUid).
					Return(model.Item{
						ItemUid:           inp.itemUid,
						Name:              "Aputure 120d",
						Category:          "lighting",
						TotalQuantity:     2,
						AvailableQuantity: 1,
						IsAvailable:       true,
						Notes:             "one barn door bent",
					}, nil)
			},
			input: input{itemUid: "83575e12-7ce0-48ee-9931-51919ff3c9ee"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"itemUid":"83575e12-7ce0-48ee-9931-51919ff3c9ee","name":"Aputure 120d","category":"lighting","totalQuantity":2,"availableQuantity":1,"isAvailable":true,"notes":"one barn door bent"}`,
			},
			wantErr: false,
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					GetItem(gomock.Any(), inp.itemUid).
					Return(model.Item{}, errs.ErrNotFound)
			},
			input: input{itemUid: "83575e12-7ce0-48ee-9931-51919ff3c9ee"},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockCageService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)
			e := newTestRouter(h)

			r := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+tt.input.itemUid, http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			r.Header.Set(auth.XUserNameHeader, "sam")
			r.Header.Set(auth.XUserRoleHeader, auth.RoleStudent)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_DeleteItem(t *testing.T) {
	t.Parallel()
	type input struct {
		userRole string
		itemUid  string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockCageService, inp input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					DeleteItem(gomock.Any(), inp.itemUid).
					Return(nil)
			},
			input: input{userRole: auth.RoleStaff, itemUid: "83575e12-7ce0-48ee-9931-51919ff3c9ee"},
			response: response{
				expectedCode: http.StatusNoContent,
				expectedBody: ``,
			},
			wantErr: false,
		},
		{
			name: "err. item in use",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					DeleteItem(gomock.Any(), inp.itemUid).
					Return(errs.ErrItemInUse)
			},
			input: input{userRole: auth.RoleStaff, itemUid: "83575e12-7ce0-48ee-9931-51919ff3c9ee"},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"item has active loans or open reservations"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. student forbidden",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {},
			input:        input{userRole: auth.RoleStudent, itemUid: "83575e12-7ce0-48ee-9931-51919ff3c9ee"},
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"message":"staff only"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockCageService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)
			e := newTestRouter(h)

			r := httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+tt.input.itemUid, http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			r.Header.Set(auth.XUserNameHeader, "kit")
			r.Header.Set(auth.XUserRoleHeader, tt.input.userRole)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_GetStats(t *testing.T) {
	t.Parallel()
	type input struct {
		userRole string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockCageService, inp input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {
				r.EXPECT().
					GetStats(gomock.Any()).
					Return(model.StatsInfo{Data: []model.Stats{
						{
							UserName:        "sam",
							CntCheckouts:    3,
							CntReturns:      2,
							CntReservations: 1,
							QtyCheckedOut:   5,
						},
					}}, nil)
			},
			input: input{userRole: auth.RoleAdmin},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"data":[{"username":"sam","lastUpdated":"0001-01-01T00:00:00Z","cntCheckouts":3,"cntReturns":2,"cntReservations":1,"qtyCheckedOut":5}]}`,
			},
			wantErr: false,
		},
		{
			name:         "err. no admin",
			mockBehavior: func(r *service_mocks.MockCageService, inp input) {},
			input:        input{userRole: auth.RoleStaff},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"no admin"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockCageService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)
			e := newTestRouter(h)

			r := httptest.NewRequest(http.MethodGet, "/api/v1/stats", http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			r.Header.Set(auth.XUserNameHeader, "boss")
			r.Header.Set(auth.XUserRoleHeader, tt.input.userRole)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
