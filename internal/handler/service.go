package handler

import (
	"context"

	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CageService interface {
	CreateItem(ctx context.Context, req model.CreateItemRequest) (model.Item, error)
	GetItem(ctx context.Context, itemUid string) (model.Item, error)
	ListItems(ctx context.Context, category string, page, size int) (model.ListItems, error)
	UpdateItem(ctx context.Context, itemUid string, req model.UpdateItemRequest) (model.Item, error)
	DeleteItem(ctx context.Context, itemUid string) error

	RangeAvailability(ctx context.Context, itemUid string, start, end model.Date) (model.AvailabilityResponse, error)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationUid string, to model.ReservationStatus) (model.Reservation, error)
	GetReservation(ctx context.Context, reservationUid string) (model.Reservation, error)
	GetReservations(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error)

	Checkout(ctx context.Context, req model.CheckoutRequest) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanUid, notes string) (model.Loan, error)
	GetLoan(ctx context.Context, loanUid string) (model.Loan, error)
	GetLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)

	GetStats(ctx context.Context) (model.StatsInfo, error)
}

var _ CageService = (*service.Service)(nil)
