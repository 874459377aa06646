package service

import (
	"context"
	"time"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/internal/repository"
	"github.com/equipcage/cage-service/pkg/auth"
	"github.com/equipcage/cage-service/pkg/kafka"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	enqueuer Enqueuer
}

func NewService(repo repository.Repository, enqueuer Enqueuer, log *zap.Logger) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		enqueuer: enqueuer,
	}
}

func (s *Service) CreateItem(ctx context.Context, req model.CreateItemRequest) (model.Item, error) {
	return s.repo.CreateItem(ctx, req)
}

func (s *Service) GetItem(ctx context.Context, itemUid string) (model.Item, error) {
	return s.repo.GetItem(ctx, itemUid)
}

func (s *Service) ListItems(ctx context.Context, category string, page, size int) (model.ListItems, error) {
	return s.repo.ListItems(ctx, category, page, size)
}

func (s *Service) UpdateItem(ctx context.Context, itemUid string, req model.UpdateItemRequest) (model.Item, error) {
	return s.repo.UpdateItem(ctx, itemUid, req)
}

func (s *Service) DeleteItem(ctx context.Context, itemUid string) error {
	return s.repo.DeleteItem(ctx, itemUid)
}

// RangeAvailability answers "how many units are free across [start, end]",
// counting committed reservations only. The shelf counter on the item answers
// the separate "how many right now" question for checkouts.
func (s *Service) RangeAvailability(ctx context.Context, itemUid string, start, end model.Date) (model.AvailabilityResponse, error) {
	if err := validateRange(start, end); err != nil {
		return model.AvailabilityResponse{}, err
	}
	available, err := s.repo.RangeAvailability(ctx, itemUid, start.Time, end.Time)
	if err != nil {
		return model.AvailabilityResponse{}, err
	}
	return model.AvailabilityResponse{
		ItemUid:           itemUid,
		StartDate:         start,
		EndDate:           end,
		AvailableQuantity: available,
	}, nil
}

func (s *Service) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	if req.Quantity < 1 {
		return model.Reservation{}, &errs.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return model.Reservation{}, err
	}

	res, err := s.repo.CreateReservation(ctx, req)
	if err != nil {
		return model.Reservation{}, err
	}

	s.publish(kafka.Event{
		Timestamp: time.Now().UTC(),
		UserName:  req.UserName,
		EventType: kafka.EventReservationCreated,
		ItemUid:   res.ItemUid,
		RefUid:    res.ReservationUid,
		Quantity:  res.Quantity,
		Status:    string(res.Status),
	})
	return res, nil
}

func (s *Service) UpdateReservationStatus(ctx context.Context, reservationUid string, to model.ReservationStatus) (model.Reservation, error) {
	if !to.Valid() {
		return model.Reservation{}, &errs.ValidationError{Field: "status", Reason: "unknown status"}
	}

	res, err := s.repo.UpdateReservationStatus(ctx, reservationUid, to)
	if err != nil {
		return model.Reservation{}, err
	}

	s.publish(kafka.Event{
		Timestamp: time.Now().UTC(),
		UserName:  auth.UserName(ctx),
		EventType: kafka.EventReservationStatus,
		ItemUid:   res.ItemUid,
		RefUid:    res.ReservationUid,
		Quantity:  res.Quantity,
		Status:    string(res.Status),
	})
	return res, nil
}

func (s *Service) GetReservation(ctx context.Context, reservationUid string) (model.Reservation, error) {
	return s.repo.GetReservation(ctx, reservationUid)
}

func (s *Service) GetReservations(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &errs.ValidationError{Field: "status", Reason: "unknown status"}
	}
	return s.repo.ListReservations(ctx, filter)
}

func (s *Service) Checkout(ctx context.Context, req model.CheckoutRequest) (model.Loan, error) {
	if req.Quantity < 1 {
		return model.Loan{}, &errs.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if req.DueDate.IsZero() {
		return model.Loan{}, &errs.ValidationError{Field: "dueDate", Reason: "is required"}
	}

	loan, err := s.repo.Checkout(ctx, req)
	if err != nil {
		return model.Loan{}, err
	}

	s.publish(kafka.Event{
		Timestamp: time.Now().UTC(),
		UserName:  req.UserName,
		EventType: kafka.EventLoanCheckout,
		ItemUid:   loan.ItemUid,
		RefUid:    loan.LoanUid,
		Quantity:  loan.Quantity,
		Status:    string(loan.Status),
	})
	return loan, nil
}

func (s *Service) ReturnLoan(ctx context.Context, loanUid, notes string) (model.Loan, error) {
	loan, err := s.repo.ReturnLoan(ctx, loanUid, notes)
	if err != nil {
		return model.Loan{}, err
	}

	s.publish(kafka.Event{
		Timestamp: time.Now().UTC(),
		UserName:  auth.UserName(ctx),
		EventType: kafka.EventLoanReturn,
		ItemUid:   loan.ItemUid,
		RefUid:    loan.LoanUid,
		Quantity:  loan.Quantity,
		Status:    string(loan.Status),
	})
	return loan, nil
}

func (s *Service) GetLoan(ctx context.Context, loanUid string) (model.Loan, error) {
	return s.repo.GetLoan(ctx, loanUid)
}

func (s *Service) GetLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	return s.repo.ListLoans(ctx, filter)
}

// Stats persists a consumed audit event.
func (s *Service) Stats(ctx context.Context, event kafka.Event) error {
	return s.repo.SaveEvent(ctx, event)
}

func (s *Service) GetStats(ctx context.Context) (model.StatsInfo, error) {
	return s.repo.GetStats(ctx)
}

// publish is fire-and-forget: the ledger is the source of truth, audit events
// must never fail a committed operation.
func (s *Service) publish(event kafka.Event) {
	if err := s.enqueuer.Enqueue(kafka.EventsTopic, event); err != nil {
		s.log.Warn("enqueue event", zap.String("type", string(event.EventType)), zap.Error(err))
	}
}

func validateRange(start, end model.Date) error {
	if start.IsZero() {
		return &errs.ValidationError{Field: "startDate", Reason: "is required"}
	}
	if end.IsZero() {
		return &errs.ValidationError{Field: "endDate", Reason: "is required"}
	}
	if end.Before(start.Time) {
		return &errs.ValidationError{Field: "endDate", Reason: "must not precede startDate"}
	}
	return nil
}
