package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/pkg/kafka"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateItem(ctx context.Context, req model.CreateItemRequest) (model.Item, error)
	GetItem(ctx context.Context, itemUid string) (model.Item, error)
	ListItems(ctx context.Context, category string, page, size int) (model.ListItems, error)
	UpdateItem(ctx context.Context, itemUid string, req model.UpdateItemRequest) (model.Item, error)
	DeleteItem(ctx context.Context, itemUid string) error

	RangeAvailability(ctx context.Context, itemUid string, start, end time.Time) (int, error)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	GetReservation(ctx context.Context, reservationUid string) (model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationUid string, to model.ReservationStatus) (model.Reservation, error)
	ListReservations(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error)

	Checkout(ctx context.Context, req model.CheckoutRequest) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanUid, notes string) (model.Loan, error)
	GetLoan(ctx context.Context, loanUid string) (model.Loan, error)
	ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)

	SaveEvent(ctx context.Context, event kafka.Event) error
	GetStats(ctx context.Context) (model.StatsInfo, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	itemsTableName        = `items`
	loansTableName        = `loans`
	reservationsTableName = `reservations`
	eventsTableName       = `events`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// inTx runs fn in a READ COMMITTED transaction; row locks taken inside fn
// serialize the check-then-write sequences.
func (r *repository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
