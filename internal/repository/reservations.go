package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const reservationColumns = `r.id, r.reservation_uid, i.item_uid, i.name as item_name, r.username,
	r.student_name, r.student_id, r.quantity, r.start_date, r.end_date, r.status, r.notes, r.created_at`

// RangeAvailability computes capacity left over [start, end]: the item's
// capacity (zero while it is flagged unavailable, as on create and approve)
// minus committed reservations whose closed interval intersects the range.
// Active loans are deliberately not counted, see immediate availability on the
// item itself.
func (r *repository) RangeAvailability(ctx context.Context, itemUid string, start, end time.Time) (int, error) {
	q := `
	select case when i.is_available then i.total_quantity else 0 end
	       - coalesce(sum(r.quantity), 0)
	from items i
	left join reservations r on r.item_id = i.id
		and r.status in ('PENDING', 'APPROVED')
		and r.start_date <= $3 and r.end_date >= $2
	where i.item_uid = $1
	group by i.total_quantity, i.is_available`

	var available int
	if err := r.db.QueryRowContext(ctx, q, itemUid, start, end).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return available, nil
}

// committedOverlap sums reservation quantities holding capacity on the item
// over [start, end]. The caller must hold the item row lock.
func committedOverlap(ctx context.Context, tx *sqlx.Tx, itemID int, start, end time.Time, excludeID int) (int, error) {
	q := `
	select coalesce(sum(quantity), 0) from reservations
	where item_id = $1 and id != $4
		and status in ('PENDING', 'APPROVED')
		and start_date <= $3 and end_date >= $2`

	var committed int
	err := tx.QueryRowContext(ctx, q, itemID, start, end, excludeID).Scan(&committed)
	return committed, err
}

func (r *repository) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	var res model.Reservation
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		// the item row lock serializes concurrent creations against the
		// overlap check
		var item model.Item
		q := `select id, item_uid, name, category, total_quantity, available_quantity, is_available, notes
		from items where item_uid = $1 for update`
		if err := tx.GetContext(ctx, &item, q, req.ItemUid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		capacity := item.TotalQuantity
		if !item.IsAvailable {
			capacity = 0
		}
		committed, err := committedOverlap(ctx, tx, item.ID, req.StartDate.Time, req.EndDate.Time, 0)
		if err != nil {
			return err
		}
		if available := capacity - committed; available < req.Quantity {
			return &errs.InsufficientCapacityError{
				ItemName:  item.Name,
				Requested: req.Quantity,
				Available: available,
				StartDate: req.StartDate.Time,
				EndDate:   req.EndDate.Time,
			}
		}

		ins := `
		insert into reservations (reservation_uid, item_id, username, student_name, student_id, quantity, start_date, end_date, status, notes)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning id, reservation_uid, username, student_name, student_id, quantity, start_date, end_date, status, notes, created_at`
		if err := tx.GetContext(ctx, &res, ins,
			uuid.New(), item.ID, req.UserName, req.StudentName, req.StudentID,
			req.Quantity, req.StartDate.Time, req.EndDate.Time, model.ReservationStatusPending, req.Notes,
		); err != nil {
			r.log.Error("CreateReservation", zap.String("q", ins), zap.Error(err))
			return err
		}
		res.ItemUid = item.ItemUid
		res.ItemName = item.Name
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *repository) GetReservation(ctx context.Context, reservationUid string) (model.Reservation, error) {
	q := `select ` + reservationColumns + `
	from reservations r
	join items i on i.id = r.item_id
	where r.reservation_uid = $1`

	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, q, reservationUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

// UpdateReservationStatus applies the transition table under the item row
// lock. Approving re-runs the overlap check with the reservation itself
// excluded, so a pending request that no longer fits is not waved through.
func (r *repository) UpdateReservationStatus(ctx context.Context, reservationUid string, to model.ReservationStatus) (model.Reservation, error) {
	var res model.Reservation
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var cur model.Reservation
		q := `select id, reservation_uid, username, student_name, student_id, quantity, start_date, end_date, status, notes, created_at
		from reservations where reservation_uid = $1 for update`
		if err := tx.GetContext(ctx, &cur, q, reservationUid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		if !cur.Status.CanTransition(to) {
			return &errs.InvalidTransitionError{From: string(cur.Status), To: string(to)}
		}

		var item model.Item
		itemQ := `select i.id, i.item_uid, i.name, i.total_quantity, i.is_available
		from items i join reservations r on r.item_id = i.id
		where r.id = $1 for update of i`
		if err := tx.GetContext(ctx, &item, itemQ, cur.ID); err != nil {
			return err
		}

		if to == model.ReservationStatusApproved {
			capacity := item.TotalQuantity
			if !item.IsAvailable {
				capacity = 0
			}
			committed, err := committedOverlap(ctx, tx, item.ID, cur.StartDate, cur.EndDate, cur.ID)
			if err != nil {
				return err
			}
			if available := capacity - committed; available < cur.Quantity {
				return &errs.InsufficientCapacityError{
					ItemName:  item.Name,
					Requested: cur.Quantity,
					Available: available,
					StartDate: cur.StartDate,
					EndDate:   cur.EndDate,
				}
			}
		}

		// guarded update; the row is locked, the status clause is a backstop
		upd := `update reservations set status = $1
		where id = $2 and status = $3
		returning id, reservation_uid, username, student_name, student_id, quantity, start_date, end_date, status, notes, created_at`
		if err := tx.GetContext(ctx, &res, upd, to, cur.ID, cur.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &errs.InvalidTransitionError{From: string(cur.Status), To: string(to)}
			}
			return err
		}
		res.ItemUid = item.ItemUid
		res.ItemName = item.Name
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *repository) ListReservations(ctx context.Context, filter model.ReservationFilter) ([]model.Reservation, error) {
	q := qb.Select(reservationColumns).
		From(reservationsTableName + " r").
		Join(itemsTableName + " i on i.id = r.item_id").
		OrderBy("case when r.status = 'PENDING' then 0 else 1 end", "r.start_date asc")

	if filter.Status != "" {
		q = q.Where(sq.Eq{"r.status": filter.Status})
	}
	if filter.UserName != "" {
		q = q.Where(sq.Eq{"r.username": filter.UserName})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListReservations", zap.String("query", query), zap.Any("args", args))

	var items []model.Reservation
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}
