package repository

import (
	"context"
	"database/sql"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const loanColumns = `l.id, l.loan_uid, i.item_uid, i.name as item_name, l.student_name, l.student_id,
	l.quantity, l.checkout_date, l.due_date, l.return_date, l.status, l.notes`

// Checkout decrements the shelf counter with a conditional UPDATE; the WHERE
// clause re-validates the precondition so two concurrent checkouts cannot
// jointly overdraw the item.
func (r *repository) Checkout(ctx context.Context, req model.CheckoutRequest) (model.Loan, error) {
	var loan model.Loan
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		cas := `
		update items set available_quantity = available_quantity - $2
		where item_uid = $1 and is_available and available_quantity >= $2
		returning id, item_uid, name`

		var item model.Item
		if err := tx.GetContext(ctx, &item, cas, req.ItemUid, req.Quantity); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			// zero rows: missing item vs. not enough on the shelf
			q := `select name, available_quantity, is_available from items where item_uid = $1`
			var cur model.Item
			if err := tx.GetContext(ctx, &cur, q, req.ItemUid); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return errs.ErrNotFound
				}
				return err
			}
			available := cur.AvailableQuantity
			if !cur.IsAvailable {
				available = 0
			}
			return &errs.InsufficientAvailableError{
				ItemName:  cur.Name,
				Requested: req.Quantity,
				Available: available,
			}
		}

		ins := `
		insert into loans (loan_uid, item_id, student_name, student_id, quantity, due_date, notes)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id, loan_uid, student_name, student_id, quantity, checkout_date, due_date, return_date, status, notes`
		if err := tx.GetContext(ctx, &loan, ins,
			uuid.New(), item.ID, req.StudentName, req.StudentID, req.Quantity, req.DueDate.Time, req.Notes,
		); err != nil {
			r.log.Error("Checkout", zap.String("q", ins), zap.Error(err))
			return err
		}
		loan.ItemUid = item.ItemUid
		loan.ItemName = item.Name
		return nil
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// ReturnLoan closes the loan and gives the units back to the shelf in one
// transaction, so a crash cannot leave the counter under-counted.
func (r *repository) ReturnLoan(ctx context.Context, loanUid, notes string) (model.Loan, error) {
	var loan model.Loan
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		cas := `
		update loans set status = 'RETURNED', return_date = now(),
			notes = case when $2 = '' then notes else trim(notes || ' ' || $2) end
		where loan_uid = $1 and status = 'ACTIVE'
		returning id, loan_uid, item_id, student_name, student_id, quantity, checkout_date, due_date, return_date, status, notes`

		var row struct {
			model.Loan
			ItemID int `db:"item_id"`
		}
		if err := tx.GetContext(ctx, &row, cas, loanUid, notes); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			var status model.LoanStatus
			if err := tx.GetContext(ctx, &status, `select status from loans where loan_uid = $1`, loanUid); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return errs.ErrNotFound
				}
				return err
			}
			return &errs.AlreadyReturnedError{LoanUid: loanUid}
		}

		give := `update items set available_quantity = available_quantity + $2 where id = $1 returning item_uid, name`
		var item model.Item
		if err := tx.GetContext(ctx, &item, give, row.ItemID, row.Quantity); err != nil {
			return err
		}

		loan = row.Loan
		loan.ItemUid = item.ItemUid
		loan.ItemName = item.Name
		return nil
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) GetLoan(ctx context.Context, loanUid string) (model.Loan, error) {
	q := `select ` + loanColumns + `
	from loans l
	join items i on i.id = l.item_id
	where l.loan_uid = $1`

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, loanUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	q := qb.Select(loanColumns).
		From(loansTableName + " l").
		Join(itemsTableName + " i on i.id = l.item_id").
		OrderBy("l.checkout_date desc")

	if filter.Status != "" {
		q = q.Where(sq.Eq{"l.status": filter.Status})
	}
	if filter.StudentID != "" {
		q = q.Where(sq.Eq{"l.student_id": filter.StudentID})
	}
	if filter.OverdueOnly {
		q = q.Where("l.status = 'ACTIVE' and l.due_date < current_date")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListLoans", zap.String("query", query), zap.Any("args", args))

	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}
