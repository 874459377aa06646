package repository

import (
	"context"
	"database/sql"

	"github.com/equipcage/cage-service/internal/errs"
	"github.com/equipcage/cage-service/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (r *repository) CreateItem(ctx context.Context, req model.CreateItemRequest) (model.Item, error) {
	q, args, err := qb.Insert(itemsTableName).
		Columns("item_uid", "name", "category", "total_quantity", "available_quantity", "notes").
		Values(uuid.New(), req.Name, req.Category, req.TotalQuantity, req.TotalQuantity, req.Notes).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Item{}, err
	}
	var item model.Item
	if err := r.db.GetContext(ctx, &item, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Item{}, &errs.ConflictError{Message: "item name already exists"}
		}
		r.log.Error("CreateItem", zap.String("q", q), zap.Any("args", args))
		return model.Item{}, err
	}
	return item, nil
}

func (r *repository) GetItem(ctx context.Context, itemUid string) (model.Item, error) {
	q, args, err := qb.Select("id", "item_uid", "name", "category", "total_quantity", "available_quantity", "is_available", "notes").
		From(itemsTableName).
		Where(sq.Eq{"item_uid": itemUid}).
		ToSql()
	if err != nil {
		return model.Item{}, err
	}
	var item model.Item
	if err := r.db.GetContext(ctx, &item, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, errs.ErrNotFound
		}
		return model.Item{}, err
	}
	return item, nil
}

func (r *repository) ListItems(ctx context.Context, category string, page, size int) (model.ListItems, error) {
	q := qb.Select("id", "item_uid", "name", "category", "total_quantity", "available_quantity", "is_available", "notes").
		From(itemsTableName).
		OrderBy("name asc")

	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListItems{}, err
	}

	var items []model.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return model.ListItems{}, err
	}

	return model.ListItems{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: len(items),
		},
		Items: items,
	}, nil
}

func (r *repository) UpdateItem(ctx context.Context, itemUid string, req model.UpdateItemRequest) (model.Item, error) {
	var item model.Item
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var cur model.Item
		q := `select id, item_uid, name, category, total_quantity, available_quantity, is_available, notes
		from items where item_uid = $1 for update`
		if err := tx.GetContext(ctx, &cur, q, itemUid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		if req.Name == nil && req.Category == nil && req.IsAvailable == nil &&
			req.Notes == nil && req.TotalQuantity == nil {
			item = cur
			return nil
		}

		upd := qb.Update(itemsTableName).Where(sq.Eq{"id": cur.ID}).Suffix("returning *")
		if req.Name != nil {
			upd = upd.Set("name", *req.Name)
		}
		if req.Category != nil {
			upd = upd.Set("category", *req.Category)
		}
		if req.IsAvailable != nil {
			upd = upd.Set("is_available", *req.IsAvailable)
		}
		if req.Notes != nil {
			upd = upd.Set("notes", *req.Notes)
		}
		if req.TotalQuantity != nil {
			// the on-loan part of the stock cannot be shrunk away
			onLoan := cur.TotalQuantity - cur.AvailableQuantity
			if *req.TotalQuantity < onLoan {
				return &errs.ValidationError{
					Field:  "totalQuantity",
					Reason: "below quantity currently on loan",
				}
			}
			upd = upd.Set("total_quantity", *req.TotalQuantity).
				Set("available_quantity", *req.TotalQuantity-onLoan)
		}

		query, args, err := upd.ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &item, query, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case pgerrcode.UniqueViolation:
					return &errs.ConflictError{Message: "item name already exists"}
				case pgerrcode.CheckViolation:
					return &errs.ValidationError{Field: "totalQuantity", Reason: "violates inventory constraints"}
				}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return item, nil
}

func (r *repository) DeleteItem(ctx context.Context, itemUid string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		var id int
		if err := tx.GetContext(ctx, &id, `select id from items where item_uid = $1 for update`, itemUid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		var refs int
		q := `
		select (select count(*) from loans where item_id = $1 and status = 'ACTIVE')
		     + (select count(*) from reservations where item_id = $1 and status in ('PENDING', 'APPROVED'))`
		if err := tx.GetContext(ctx, &refs, q, id); err != nil {
			return err
		}
		if refs > 0 {
			return errs.ErrItemInUse
		}

		if _, err := tx.ExecContext(ctx, `delete from items where id = $1`, id); err != nil {
			return err
		}
		return nil
	})
}
