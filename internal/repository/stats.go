package repository

import (
	"context"

	"github.com/equipcage/cage-service/internal/model"
	"github.com/equipcage/cage-service/pkg/kafka"
)

func (r *repository) SaveEvent(ctx context.Context, event kafka.Event) error {
	q, args, err := qb.Insert(eventsTableName).
		Columns("timestamp", "username", "event_type", "item_uid", "ref_uid", "quantity", "status").
		Values(event.Timestamp, event.UserName, event.EventType, event.ItemUid, event.RefUid, event.Quantity, event.Status).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

func (r *repository) GetStats(ctx context.Context) (model.StatsInfo, error) {
	const q = `
	select username,
	       max(timestamp) as last_updated,
	       count(*) filter (where event_type = 'LOAN_CHECKOUT') as cnt_checkouts,
	       count(*) filter (where event_type = 'LOAN_RETURN') as cnt_returns,
	       count(*) filter (where event_type = 'RESERVATION_CREATED') as cnt_reservations,
	       coalesce(sum(quantity) filter (where event_type = 'LOAN_CHECKOUT'), 0) as qty_checked_out
	from events
	group by username
	order by username`

	var stats []model.Stats
	if err := r.db.SelectContext(ctx, &stats, q); err != nil {
		return model.StatsInfo{}, err
	}
	return model.StatsInfo{Data: stats}, nil
}
