package gormdb

import (
	"context"

	eventDomain "bnpl-ledger/internal/domain/event"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Append(ctx context.Context, evs ...*eventDomain.Event) error {
	if len(evs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(evs).Error
}

func (r *EventRepository) ListAfter(ctx context.Context, afterSeq uint64, limit int) ([]eventDomain.Event, error) {
	var out []eventDomain.Event
	q := r.db.WithContext(ctx).Where("seq > ?", afterSeq).Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	res := q.Find(&out)
	return out, res.Error
}
