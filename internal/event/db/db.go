package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"ms-calendar/internal/errs"
	"ms-calendar/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// CreateEvent inserts a new event row and returns it as persisted.
func (d *DB) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	if ev.UpdateLogs == nil {
		ev.UpdateLogs = models.ChangeLog{}
	}
	_, err := d.Bun.NewInsert().Model(&ev).Exec(ctx)
	if err != nil {
		return nil, errs.MapStore(err)
	}
	return &ev, nil
}

// GetEventByID fetches one event by its ID.
func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var ev models.Event
	err := d.Bun.NewSelect().
		Model(&ev).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, errs.MapStore(err)
	}
	return &ev, nil
}

// FindEvents lists events matching the filter, ordered by start instant
// ascending. Date range, timezone and text search are pushed into SQL;
// profile membership is applied over the scanned rows so the query stays
// portable between the postgres and sqlite dialects.
func (d *DB) FindEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var events []models.Event

	q := d.Bun.NewSelect().Model(&events)
	if filter.StartDate != nil {
		q = q.Where("start_date_time >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		q = q.Where("start_date_time <= ?", filter.EndDate.UTC())
	}
	if filter.Timezone != "" {
		q = q.Where("timezone = ?", filter.Timezone)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	if err := q.Order("start_date_time ASC").Scan(ctx); err != nil {
		return nil, errs.MapStore(err)
	}

	if filter.ProfileID == "" {
		return events, nil
	}

	matched := make([]models.Event, 0, len(events))
	for _, ev := range events {
		for _, pid := range ev.ProfileIDs {
			if pid == filter.ProfileID {
				matched = append(matched, ev)
				break
			}
		}
	}
	return matched, nil
}

// UpdateEvent loads the current row, lets the mutator compute the next state
// (merge, validate, append change entries), then commits every column in one
// write. The whole load-mutate-commit sequence runs in a transaction: a
// mutator error aborts it and no partial state is ever visible.
func (d *DB) UpdateEvent(ctx context.Context, id string, mutate func(*models.Event) error) (*models.Event, error) {
	var ev models.Event
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&ev).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}

		if err := mutate(&ev); err != nil {
			return err
		}
		ev.UpdatedAt = time.Now().UTC()

		_, err := tx.NewUpdate().Model(&ev).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		if _, ok := errs.AsValidation(err); ok {
			return nil, err
		}
		return nil, errs.MapStore(err)
	}
	return &ev, nil
}

// DeleteEvent removes an event by ID and returns the removed row.
func (d *DB) DeleteEvent(ctx context.Context, id string) (*models.Event, error) {
	var ev models.Event
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&ev).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, errs.MapStore(err)
	}
	return &ev, nil
}

// Ping reports store reachability for the health endpoint.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Bun.PingContext(ctx); err != nil {
		return errs.MapStore(err)
	}
	return nil
}

