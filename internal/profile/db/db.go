package db

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"ms-calendar/internal/errs"
	"ms-calendar/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- PROFILES ----------------

func (d *DB) CreateProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	_, err := d.Bun.NewInsert().Model(&p).Exec(ctx)
	if err != nil {
		return nil, errs.MapStore(err)
	}
	return &p, nil
}

func (d *DB) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := d.Bun.NewSelect().
		Model(&p).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, errs.MapStore(err)
	}
	return &p, nil
}

// FindProfiles lists active profiles. Search matches names
// case-insensitively; sortBy "name" sorts ascending, timestamp fields
// descending (newest first).
func (d *DB) FindProfiles(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error) {
	var profiles []models.Profile

	q := d.Bun.NewSelect().
		Model(&profiles).
		Where("is_active = ?", true)

	if filter.Timezone != "" {
		q = q.Where("timezone = ?", filter.Timezone)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	switch filter.SortBy {
	case "name":
		q = q.Order("name ASC")
	case "updatedAt":
		q = q.Order("updated_at DESC")
	default:
		q = q.Order("created_at DESC")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errs.MapStore(err)
	}
	return profiles, nil
}

// UpdateProfile overwrites the mutable columns of a profile row.
func (d *DB) UpdateProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	res, err := d.Bun.NewUpdate().
		Model(&p).
		Column("name", "timezone", "is_active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errs.MapStore(err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

// Ping reports store reachability for the health endpoint.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Bun.PingContext(ctx); err != nil {
		return errs.MapStore(err)
	}
	return nil
}
