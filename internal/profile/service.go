package profile

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-calendar/internal/errs"
	"ms-calendar/internal/models"
	"ms-calendar/internal/timezone"
)

const (
	minNameLen = 2
	maxNameLen = 100
)

type DBLayer interface {
	CreateProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	FindProfiles(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
}

// Service is the profile CRUD plus the reference resolver events use to
// enrich responses. The resolver goes through the Redis cache when one is
// configured.
type Service struct {
	DB    DBLayer
	Cache *RefCache
}

func NewService(db DBLayer, cache *RefCache) *Service {
	return &Service{DB: db, Cache: cache}
}

func (s *Service) Find(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error) {
	return s.DB.FindProfiles(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.DB.GetProfileByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, req models.ProfileRequest) (*models.Profile, error) {
	now := time.Now().UTC()
	p := models.Profile{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Timezone:  req.Timezone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	return s.DB.CreateProfile(ctx, p)
}

// Update overwrites the provided fields; empty strings leave a field
// untouched. Used mainly for timezone changes.
func (s *Service) Update(ctx context.Context, id string, req models.ProfileRequest) (*models.Profile, error) {
	current, err := s.DB.GetProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	if req.Name != "" {
		next.Name = strings.TrimSpace(req.Name)
	}
	if req.Timezone != "" {
		next.Timezone = req.Timezone
	}
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
	}
	next.UpdatedAt = time.Now().UTC()

	if err := validate(next); err != nil {
		return nil, err
	}

	updated, err := s.DB.UpdateProfile(ctx, next)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, id)
	}
	return updated, nil
}

// ResolveProfile maps a profile ID to its reference shape, cache first.
func (s *Service) ResolveProfile(ctx context.Context, id string) (*models.ProfileRef, error) {
	if s.Cache != nil {
		if ref := s.Cache.Get(ctx, id); ref != nil {
			return ref, nil
		}
	}

	p, err := s.DB.GetProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ref := models.ProfileRef{ID: p.ID, Name: p.Name, Timezone: p.Timezone}
	if s.Cache != nil {
		s.Cache.Set(ctx, ref)
	}
	return &ref, nil
}

func validate(p models.Profile) error {
	ve := &errs.ValidationError{}

	if p.Name == "" {
		ve.Add("name", "Name is required")
	} else if len(p.Name) < minNameLen {
		ve.Add("name", "Name must be at least %d characters", minNameLen)
	} else if len(p.Name) > maxNameLen {
		ve.Add("name", "Name cannot exceed %d characters", maxNameLen)
	}

	if p.Timezone == "" {
		ve.Add("timezone", "Timezone is required")
	} else if !timezone.Valid(p.Timezone) {
		ve.Add("timezone", "Unknown timezone: %s", p.Timezone)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
