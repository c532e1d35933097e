package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-calendar/internal/errs"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/timezone"
)

type DBLayer interface {
	CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	FindEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	UpdateEvent(ctx context.Context, id string, mutate func(*models.Event) error) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) (*models.Event, error)
}

type Publisher interface {
	PublishEventCreated(ev models.Event) error
	PublishEventUpdated(ev models.Event) error
	PublishEventDeleted(ev models.Event) error
}

type ProfileResolver interface {
	ResolveProfile(ctx context.Context, id string) (*models.ProfileRef, error)
}

// Service composes the converter, validator, change tracker and repository
// into the operations exposed to the API layer.
type Service struct {
	DB       DBLayer
	Kafka    Publisher
	Profiles ProfileResolver
	Logger   *logger.Logger
}

func NewService(db DBLayer, kafka Publisher, profiles ProfileResolver, log *logger.Logger) *Service {
	return &Service{DB: db, Kafka: kafka, Profiles: profiles, Logger: log}
}

// Find lists events matching the filter, start-ascending, with profile and
// creator references resolved. Change log actors stay unresolved on the list
// view; the detail view resolves them.
func (s *Service) Find(ctx context.Context, filter models.EventFilter) ([]models.EventResponse, error) {
	events, err := s.DB.FindEvents(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]models.EventResponse, 0, len(events))
	for _, ev := range events {
		resp, err := s.toResponse(ctx, ev, false)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

// Get fetches one event with all references resolved, including change log
// actors.
func (s *Service) Get(ctx context.Context, id string) (*models.EventResponse, error) {
	ev, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, *ev, true)
}

// Create runs the full pipeline for a new event: convert wall-clock input to
// instants, validate every invariant, persist, notify. A validation failure
// returns the complete field-error set and persists nothing.
func (s *Service) Create(ctx context.Context, req models.EventRequest) (*models.EventResponse, error) {
	now := time.Now().UTC()

	ev := models.Event{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		ProfileIDs:  models.StringList(req.Profiles),
		Timezone:    req.Timezone,
		CreatedBy:   req.CreatedBy,
		UpdateLogs:  models.ChangeLog{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ve := &errs.ValidationError{}
	if req.StartDateTime != "" {
		if t, err := timezone.ParseDateTime(req.StartDateTime, req.Timezone); err != nil {
			ve.Add(FieldStartDateTime, "%s", err.Error())
		} else {
			ev.StartDateTime = t
		}
	}
	if req.EndDateTime != "" {
		if t, err := timezone.ParseDateTime(req.EndDateTime, req.Timezone); err != nil {
			ve.Add(FieldEndDateTime, "%s", err.Error())
		} else {
			ev.EndDateTime = t
		}
	}
	if err := mergeValidation(ve, Validate(ev)); err != nil {
		return nil, err
	}

	created, err := s.DB.CreateEvent(ctx, ev)
	if err != nil {
		return nil, err
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishEventCreated(*created); err != nil {
			s.logKafka("event created", created.ID, err)
		}
	}

	return s.toResponse(ctx, *created, false)
}

// Update applies a partial update all-or-nothing: provided wall-clock times
// are resolved against the (possibly newly provided) timezone, merged onto
// the stored state, re-validated as a whole, diffed against the prior state,
// and committed together with the appended change entries in one write.
func (s *Service) Update(ctx context.Context, id string, upd models.EventUpdate) (*models.EventResponse, error) {
	now := time.Now().UTC()

	updated, err := s.DB.UpdateEvent(ctx, id, func(prev *models.Event) error {
		ch := Changes{
			Title:       upd.Title,
			Description: upd.Description,
			Timezone:    upd.Timezone,
		}
		if upd.Profiles != nil {
			ch.Profiles = *upd.Profiles
		}

		zone := prev.Timezone
		if upd.Timezone != nil {
			zone = *upd.Timezone
		}

		ve := &errs.ValidationError{}
		if upd.StartDateTime != nil {
			if t, err := timezone.ParseDateTime(*upd.StartDateTime, zone); err != nil {
				ve.Add(FieldStartDateTime, "%s", err.Error())
			} else {
				ch.Start = &t
			}
		}
		if upd.EndDateTime != nil {
			if t, err := timezone.ParseDateTime(*upd.EndDateTime, zone); err != nil {
				ve.Add(FieldEndDateTime, "%s", err.Error())
			} else {
				ch.End = &t
			}
		}

		merged := Apply(*prev, ch)
		if err := mergeValidation(ve, Validate(merged)); err != nil {
			return err
		}

		entries := Diff(*prev, ch, upd.UpdatedBy, now)
		merged.UpdateLogs = append(prev.UpdateLogs, entries...)
		*prev = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishEventUpdated(*updated); err != nil {
			s.logKafka("event updated", updated.ID, err)
		}
	}

	return s.toResponse(ctx, *updated, true)
}

// Delete removes an event by ID and returns the removed record so the caller
// can confirm what was deleted.
func (s *Service) Delete(ctx context.Context, id string) (*models.EventResponse, error) {
	removed, err := s.DB.DeleteEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishEventDeleted(*removed); err != nil {
			s.logKafka("event deleted", removed.ID, err)
		}
	}

	return s.toResponse(ctx, *removed, false)
}

// toResponse resolves profile references on an event. Assigned profiles come
// back as {id, name, timezone}, the creator as {id, name}; with resolveActors
// set, change log actors resolve to {id, name} as well.
func (s *Service) toResponse(ctx context.Context, ev models.Event, resolveActors bool) (*models.EventResponse, error) {
	resp := &models.EventResponse{
		ID:            ev.ID,
		Title:         ev.Title,
		Description:   ev.Description,
		Timezone:      ev.Timezone,
		StartDateTime: ev.StartDateTime.UTC(),
		EndDateTime:   ev.EndDateTime.UTC(),
		CreatedAt:     ev.CreatedAt,
		UpdatedAt:     ev.UpdatedAt,
		Profiles:      make([]models.ProfileRef, 0, len(ev.ProfileIDs)),
		UpdateLogs:    make([]models.ChangeLogView, 0, len(ev.UpdateLogs)),
	}

	for _, pid := range ev.ProfileIDs {
		resp.Profiles = append(resp.Profiles, s.resolveRef(ctx, pid, true))
	}

	if ev.CreatedBy != "" {
		ref := s.resolveRef(ctx, ev.CreatedBy, false)
		resp.CreatedBy = &ref
	}

	for _, entry := range ev.UpdateLogs {
		view := models.ChangeLogView{
			Field:     entry.Field,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			UpdatedAt: entry.UpdatedAt,
		}
		if entry.UpdatedBy != "" {
			if resolveActors {
				ref := s.resolveRef(ctx, entry.UpdatedBy, false)
				view.UpdatedBy = &ref
			} else {
				view.UpdatedBy = &models.ProfileRef{ID: entry.UpdatedBy}
			}
		}
		resp.UpdateLogs = append(resp.UpdateLogs, view)
	}

	return resp, nil
}

// resolveRef looks a profile up, falling back to a bare ID reference when the
// profile no longer exists or the resolver is unavailable.
func (s *Service) resolveRef(ctx context.Context, id string, withTimezone bool) models.ProfileRef {
	if s.Profiles == nil {
		return models.ProfileRef{ID: id}
	}
	ref, err := s.Profiles.ResolveProfile(ctx, id)
	if err != nil || ref == nil {
		return models.ProfileRef{ID: id}
	}
	if !withTimezone {
		return models.ProfileRef{ID: ref.ID, Name: ref.Name}
	}
	return *ref
}

// mergeValidation folds validator output into ve, skipping fields that
// already carry a conversion error so each field reports once.
func mergeValidation(ve *errs.ValidationError, err error) error {
	if verr, ok := errs.AsValidation(err); ok {
		seen := map[string]bool{}
		for _, f := range ve.Fields {
			seen[f.Field] = true
		}
		for _, f := range verr.Fields {
			if !seen[f.Field] {
				ve.Fields = append(ve.Fields, f)
			}
		}
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func (s *Service) logKafka(what, id string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error("KAFKA", fmt.Sprintf("publish failed (%s) for event %s: %v", what, id, err))
}
