// Package planning turns event targets into batch plans, shopping lists and
// feasibility checks.
package planning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bakeplan/bakeplan/internal/config"
	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/repository"
	"github.com/bakeplan/bakeplan/internal/services/catalog"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/util"
)

// Service provides event planning operations.
type Service struct {
	db          *sql.DB
	planning    *repository.PlanningRepository
	catalog     *catalog.Service
	inventory   *inventory.Service
	cfg         config.PlanningConfig
	clock       util.Clock
	idGenerator *util.IDGenerator
}

// NewService creates a new planning service.
func NewService(db *sql.DB, cat *catalog.Service, inv *inventory.Service, cfg config.PlanningConfig) *Service {
	return &Service{
		db:          db,
		planning:    repository.NewPlanningRepository(db),
		catalog:     cat,
		inventory:   inv,
		cfg:         cfg,
		clock:       util.SystemClock{},
		idGenerator: util.NewIDGenerator(),
	}
}

// SetClock replaces the clock used for default event dates and upcoming lists.
func (s *Service) SetClock(c util.Clock) {
	s.clock = c
}

// ============================================================================
// EVENTS
// ============================================================================

// CreateEvent creates an event. A zero date defaults to the configured
// number of days from today.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "event name is required")
	}

	date := input.EventDate
	if date.IsZero() {
		date = s.clock.Now().AddDate(0, 0, s.cfg.DefaultEventDays)
	}

	e := &models.Event{
		ID:        s.idGenerator.NewID(),
		Name:      name,
		EventDate: util.StartOfDay(date),
		Notes:     input.Notes,
	}
	if err := s.planning.CreateEvent(ctx, nil, e); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	slog.Info("event created", "id", e.ID, "name", e.Name, "date", util.FormatDate(e.EventDate))
	return e, nil
}

// GetEvent retrieves an event with its targets.
func (s *Service) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.planning.GetEvent(ctx, nil, id)
}

// ListEvents retrieves all events ordered by date.
func (s *Service) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return s.planning.ListEvents(ctx, nil, time.Time{})
}

// ListUpcomingEvents retrieves events from today to the configured window.
func (s *Service) ListUpcomingEvents(ctx context.Context) ([]*models.Event, error) {
	today := util.StartOfDay(s.clock.Now())
	events, err := s.planning.ListEvents(ctx, nil, today)
	if err != nil {
		return nil, err
	}
	if s.cfg.UpcomingWindowDays <= 0 {
		return events, nil
	}

	limit := today.AddDate(0, 0, s.cfg.UpcomingWindowDays)
	upcoming := events[:0]
	for _, e := range events {
		if !e.EventDate.After(limit) {
			upcoming = append(upcoming, e)
		}
	}
	return upcoming, nil
}

// AddTarget sets how many of a finished good an event needs. Setting the
// same good again replaces the quantity.
func (s *Service) AddTarget(ctx context.Context, eventID, finishedGoodID string, quantity int) (*models.EventTarget, error) {
	if quantity < 0 {
		return nil, models.NewValidationError("quantity", "must not be negative, got %d", quantity)
	}
	if err := checkID("event_id", eventID); err != nil {
		return nil, err
	}
	if err := checkID("finished_good_id", finishedGoodID); err != nil {
		return nil, err
	}

	fg, err := s.catalog.GetFinishedGood(ctx, finishedGoodID)
	if err != nil {
		return nil, notFoundAsValidation("finished_good_id", err)
	}

	t := &models.EventTarget{
		ID:             s.idGenerator.NewID(),
		EventID:        eventID,
		FinishedGoodID: fg.ID,
		Quantity:       quantity,
		FinishedGood:   fg,
	}

	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.planning.GetEvent(ctx, tx, eventID); err != nil {
			return notFoundAsValidation("event_id", err)
		}
		return s.planning.UpsertTarget(ctx, tx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("adding event target: %w", err)
	}

	return t, nil
}

// RecordBatchDecisions replaces an event's committed batch counts. The
// recipe of each decision is taken from its finished unit.
func (s *Service) RecordBatchDecisions(ctx context.Context, eventID string, inputs []BatchDecisionInput) ([]*models.BatchDecision, error) {
	if err := checkID("event_id", eventID); err != nil {
		return nil, err
	}

	decisions := make([]*models.BatchDecision, 0, len(inputs))
	seen := make(map[string]bool)
	for _, in := range inputs {
		if in.Batches < 0 {
			return nil, models.NewValidationError("batches", "must not be negative, got %d", in.Batches)
		}
		if seen[in.FinishedUnitID] {
			return nil, models.NewValidationError("finished_unit_id", "unit %s decided twice", in.FinishedUnitID)
		}
		seen[in.FinishedUnitID] = true

		unit, err := s.catalog.GetFinishedUnit(ctx, in.FinishedUnitID)
		if err != nil {
			return nil, notFoundAsValidation("finished_unit_id", err)
		}
		decisions = append(decisions, &models.BatchDecision{
			ID:             s.idGenerator.NewID(),
			RecipeID:       unit.RecipeID,
			FinishedUnitID: unit.ID,
			Batches:        in.Batches,
		})
	}

	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.planning.GetEvent(ctx, tx, eventID); err != nil {
			return notFoundAsValidation("event_id", err)
		}
		return s.planning.ReplaceBatchDecisions(ctx, tx, eventID, decisions)
	})
	if err != nil {
		return nil, fmt.Errorf("recording batch decisions: %w", err)
	}

	slog.Info("batch decisions recorded", "event_id", eventID, "decisions", len(decisions))
	return decisions, nil
}

// ListBatchDecisions returns an event's committed batch counts.
func (s *Service) ListBatchDecisions(ctx context.Context, eventID string) ([]*models.BatchDecision, error) {
	return s.planning.ListBatchDecisions(ctx, nil, eventID)
}

// ============================================================================
// HELPERS
// ============================================================================

// loadEvent fetches an event for the read paths, reporting a malformed or
// unknown id as a validation error on event_id.
func (s *Service) loadEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if err := checkID("event_id", eventID); err != nil {
		return nil, err
	}
	event, err := s.planning.GetEvent(ctx, nil, eventID)
	if err != nil {
		return nil, notFoundAsValidation("event_id", err)
	}
	return event, nil
}

func checkID(field, id string) error {
	if _, err := util.ParseID(id); err != nil {
		return models.NewValidationError(field, "%v", err)
	}
	return nil
}

func notFoundAsValidation(field string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewValidationError(field, "%v", err)
	}
	return err
}
