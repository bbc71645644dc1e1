package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bakeplan/bakeplan/internal/models"
)

// PlanningRepository handles events, their targets and batch decisions.
type PlanningRepository struct {
	db *sql.DB
}

// NewPlanningRepository creates a new planning repository.
func NewPlanningRepository(db *sql.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

// ============================================================================
// EVENTS
// ============================================================================

// CreateEvent inserts a new event.
func (r *PlanningRepository) CreateEvent(ctx context.Context, tx *sql.Tx, e *models.Event) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO events (id, name, event_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, formatDate(e.EventDate), nullableString(e.Notes),
		formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event with its targets.
func (r *PlanningRepository) GetEvent(ctx context.Context, tx *sql.Tx, id string) (*models.Event, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, name, event_date, notes, created_at, updated_at
		FROM events WHERE id = ?`, id)

	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	e.Targets, err = r.ListTargets(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEvents retrieves events ordered by date. When upcomingFrom is non-zero
// only events on or after that date are returned.
func (r *PlanningRepository) ListEvents(ctx context.Context, tx *sql.Tx, upcomingFrom time.Time) ([]*models.Event, error) {
	query := `SELECT id, name, event_date, notes, created_at, updated_at FROM events`
	var args []any
	if !upcomingFrom.IsZero() {
		query += ` WHERE event_date >= ?`
		args = append(args, formatDate(upcomingFrom))
	}
	query += ` ORDER BY event_date, name`

	rows, err := r.getQuerier(tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ============================================================================
// TARGETS
// ============================================================================

// UpsertTarget sets the quantity of a finished good an event needs.
func (r *PlanningRepository) UpsertTarget(ctx context.Context, tx *sql.Tx, t *models.EventTarget) error {
	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO event_targets (id, event_id, finished_good_id, quantity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (event_id, finished_good_id) DO UPDATE SET quantity = excluded.quantity`,
		t.ID, t.EventID, t.FinishedGoodID, t.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upserting event target: %w", err)
	}
	return nil
}

// ListTargets returns an event's targets with the finished good name joined.
func (r *PlanningRepository) ListTargets(ctx context.Context, tx *sql.Tx, eventID string) ([]*models.EventTarget, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT t.id, t.event_id, t.finished_good_id, t.quantity, g.display_name
		FROM event_targets t
		JOIN finished_goods g ON g.id = t.finished_good_id
		WHERE t.event_id = ?
		ORDER BY g.display_name`, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying event targets: %w", err)
	}
	defer rows.Close()

	var targets []*models.EventTarget
	for rows.Next() {
		var t models.EventTarget
		var name string
		if err := rows.Scan(&t.ID, &t.EventID, &t.FinishedGoodID, &t.Quantity, &name); err != nil {
			return nil, fmt.Errorf("scanning event target: %w", err)
		}
		t.FinishedGood = &models.FinishedGood{ID: t.FinishedGoodID, DisplayName: name}
		targets = append(targets, &t)
	}
	return targets, rows.Err()
}

// ============================================================================
// BATCH DECISIONS
// ============================================================================

// ReplaceBatchDecisions deletes an event's decisions and inserts the given
// set. Callers pass a transaction so the swap is atomic.
func (r *PlanningRepository) ReplaceBatchDecisions(ctx context.Context, tx *sql.Tx, eventID string, decisions []*models.BatchDecision) error {
	q := r.getQuerier(tx)
	if _, err := q.ExecContext(ctx, `DELETE FROM batch_decisions WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clearing batch decisions: %w", err)
	}

	now := time.Now().UTC()
	for _, d := range decisions {
		d.EventID = eventID
		d.CreatedAt = now
		_, err := q.ExecContext(ctx, `
			INSERT INTO batch_decisions (id, event_id, recipe_id, finished_unit_id, batches, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.EventID, d.RecipeID, d.FinishedUnitID, d.Batches, formatTimestamp(d.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting batch decision: %w", err)
		}
	}
	return nil
}

// ListBatchDecisions returns the decisions recorded for an event.
func (r *PlanningRepository) ListBatchDecisions(ctx context.Context, tx *sql.Tx, eventID string) ([]*models.BatchDecision, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT id, event_id, recipe_id, finished_unit_id, batches, created_at
		FROM batch_decisions
		WHERE event_id = ?
		ORDER BY rowid`, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying batch decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*models.BatchDecision
	for rows.Next() {
		var d models.BatchDecision
		var createdStr string
		if err := rows.Scan(&d.ID, &d.EventID, &d.RecipeID, &d.FinishedUnitID, &d.Batches, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning batch decision: %w", err)
		}
		d.CreatedAt = parseTimestamp(createdStr)
		decisions = append(decisions, &d)
	}
	return decisions, rows.Err()
}

// ============================================================================
// HELPERS
// ============================================================================

func (r *PlanningRepository) getQuerier(tx *sql.Tx) querier {
	return getQuerier(r.db, tx)
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	var notes sql.NullString
	var dateStr, createdStr, updatedStr string
	err := row.Scan(&e.ID, &e.Name, &dateStr, &notes, &createdStr, &updatedStr)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	e.EventDate = parseDate(dateStr)
	e.Notes = notes.String
	e.CreatedAt = parseTimestamp(createdStr)
	e.UpdatedAt = parseTimestamp(updatedStr)
	return &e, nil
}
