package repository

import (
	"context"

	"carenest/internal/database"
	"carenest/internal/models"
)

// EventRepository handles database operations for calendar events
type EventRepository struct {
	db database.DBTX
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.DBTX) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, owner_id, title, description, image, event_date, event_time,
	is_for_all_child, status, is_deleted, created_at, updated_at`

func scanEvent(s scanner) (*models.Event, error) {
	e := &models.Event{}
	err := s.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Image, &e.Date, &e.Time,
		&e.IsForAllChild, &e.Status, &e.IsDeleted, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func replaceEventChildren(ctx context.Context, tx database.DBTX, eventID int64, childIDs []int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM event_children WHERE event_id = ?", eventID); err != nil {
		return wrap("clear event children", err)
	}
	for _, childID := range childIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO event_children (event_id, child_id) VALUES (?, ?)", eventID, childID); err != nil {
			return wrap("link event child", err)
		}
	}
	return nil
}

// Create inserts an event together with its child selection
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	ts := now()
	if e.Status == "" {
		e.Status = models.EventStatusPending
	}
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		id, err := tx.ExecReturningID(ctx, `
			INSERT INTO events (owner_id, title, description, image, event_date, event_time,
				is_for_all_child, status, is_deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.OwnerID, e.Title, e.Description, e.Image, e.Date, e.Time,
			e.IsForAllChild, e.Status, false, ts, ts,
		)
		if err != nil {
			return wrap("create event", err)
		}
		e.ID = id
		e.CreatedAt = ts
		e.UpdatedAt = ts
		return replaceEventChildren(ctx, tx, id, e.ChildIDs)
	})
}

// GetByID returns a live event with its child selection, or nil
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ? AND is_deleted = ?", id, false))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get event", err)
	}

	byEvent, err := r.childIDs(ctx, []int64{e.ID})
	if err != nil {
		return nil, err
	}
	e.ChildIDs = byEvent[e.ID]
	if e.ChildIDs == nil {
		e.ChildIDs = []int64{}
	}
	return e, nil
}

// Update overwrites an event and its child selection
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = now()
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE events SET title = ?, description = ?, image = ?, event_date = ?, event_time = ?,
				is_for_all_child = ?, status = ?, updated_at = ?
			WHERE id = ? AND is_deleted = ?`,
			e.Title, e.Description, e.Image, e.Date, e.Time, e.IsForAllChild, e.Status, e.UpdatedAt,
			e.ID, false,
		)
		if err != nil {
			return wrap("update event", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		return replaceEventChildren(ctx, tx, e.ID, e.ChildIDs)
	})
}

// SoftDelete hides an event from every read
func (r *EventRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE events SET is_deleted = ?, updated_at = ? WHERE id = ? AND is_deleted = ?", true, now(), id, false)
	if err != nil {
		return wrap("delete event", err)
	}
	return expectAffected(res)
}

// EventFilter narrows an event list. Date is YYYY-MM-DD; ChildIDs keeps
// events for every child plus events selecting any of the given children.
type EventFilter struct {
	Date       string
	ChildIDs   []int64
	Statuses   []string
	SearchTerm string
}

var eventSortable = map[string]string{
	"createdAt": "created_at",
	"time":      "event_time",
	"title":     "title",
}

// ListByOwner returns a page of the owner's live events
func (r *EventRepository) ListByOwner(ctx context.Context, ownerID int64, f EventFilter, opts models.ListOptions) ([]models.Event, int, error) {
	q := &listQuery{}
	q.where("owner_id = ? AND is_deleted = ?", ownerID, false).
		search(f.SearchTerm, "title").
		in("status", f.Statuses)
	if f.Date != "" {
		q.where("event_date = ?", f.Date)
	}
	if len(f.ChildIDs) > 0 {
		args := append([]any{true}, int64Args(f.ChildIDs)...)
		q.where("(is_for_all_child = ? OR id IN (SELECT event_id FROM event_children WHERE child_id IN ("+
			placeholders(len(f.ChildIDs))+")))", args...)
	}

	total, err := q.count(ctx, r.db, "events")
	if err != nil {
		return nil, 0, wrap("count events", err)
	}

	tail, args := q.page(opts, "created_at", eventSortable)
	rows, err := r.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM events"+tail, args...)
	if err != nil {
		return nil, 0, wrap("query events", err)
	}
	defer rows.Close()

	var events []models.Event
	var ids []int64
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, wrap("scan event", err)
		}
		events = append(events, *e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap("iterate events", err)
	}
	rows.Close()

	byEvent, err := r.childIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range events {
		events[i].ChildIDs = byEvent[events[i].ID]
		if events[i].ChildIDs == nil {
			events[i].ChildIDs = []int64{}
		}
	}
	return events, total, nil
}

func (r *EventRepository) childIDs(ctx context.Context, eventIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT event_id, child_id FROM event_children WHERE event_id IN ("+placeholders(len(eventIDs))+") ORDER BY child_id",
		int64Args(eventIDs)...)
	if err != nil {
		return nil, wrap("query event children", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID, childID int64
		if err := rows.Scan(&eventID, &childID); err != nil {
			return nil, wrap("scan event child", err)
		}
		out[eventID] = append(out[eventID], childID)
	}
	return out, rows.Err()
}
