package repository

import (
	"context"
	"time"

	"carenest/internal/analytics"
	"carenest/internal/database"
	"carenest/internal/models"
)

// BehaviorRepository handles database operations for behavior logs
type BehaviorRepository struct {
	db database.DBTX
}

// NewBehaviorRepository creates a new behavior log repository
func NewBehaviorRepository(db database.DBTX) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// CreateMany inserts all logs in one transaction, filling in their IDs
func (r *BehaviorRepository) CreateMany(ctx context.Context, logs []*models.BehaviorLog) error {
	if len(logs) == 0 {
		return nil
	}
	ts := now()
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		for _, l := range logs {
			if l.OccurredAt.IsZero() {
				l.OccurredAt = ts
			}
			l.OccurredAt = l.OccurredAt.UTC()
			id, err := tx.ExecReturningID(ctx, `
				INSERT INTO behavior_logs (child_id, label, occurred_at, recorded_by, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				l.ChildID, l.Label, l.OccurredAt, l.RecordedBy, ts,
			)
			if err != nil {
				return wrap("create behavior log", err)
			}
			l.ID = id
			l.CreatedAt = ts
		}
		return nil
	})
}

// ListBehaviorLogs returns a child's logs inside the query window, oldest first
func (r *BehaviorRepository) ListBehaviorLogs(ctx context.Context, bq analytics.BehaviorQuery) ([]models.BehaviorLog, error) {
	q := &listQuery{}
	q.where("child_id = ?", bq.ChildID).
		between("occurred_at", &TimeRange{Start: bq.Start, End: bq.End}).
		in("label", bq.Labels)
	if bq.LabelPrefix != "" {
		q.where("label LIKE ? ESCAPE '!'", escapeLike(bq.LabelPrefix)+"%")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, child_id, label, occurred_at, recorded_by, created_at
		FROM behavior_logs`+q.clause()+" ORDER BY occurred_at ASC, id ASC", q.args...)
	if err != nil {
		return nil, wrap("query behavior logs", err)
	}
	defer rows.Close()

	var logs []models.BehaviorLog
	for rows.Next() {
		var l models.BehaviorLog
		if err := rows.Scan(&l.ID, &l.ChildID, &l.Label, &l.OccurredAt, &l.RecordedBy, &l.CreatedAt); err != nil {
			return nil, wrap("scan behavior log", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DistinctLabels returns the labels logged for a child inside [start, end], sorted
func (r *BehaviorRepository) DistinctLabels(ctx context.Context, childID int64, start, end time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT label FROM behavior_logs
		WHERE child_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY label`,
		childID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, wrap("query behavior labels", err)
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, wrap("scan behavior label", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}
