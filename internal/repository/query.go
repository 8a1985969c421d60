package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"carenest/internal/database"
	"carenest/internal/models"
)

// TimeRange is an inclusive time filter.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// listQuery accumulates WHERE conditions and their arguments. Column names
// passed to it always come from code, never from requests.
type listQuery struct {
	conds []string
	args  []any
}

func (q *listQuery) where(cond string, args ...any) *listQuery {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
	return q
}

// search matches term case-insensitively as a substring of any column.
func (q *listQuery) search(term string, columns ...string) *listQuery {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	ors := make([]string, len(columns))
	for i, col := range columns {
		ors[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
		q.args = append(q.args, pattern)
	}
	q.conds = append(q.conds, "("+strings.Join(ors, " OR ")+")")
	return q
}

// in restricts column to values; an empty list adds nothing.
func (q *listQuery) in(column string, values []string) *listQuery {
	if len(values) == 0 {
		return q
	}
	q.conds = append(q.conds, column+" IN ("+placeholders(len(values))+")")
	for _, v := range values {
		q.args = append(q.args, v)
	}
	return q
}

func (q *listQuery) between(column string, r *TimeRange) *listQuery {
	if r == nil {
		return q
	}
	return q.where(column+" >= ? AND "+column+" <= ?", r.Start.UTC(), r.End.UTC())
}

func (q *listQuery) clause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

func (q *listQuery) count(ctx context.Context, db database.DBTX, from string) (int, error) {
	var total int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+from+q.clause(), q.args...).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// page appends ORDER BY and LIMIT/OFFSET. sortable maps request sort names
// to columns; unknown names fall back to the first column given.
func (q *listQuery) page(opts models.ListOptions, fallback string, sortable map[string]string) (string, []any) {
	col, ok := sortable[opts.SortBy]
	if !ok {
		col = fallback
	}
	dir := "DESC"
	if opts.SortOrder == "asc" {
		dir = "ASC"
	}

	args := append(append([]any{}, q.args...), opts.Limit, opts.Offset())
	return q.clause() + " ORDER BY " + col + " " + dir + ", id " + dir + " LIMIT ? OFFSET ?", args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ErrDuplicate marks an insert rejected by a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// expectAffected turns a zero-row update into sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func wrap(action string, err error) error {
	return fmt.Errorf("failed to %s: %w", action, err)
}

// inTx runs fn in a transaction, or directly when db already is one.
func inTx(ctx context.Context, db database.DBTX, fn func(database.DBTX) error) error {
	switch d := db.(type) {
	case *database.DB:
		return d.WithTx(ctx, func(tx *database.Tx) error { return fn(tx) })
	default:
		return fn(db)
	}
}
