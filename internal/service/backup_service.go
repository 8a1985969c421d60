package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"carenest/internal/database"
)

const backupVersion = "1.0"

// BackupData is a dialect-independent dump of every care table
type BackupData struct {
	Version    string                      `json:"version"`
	ExportedAt time.Time                   `json:"exportedAt"`
	Tables     map[string][]map[string]any `json:"tables"`
}

type columnKind int

const (
	kindInt columnKind = iota
	kindNullInt
	kindText
	kindBool
	kindTime
)

type backupColumn struct {
	name string
	kind columnKind
}

type backupTable struct {
	name    string
	orderBy string
	columns []backupColumn
	serial  bool
}

func cols(layout string) []backupColumn {
	var out []backupColumn
	for _, field := range strings.Fields(layout) {
		name, kind, _ := strings.Cut(field, ":")
		c := backupColumn{name: name}
		switch kind {
		case "i":
			c.kind = kindInt
		case "n":
			c.kind = kindNullInt
		case "b":
			c.kind = kindBool
		case "t":
			c.kind = kindTime
		default:
			c.kind = kindText
		}
		out = append(out, c)
	}
	return out
}

// backupTables lists tables parents first so imports satisfy foreign keys.
var backupTables = []backupTable{
	{name: "users", orderBy: "id", serial: true, columns: cols("id:i full_name email password_hash phone role status created_by_id:n oauth_provider oauth_subject is_deleted:b created_at:t updated_at:t")},
	{name: "children", orderBy: "id", serial: true, columns: cols("id:i creator_id:i full_name date_of_birth personalization_type learning_stage age_group communication toileting support_received diagnoses is_deleted:b created_at:t updated_at:t")},
	{name: "activities", orderBy: "id", serial: true, columns: cols("id:i owner_id:i title description image activity_type created_at:t updated_at:t")},
	{name: "activity_completions", orderBy: "id", serial: true, columns: cols("id:i activity_id:i owner_id:i child_id:n completed_by:i completed_at:t completed_day")},
	{name: "behavior_logs", orderBy: "id", serial: true, columns: cols("id:i child_id:i label occurred_at:t recorded_by:i created_at:t")},
	{name: "events", orderBy: "id", serial: true, columns: cols("id:i owner_id:i title description image event_date event_time is_for_all_child:b status is_deleted:b created_at:t updated_at:t")},
	{name: "event_children", orderBy: "event_id, child_id", columns: cols("event_id:i child_id:i")},
	{name: "child_documents", orderBy: "id", serial: true, columns: cols("id:i child_id:i title file_url file_type created_at:t updated_at:t")},
	{name: "health_care_notes", orderBy: "id", serial: true, columns: cols("id:i child_id:i title description note_date created_at:t updated_at:t")},
	{name: "sensory_notes", orderBy: "id", serial: true, columns: cols("id:i child_id:i title description image created_at:t updated_at:t")},
	{name: "providers", orderBy: "id", serial: true, columns: cols("id:i child_id:i full_name email phone specialty status created_at:t updated_at:t")},
	{name: "learning_articles", orderBy: "id", serial: true, columns: cols("id:i created_by_id:i title description content_type category image link created_at:t updated_at:t")},
	{name: "favorites", orderBy: "id", serial: true, columns: cols("id:i user_id:i article_id:i created_at:t")},
	{name: "inspirations", orderBy: "id", serial: true, columns: cols("id:i body kind scheduled_date status created_at:t updated_at:t")},
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	return &BackupService{db: db, logger: logger}
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
		Tables:     make(map[string][]map[string]any, len(backupTables)),
	}

	for _, t := range backupTables {
		rows, err := s.exportTable(ctx, t)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", t.name, err)
		}
		backup.Tables[t.name] = rows
		s.logger.Info("exported table", zap.String("table", t.name), zap.Int("rows", len(rows)))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

func scanTarget(kind columnKind) any {
	switch kind {
	case kindInt:
		return new(int64)
	case kindNullInt:
		return new(sql.NullInt64)
	case kindBool:
		return new(bool)
	case kindTime:
		return new(time.Time)
	default:
		return new(string)
	}
}

func exportValue(target any) any {
	switch v := target.(type) {
	case *int64:
		return *v
	case *sql.NullInt64:
		if !v.Valid {
			return nil
		}
		return v.Int64
	case *bool:
		return *v
	case *time.Time:
		return v.UTC()
	case *string:
		return *v
	}
	return nil
}

func (s *BackupService) exportTable(ctx context.Context, t backupTable) ([]map[string]any, error) {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+strings.Join(names, ", ")+" FROM "+t.name+" ORDER BY "+t.orderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		targets := make([]any, len(t.columns))
		for i, c := range t.columns {
			targets[i] = scanTarget(c.kind)
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(t.columns))
		for i, c := range t.columns {
			record[c.name] = exportValue(targets[i])
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// ImportFromReader restores a backup into an empty database in one transaction
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var backup BackupData
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.logger.Info("importing backup", zap.Time("exported_at", backup.ExportedAt))

	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, t := range backupTables {
			records := backup.Tables[t.name]
			for i, record := range records {
				if err := importRecord(ctx, tx, t, record); err != nil {
					return fmt.Errorf("failed to import %s row %d: %w", t.name, i, err)
				}
			}
			s.logger.Info("imported table", zap.String("table", t.name), zap.Int("rows", len(records)))
		}
		return resetSequences(ctx, tx)
	})
}

// Clear deletes every row of every care table, children first
func (s *BackupService) Clear(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for i := len(backupTables) - 1; i >= 0; i-- {
			name := backupTables[i].name
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
				return fmt.Errorf("failed to clear %s: %w", name, err)
			}
			s.logger.Info("cleared table", zap.String("table", name))
		}
		return nil
	})
}

func importRecord(ctx context.Context, tx database.DBTX, t backupTable, record map[string]any) error {
	names := make([]string, len(t.columns))
	args := make([]any, len(t.columns))
	for i, c := range t.columns {
		v, err := importValue(c, record[c.name])
		if err != nil {
			return err
		}
		names[i] = c.name
		args[i] = v
	}

	query := "INSERT INTO " + t.name + " (" + strings.Join(names, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func importValue(c backupColumn, raw any) (any, error) {
	if raw == nil {
		switch c.kind {
		case kindNullInt:
			return nil, nil
		case kindText:
			return "", nil
		default:
			return nil, fmt.Errorf("column %s is required", c.name)
		}
	}

	switch c.kind {
	case kindInt, kindNullInt:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a number", c.name)
		}
		return n.Int64()
	case kindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a boolean", c.name)
		}
		return b, nil
	case kindTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a timestamp", c.name)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.name, err)
		}
		return t.UTC(), nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s: expected a string", c.name)
		}
		return s, nil
	}
}

// resetSequences moves postgres serial counters past imported ids. SQLite
// and MySQL advance their counters on explicit inserts.
func resetSequences(ctx context.Context, tx database.DBTX) error {
	if tx.GetDialect().DriverName() != "postgres" {
		return nil
	}
	for _, t := range backupTables {
		if !t.serial {
			continue
		}
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
			t.name, t.name)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", t.name, err)
		}
	}
	return nil
}
