package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carenest/internal/models"
)

func TestBackupServiceExportImport(t *testing.T) {
	src := newTestEnv(t)
	ctx := context.Background()
	admin := src.admin(t, "admin@example.com")
	parent := src.parent(t, "p@example.com")
	mia := src.child(t, parent, "Mia")

	_, err := src.events.Create(ctx, parent, EventInput{Title: "Zoo", Date: "2026-03-04", ChildIDs: []int64{mia.ID}})
	require.NoError(t, err)
	_, err = src.behavior.Record(ctx, parent, mia.ID, []string{"Stayed Calm"}, nil)
	require.NoError(t, err)
	a, err := src.library.Create(ctx, admin, article("Routines", "Articles", "Daily_Living"))
	require.NoError(t, err)
	_, err = src.library.ToggleFavorite(ctx, parent, a.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.backup.ExportToWriter(ctx, &buf))

	var dump BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dump))
	assert.Equal(t, "1.0", dump.Version)
	assert.Len(t, dump.Tables["users"], 2)
	assert.Len(t, dump.Tables["event_children"], 1)

	dst := newTestEnv(t)
	require.NoError(t, dst.backup.ImportFromReader(ctx, bytes.NewReader(buf.Bytes())))

	restored, err := dst.childSvc.Get(ctx, parent, mia.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mia", restored.FullName)

	events, err := dst.events.List(ctx, parent, EventListParams{Date: "2026-03-04", ChildID: &mia.ID}, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, events.Meta.Total)

	got, err := dst.library.Get(ctx, parent, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)

	next := dst.child(t, parent, "Noah")
	assert.Greater(t, next.ID, mia.ID, "ids continue after the restored rows")
}

func TestBackupServiceRejectsUnknownVersion(t *testing.T) {
	env := newTestEnv(t)
	err := env.backup.ImportFromReader(context.Background(), strings.NewReader(`{"version":"0.9","tables":{}}`))
	assert.ErrorContains(t, err, "unsupported backup version")
}

func TestBackupServiceClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent := env.parent(t, "p@example.com")
	env.child(t, parent, "Mia")

	require.NoError(t, env.backup.Clear(ctx))

	var buf bytes.Buffer
	require.NoError(t, env.backup.ExportToWriter(ctx, &buf))
	var dump BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dump))
	assert.Empty(t, dump.Tables["users"])
	assert.Empty(t, dump.Tables["children"])
}
