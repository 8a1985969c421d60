package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carenest/internal/analytics"
	"carenest/internal/database"
	"carenest/internal/models"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.RunMigrations(context.Background(), "../../migrations")
	require.NoError(t, err)
	return db
}

func seedParent(t *testing.T, users *UserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{FullName: "Parent " + email, Email: email, Role: models.RoleParent}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUserRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)

	parent := seedParent(t, users, "ann@example.com")
	caregiver := &models.User{FullName: "Bo", Email: "bo@example.com", Role: models.RoleCaregiver, CreatedByID: &parent.ID}
	require.NoError(t, users.Create(ctx, caregiver))

	got, err := users.GetByID(ctx, caregiver.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.CreatedByID)
	assert.Equal(t, parent.ID, *got.CreatedByID)
	assert.Equal(t, models.UserStatusActive, got.Status)

	missing, err := users.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	caregivers, err := users.ListCaregivers(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, caregivers, 1)
	assert.Equal(t, "bo@example.com", caregivers[0].Email)

	list, total, err := users.List(ctx, UserFilter{SearchTerm: "BO", Roles: []string{"CARE_GIVER"}}, models.ListOptions{}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)

	require.NoError(t, users.SetStatus(ctx, caregiver.ID, models.UserStatusBlocked))
	require.NoError(t, users.SoftDelete(ctx, caregiver.ID))

	byEmail, err := users.GetByEmail(ctx, "bo@example.com")
	require.NoError(t, err)
	assert.Nil(t, byEmail, "soft-deleted users are hidden from email lookup")

	counts, err := users.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.RoleParent])
	assert.Equal(t, 0, counts[models.RoleCaregiver])
}

func TestChildRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := openTestDB(t)
	ctx := context.Background()
	parent := seedParent(t, NewUserRepository(db), "p@example.com")
	children := NewChildRepository(db)

	mia := &models.Child{CreatorID: parent.ID, FullName: "Mia 100%", Diagnoses: []string{"ASD"}}
	leo := &models.Child{CreatorID: parent.ID, FullName: "Leo"}
	require.NoError(t, children.Create(ctx, mia))
	require.NoError(t, children.Create(ctx, leo))

	got, err := children.GetByID(ctx, mia.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"ASD"}, got.Diagnoses)
	assert.Equal(t, []string{}, got.SupportReceived)

	t.Run("search escapes wildcards", func(t *testing.T) {
		list, total, err := children.ListByOwner(ctx, parent.ID, ChildFilter{SearchTerm: "0%"}, models.ListOptions{}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, mia.ID, list[0].ID)
	})

	t.Run("sort by name ascending", func(t *testing.T) {
		list, _, err := children.ListByOwner(ctx, parent.ID, ChildFilter{},
			models.ListOptions{SortBy: "fullName", SortOrder: "asc"}.Normalize())
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Leo", list[0].FullName)
	})

	t.Run("created day filter", func(t *testing.T) {
		day := time.Now().UTC()
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		_, total, err := children.ListByOwner(ctx, parent.ID,
			ChildFilter{Created: &TimeRange{Start: start, End: start.Add(24*time.Hour - time.Millisecond)}},
			models.ListOptions{}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		_, total, err = children.ListByOwner(ctx, parent.ID,
			ChildFilter{Created: &TimeRange{Start: start.AddDate(0, 0, -2), End: start.AddDate(0, 0, -1)}},
			models.ListOptions{}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	owned, err := children.OwnedIDs(ctx, parent.ID, []int64{mia.ID, leo.ID, 777})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{mia.ID: true, leo.ID: true}, owned)

	require.NoError(t, children.SoftDelete(ctx, leo.ID))
	gone, err := children.GetByID(ctx, leo.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.ErrorIs(t, children.SoftDelete(ctx, leo.ID), errNoRowsForTest)

	n, err := children.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestActivityAndBehaviorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := openTestDB(t)
	ctx := context.Background()
	parent := seedParent(t, NewUserRepository(db), "a@example.com")
	child := &models.Child{CreatorID: parent.ID, FullName: "Ivy"}
	require.NoError(t, NewChildRepository(db).Create(ctx, child))

	activities := NewActivityRepository(db)
	walk := &models.Activity{OwnerID: parent.ID, Title: "Walk", Image: "walk.png", ActivityType: "outdoor"}
	require.NoError(t, activities.Create(ctx, walk))

	monday := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	require.NoError(t, activities.CreateCompletion(ctx, &models.ActivityCompletion{
		ActivityID: walk.ID, OwnerID: parent.ID, ChildID: &child.ID, CompletedBy: parent.ID, CompletedAt: monday,
	}))

	err := activities.CreateCompletion(ctx, &models.ActivityCompletion{
		ActivityID: walk.ID, OwnerID: parent.ID, CompletedBy: parent.ID, CompletedAt: monday.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	done, err := activities.HasCompletionBetween(ctx, parent.ID, walk.ID, monday.Truncate(24*time.Hour), monday.Truncate(24*time.Hour).Add(24*time.Hour-time.Millisecond))
	require.NoError(t, err)
	assert.True(t, done)

	done, err = activities.HasCompletionBetween(ctx, parent.ID, walk.ID, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.False(t, done)

	sibling := &models.Child{CreatorID: parent.ID, FullName: "Oak"}
	require.NoError(t, NewChildRepository(db).Create(ctx, sibling))
	require.NoError(t, activities.CreateCompletion(ctx, &models.ActivityCompletion{
		ActivityID: walk.ID, OwnerID: parent.ID, ChildID: &sibling.ID, CompletedBy: parent.ID, CompletedAt: monday.Add(-48 * time.Hour),
	}))

	ownerWide := analytics.CompletionQuery{OwnerID: parent.ID, Start: monday.AddDate(0, 0, -3), End: monday.AddDate(0, 0, 1)}
	completions, err := activities.ListCompletions(ctx, ownerWide)
	require.NoError(t, err)
	assert.Len(t, completions, 2)

	forChild := ownerWide
	forChild.ChildID = child.ID
	completions, err = activities.ListCompletions(ctx, forChild)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	assert.Equal(t, "Walk", completions[0].Title)
	require.NotNil(t, completions[0].ChildID)
	assert.Equal(t, child.ID, *completions[0].ChildID)

	list, total, err := activities.ListByOwner(ctx, parent.ID, ActivityFilter{Types: []string{"indoor"}}, models.ListOptions{}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, list)

	behaviors := NewBehaviorRepository(db)
	var logs []*models.BehaviorLog
	for _, label := range []string{"Potty Attempt", "Potty Success", "Tried Kiwi", "Tried Kiwi", "Stayed Calm"} {
		logs = append(logs, &models.BehaviorLog{ChildID: child.ID, Label: label, OccurredAt: monday, RecordedBy: parent.ID})
	}
	require.NoError(t, behaviors.CreateMany(ctx, logs))
	assert.NotZero(t, logs[4].ID)

	window := analytics.BehaviorQuery{ChildID: child.ID, Start: monday.AddDate(0, 0, -1), End: monday.AddDate(0, 0, 5)}

	foods := window
	foods.LabelPrefix = analytics.FoodLabelPrefix
	got, err := behaviors.ListBehaviorLogs(ctx, foods)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	potty := window
	potty.Labels = []string{analytics.LabelPottyAttempt, analytics.LabelPottySuccess}
	got, err = behaviors.ListBehaviorLogs(ctx, potty)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	labels, err := behaviors.DistinctLabels(ctx, child.ID, window.Start, window.End)
	require.NoError(t, err)
	assert.Equal(t, []string{"Potty Attempt", "Potty Success", "Stayed Calm", "Tried Kiwi"}, labels)

	require.NoError(t, activities.Delete(ctx, walk.ID))
	completions, err = activities.ListCompletions(ctx, ownerWide)
	require.NoError(t, err)
	assert.Empty(t, completions)
}

func TestEventRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := openTestDB(t)
	ctx := context.Background()
	parent := seedParent(t, NewUserRepository(db), "e@example.com")
	children := NewChildRepository(db)
	a := &models.Child{CreatorID: parent.ID, FullName: "A"}
	b := &models.Child{CreatorID: parent.ID, FullName: "B"}
	require.NoError(t, children.Create(ctx, a))
	require.NoError(t, children.Create(ctx, b))

	events := NewEventRepository(db)
	all := &models.Event{OwnerID: parent.ID, Title: "Picnic", Date: "2024-06-03", IsForAllChild: true}
	onlyA := &models.Event{OwnerID: parent.ID, Title: "Therapy", Date: "2024-06-03", ChildIDs: []int64{a.ID}}
	other := &models.Event{OwnerID: parent.ID, Title: "Dentist", Date: "2024-06-04", ChildIDs: []int64{b.ID}}
	for _, e := range []*models.Event{all, onlyA, other} {
		require.NoError(t, events.Create(ctx, e))
	}

	got, err := events.GetByID(ctx, onlyA.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int64{a.ID}, got.ChildIDs)
	assert.Equal(t, models.EventStatusPending, got.Status)

	tests := []struct {
		name   string
		filter EventFilter
		want   int
	}{
		{"date only", EventFilter{Date: "2024-06-03"}, 2},
		{"child b on the 3rd sees shared event", EventFilter{Date: "2024-06-03", ChildIDs: []int64{b.ID}}, 1},
		{"child a on the 3rd", EventFilter{Date: "2024-06-03", ChildIDs: []int64{a.ID}}, 2},
		{"completed", EventFilter{Statuses: []string{"COMPLETED"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := events.ListByOwner(ctx, parent.ID, tt.filter, models.ListOptions{}.Normalize())
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
		})
	}

	got.ChildIDs = []int64{a.ID, b.ID}
	got.Status = models.EventStatusCompleted
	require.NoError(t, events.Update(ctx, got))
	got, err = events.GetByID(ctx, onlyA.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, got.ChildIDs)
	assert.Equal(t, models.EventStatusCompleted, got.Status)

	require.NoError(t, events.SoftDelete(ctx, all.ID))
	gone, err := events.GetByID(ctx, all.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestChildRecordsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := openTestDB(t)
	ctx := context.Background()
	parent := seedParent(t, NewUserRepository(db), "r@example.com")
	child := &models.Child{CreatorID: parent.ID, FullName: "Kai"}
	require.NoError(t, NewChildRepository(db).Create(ctx, child))
	opts := models.ListOptions{}.Normalize()

	notes := NewNoteRepository(db)
	health := &models.Note{ChildID: child.ID, Kind: models.NoteKindHealthCare, Title: "Allergy", Date: "2024-05-01"}
	sensory := &models.Note{ChildID: child.ID, Kind: models.NoteKindSensory, Title: "Loud noises", Image: "ear.png"}
	require.NoError(t, notes.Create(ctx, health))
	require.NoError(t, notes.Create(ctx, sensory))

	got, err := notes.GetByID(ctx, models.NoteKindSensory, sensory.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ear.png", got.Image)

	list, total, err := notes.ListByChild(ctx, models.NoteKindHealthCare, child.ID, NoteFilter{SearchTerm: "aller"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "2024-05-01", list[0].Date)

	_, err = notes.GetByID(ctx, models.NoteKind("diary"), 1)
	assert.Error(t, err)

	providers := NewProviderRepository(db)
	p := &models.Provider{ChildID: child.ID, FullName: "Dr Who", Email: "who@clinic.test"}
	require.NoError(t, providers.Create(ctx, p))
	assert.Equal(t, models.ProviderStatusActive, p.Status)
	_, total, err = providers.ListByChild(ctx, child.ID, ProviderFilter{SearchTerm: "clinic", Statuses: []string{"ACTIVE"}}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	docs := NewDocumentRepository(db)
	d := &models.ChildDocument{ChildID: child.ID, Title: "IEP", FileURL: "https://files.test/iep.pdf", FileType: "pdf"}
	require.NoError(t, docs.Create(ctx, d))
	require.NoError(t, docs.Delete(ctx, d.ID))
	assert.ErrorIs(t, docs.Delete(ctx, d.ID), errNoRowsForTest)
}

func TestLibraryRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := openTestDB(t)
	ctx := context.Background()
	admin := seedParent(t, NewUserRepository(db), "admin@example.com")
	lib := NewLibraryRepository(db)
	opts := models.ListOptions{}.Normalize()

	a1 := &models.Article{CreatedByID: admin.ID, Title: "Toilet training", Content: models.ContentArticles, Category: models.CategoryDailyLiving}
	a2 := &models.Article{CreatedByID: admin.ID, Title: "Talking tips", Content: models.ContentPodcast, Category: models.CategoryCommunication}
	require.NoError(t, lib.CreateArticle(ctx, a1))
	require.NoError(t, lib.CreateArticle(ctx, a2))

	list, total, err := lib.ListArticles(ctx, ArticleFilter{Categories: []string{"Communication"}}, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, a2.ID, list[0].ID)

	_, err = lib.AddFavorite(ctx, admin.ID, a1.ID)
	require.NoError(t, err)
	_, err = lib.AddFavorite(ctx, admin.ID, a1.ID)
	assert.Error(t, err, "duplicate favorites violate the unique key")

	saved, err := lib.FavoriteIDs(ctx, admin.ID, []int64{a1.ID, a2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{a1.ID: true}, saved)

	favs, total, err := lib.ListFavorites(ctx, admin.ID, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.NotNil(t, favs[0].Article)
	assert.True(t, favs[0].Article.IsFavorite)

	require.NoError(t, lib.DeleteArticle(ctx, a1.ID))
	removed, err := lib.RemoveFavorite(ctx, admin.ID, a1.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
