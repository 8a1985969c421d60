package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carenest/internal/access"
	"carenest/internal/analytics"
	"carenest/internal/cache"
	"carenest/internal/database"
	"carenest/internal/models"
	"carenest/internal/repository"
	"carenest/internal/security"
)

type fakeMailer struct {
	mu      sync.Mutex
	invites []CaregiverInvite
	err     error
}

func (m *fakeMailer) SendCaregiverInvite(_ context.Context, invite CaregiverInvite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites = append(m.invites, invite)
	return m.err
}

type testEnv struct {
	db       *database.DB
	users    *repository.UserRepository
	children *repository.ChildRepository
	resolver *access.Resolver
	mailer   *fakeMailer
	cache    *cache.Cache

	auth      *AuthService
	userSvc   *UserService
	childSvc  *ChildService
	activity  *ActivityService
	behavior  *BehaviorService
	events    *EventService
	records   *RecordService
	library   *LibraryService
	analytics *AnalyticsService
	backup    *BackupService
	inspire   *InspirationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.RunMigrations(context.Background(), "../../migrations")
	require.NoError(t, err)

	logger := zap.NewNop()
	loc := time.UTC

	users := repository.NewUserRepository(db)
	children := repository.NewChildRepository(db)
	activities := repository.NewActivityRepository(db)
	behaviors := repository.NewBehaviorRepository(db)
	library := repository.NewLibraryRepository(db)
	resolver := access.NewResolver(users, children)
	aggregator := analytics.NewAggregator(behaviors, activities, logger)

	store := cache.NewMemoryStore(100, time.Minute)
	c := cache.New(store, time.Minute, logger)
	t.Cleanup(func() { c.Close() })

	mailer := &fakeMailer{}
	return &testEnv{
		db:       db,
		users:    users,
		children: children,
		resolver: resolver,
		mailer:   mailer,
		cache:    c,

		auth:     NewAuthService(users, security.NewTokenManager("test-secret", time.Hour), logger),
		userSvc:  NewUserService(users, resolver, mailer, logger),
		childSvc: NewChildService(children, resolver, loc),
		activity: NewActivityService(activities, resolver, aggregator, loc, logger),
		behavior: NewBehaviorService(behaviors, resolver, loc),
		events:   NewEventService(repository.NewEventRepository(db), children, resolver, loc),
		records: NewRecordService(repository.NewDocumentRepository(db), repository.NewNoteRepository(db),
			repository.NewProviderRepository(db), resolver, loc),
		library:   NewLibraryService(library, c, "learning_library:", time.Minute, logger),
		analytics: NewAnalyticsService(aggregator, resolver, users, children, library, loc),
		backup:    NewBackupService(db, logger),
		inspire:   NewInspirationService(repository.NewInspirationRepository(db), loc, logger),
	}
}

func (e *testEnv) parent(t *testing.T, email string) models.Actor {
	t.Helper()
	u := &models.User{FullName: "Parent", Email: email, Role: models.RoleParent}
	require.NoError(t, e.users.Create(context.Background(), u))
	return models.Actor{ID: u.ID, Role: u.Role}
}

func (e *testEnv) admin(t *testing.T, email string) models.Actor {
	t.Helper()
	u := &models.User{FullName: "Admin", Email: email, Role: models.RoleAdmin}
	require.NoError(t, e.users.Create(context.Background(), u))
	return models.Actor{ID: u.ID, Role: u.Role}
}

func (e *testEnv) caregiver(t *testing.T, parent models.Actor, email string) models.Actor {
	t.Helper()
	u := &models.User{FullName: "Carer", Email: email, Role: models.RoleCaregiver, CreatedByID: &parent.ID}
	require.NoError(t, e.users.Create(context.Background(), u))
	return models.Actor{ID: u.ID, Role: u.Role}
}

func (e *testEnv) child(t *testing.T, owner models.Actor, name string) *models.Child {
	t.Helper()
	c, err := e.childSvc.Create(context.Background(), owner, ChildInput{FullName: name})
	require.NoError(t, err)
	return c
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func todayUTC() string {
	return time.Now().UTC().Format("2006-01-02")
}
