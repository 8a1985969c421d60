package handlers

import (
	"net/http"

	"carenest/internal/models"
)

// Handlers groups every handler the router mounts
type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Admin    *AdminHandler
	Children *ChildHandler
	Activity *ActivityHandler
	Events   *EventHandler
	Records  *RecordHandler
	Library  *LibraryHandler
	Inspire  *InspirationHandler
}

// NewRouter registers the JSON API under /api/v1 and wraps it with request
// logging.
func NewRouter(m *Middleware, h Handlers) http.Handler {
	mux := http.NewServeMux()
	auth := m.RequireAuth
	admin := m.RequireAdmin

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithMessage(w, http.StatusOK, "ok")
	})

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/register", m.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /api/v1/auth/login", m.RateLimit(h.Auth.Login))
	mux.HandleFunc("GET /api/v1/auth/providers", h.Auth.ListOAuthProviders)
	mux.HandleFunc("GET /api/v1/auth/{provider}/start", m.RateLimit(h.Auth.StartOAuth))
	mux.HandleFunc("GET /api/v1/auth/{provider}/callback", m.RateLimit(h.Auth.OAuthCallback))
	mux.HandleFunc("POST /api/v1/auth/change-password", auth(h.Auth.ChangePassword))

	// Profile and caregivers
	mux.HandleFunc("GET /api/v1/users/me", auth(h.Users.GetProfile))
	mux.HandleFunc("PUT /api/v1/users/me", auth(h.Users.UpdateProfile))
	mux.HandleFunc("POST /api/v1/caregivers", auth(h.Users.CreateCaregiver))
	mux.HandleFunc("GET /api/v1/caregivers", auth(h.Users.ListCaregivers))
	mux.HandleFunc("DELETE /api/v1/caregivers/{id}", auth(h.Users.RemoveCaregiver))

	// Children, behavior logs and dashboards
	mux.HandleFunc("POST /api/v1/children", auth(h.Children.Create))
	mux.HandleFunc("GET /api/v1/children", auth(h.Children.List))
	mux.HandleFunc("GET /api/v1/children/{id}", auth(h.Children.Get))
	mux.HandleFunc("PUT /api/v1/children/{id}", auth(h.Children.Update))
	mux.HandleFunc("DELETE /api/v1/children/{id}", auth(h.Children.Delete))
	mux.HandleFunc("GET /api/v1/children/{id}/dashboard", auth(h.Children.Dashboard))
	mux.HandleFunc("POST /api/v1/children/{id}/behaviors", auth(h.Children.RecordBehaviors))
	mux.HandleFunc("GET /api/v1/children/{id}/behaviors", auth(h.Children.ListBehaviors))
	mux.HandleFunc("GET /api/v1/children/{id}/behaviors/selected", auth(h.Children.SelectedBehaviors))

	// Child records
	mux.HandleFunc("POST /api/v1/children/{childId}/documents", auth(h.Records.CreateDocument))
	mux.HandleFunc("GET /api/v1/children/{childId}/documents", auth(h.Records.ListDocuments))
	mux.HandleFunc("GET /api/v1/children/{childId}/documents/{id}", auth(h.Records.GetDocument))
	mux.HandleFunc("PUT /api/v1/children/{childId}/documents/{id}", auth(h.Records.UpdateDocument))
	mux.HandleFunc("DELETE /api/v1/children/{childId}/documents/{id}", auth(h.Records.DeleteDocument))
	for path, kind := range map[string]models.NoteKind{
		"health-notes":  models.NoteKindHealthCare,
		"sensory-notes": models.NoteKindSensory,
	} {
		base := "/api/v1/children/{childId}/" + path
		mux.HandleFunc("POST "+base, auth(h.Records.CreateNote(kind)))
		mux.HandleFunc("GET "+base, auth(h.Records.ListNotes(kind)))
		mux.HandleFunc("GET "+base+"/{id}", auth(h.Records.GetNote(kind)))
		mux.HandleFunc("PUT "+base+"/{id}", auth(h.Records.UpdateNote(kind)))
		mux.HandleFunc("DELETE "+base+"/{id}", auth(h.Records.DeleteNote(kind)))
	}
	mux.HandleFunc("POST /api/v1/children/{childId}/providers", auth(h.Records.CreateProvider))
	mux.HandleFunc("GET /api/v1/children/{childId}/providers", auth(h.Records.ListProviders))
	mux.HandleFunc("GET /api/v1/children/{childId}/providers/{id}", auth(h.Records.GetProvider))
	mux.HandleFunc("PUT /api/v1/children/{childId}/providers/{id}", auth(h.Records.UpdateProvider))
	mux.HandleFunc("DELETE /api/v1/children/{childId}/providers/{id}", auth(h.Records.DeleteProvider))

	// Activities
	mux.HandleFunc("POST /api/v1/activities", auth(h.Activity.Create))
	mux.HandleFunc("GET /api/v1/activities", auth(h.Activity.List))
	mux.HandleFunc("GET /api/v1/activities/summary", auth(h.Activity.Summary))
	mux.HandleFunc("GET /api/v1/activities/{id}", auth(h.Activity.Get))
	mux.HandleFunc("PUT /api/v1/activities/{id}", auth(h.Activity.Update))
	mux.HandleFunc("DELETE /api/v1/activities/{id}", auth(h.Activity.Delete))
	mux.HandleFunc("POST /api/v1/activities/{id}/complete", auth(h.Activity.Complete))

	// Events
	mux.HandleFunc("POST /api/v1/events", auth(h.Events.Create))
	mux.HandleFunc("GET /api/v1/events", auth(h.Events.List))
	mux.HandleFunc("GET /api/v1/events/{id}", auth(h.Events.Get))
	mux.HandleFunc("PUT /api/v1/events/{id}", auth(h.Events.Update))
	mux.HandleFunc("PATCH /api/v1/events/{id}/complete", auth(h.Events.Complete))
	mux.HandleFunc("DELETE /api/v1/events/{id}", auth(h.Events.Delete))

	// Learning library
	mux.HandleFunc("GET /api/v1/library", auth(h.Library.List))
	mux.HandleFunc("POST /api/v1/library", admin(h.Library.Create))
	mux.HandleFunc("GET /api/v1/library/favorites", auth(h.Library.ListFavorites))
	mux.HandleFunc("GET /api/v1/library/{id}", auth(h.Library.Get))
	mux.HandleFunc("PUT /api/v1/library/{id}", admin(h.Library.Update))
	mux.HandleFunc("DELETE /api/v1/library/{id}", admin(h.Library.Delete))
	mux.HandleFunc("POST /api/v1/library/{id}/favorite", auth(h.Library.ToggleFavorite))

	// Daily inspiration
	mux.HandleFunc("GET /api/v1/inspirations/today", auth(h.Inspire.Today))
	mux.HandleFunc("GET /api/v1/inspirations", admin(h.Inspire.List))
	mux.HandleFunc("POST /api/v1/inspirations", admin(h.Inspire.Create))
	mux.HandleFunc("GET /api/v1/inspirations/{id}", admin(h.Inspire.Get))
	mux.HandleFunc("PUT /api/v1/inspirations/{id}", admin(h.Inspire.Update))
	mux.HandleFunc("DELETE /api/v1/inspirations/{id}", admin(h.Inspire.Delete))
	mux.HandleFunc("POST /api/v1/inspirations/{id}/send", admin(h.Inspire.Send))

	// Admin routes
	mux.HandleFunc("GET /api/v1/admin/users", admin(h.Admin.ListUsers))
	mux.HandleFunc("PATCH /api/v1/admin/users/{id}/status", admin(h.Admin.SetUserStatus))
	mux.HandleFunc("GET /api/v1/admin/overview", admin(h.Admin.Overview))
	mux.HandleFunc("GET /api/v1/admin/cache/stats", admin(h.Admin.CacheStats))
	mux.HandleFunc("DELETE /api/v1/admin/cache", admin(h.Admin.FlushCache))

	return m.Logging(mux)
}
