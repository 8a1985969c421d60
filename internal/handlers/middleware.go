package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carenest/internal/apperr"
	"carenest/internal/models"
	"carenest/internal/security"
	"carenest/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ActorContextKey ContextKey = "actor"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	limiter     *security.RateLimiter
	logger      *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, limiter *security.RateLimiter, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		limiter:     limiter,
		logger:      logger,
	}
}

// RequireAuth is middleware that requires a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		actor, err := m.authService.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, apperr.ErrAccessDenied) {
				respondWithMessage(w, http.StatusUnauthorized, apperr.Message(err, ErrUnauthorized))
				return
			}
			respondWithError(w, r, m.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), ActorContextKey, actor)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is middleware that requires an authenticated admin
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !GetActorFromContext(r.Context()).IsAdmin() {
			respondWithMessage(w, http.StatusForbidden, ErrAdminRequired)
			return
		}
		next(w, r)
	})
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.logger.Warn("rate limit exceeded", zap.String("client_ip", ip), zap.String("path", r.URL.Path))
			respondWithMessage(w, http.StatusTooManyRequests, ErrTooManyRequests)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware tags each request with an ID and logs it once served.
// Panics are logged and answered with a 500.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				m.logger.Error("panic serving request", zap.Any("panic", p), zap.String("request_id", requestID))
				respondWithMessage(rec, http.StatusInternalServerError, ErrInternalServerError)
			}
			m.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID))
		}()

		next.ServeHTTP(rec, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(authorizationHeader)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// GetActorFromContext retrieves the authenticated actor from the request context
func GetActorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(ActorContextKey).(models.Actor)
	return actor
}
