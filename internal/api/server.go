// Package api provides the HTTP server for habitloop: a JSON API over the
// engagement engine, a websocket feed and the operational endpoints.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/app/engagement"
	"github.com/habitloop/habitloop/internal/domain"
	"github.com/habitloop/habitloop/internal/health"
	"github.com/habitloop/habitloop/internal/websocket"
)

// Server is the habitloop HTTP API server.
type Server struct {
	engine         *engagement.Engine
	notifications  *engagement.NotificationService // nil disables /api/notifications
	hub            *websocket.Hub                  // nil disables /ws
	checker        *health.Checker                 // nil reports plain ok on /health
	metricsEnabled bool
	ratePerMinute  int
	log            *zap.Logger
}

// NewServer creates a new API server over the engine.
func NewServer(engine *engagement.Engine, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{engine: engine, log: log}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetNotifications sets the notification log service.
func (s *Server) SetNotifications(n *engagement.NotificationService) { s.notifications = n }

// SetHub sets the websocket hub for live updates.
func (s *Server) SetHub(h *websocket.Hub) { s.hub = h }

// SetHealthChecker sets the checker reported on /health.
func (s *Server) SetHealthChecker(c *health.Checker) { s.checker = c }

// SetRateLimit limits each client IP to perMinute API requests. 0 disables.
func (s *Server) SetRateLimit(perMinute int) { s.ratePerMinute = perMinute }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if s.hub != nil {
		r.Get("/ws", websocket.Handler(s.hub, nil))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		if s.ratePerMinute > 0 {
			r.Use(newRateLimiter(s.ratePerMinute).middleware)
		}

		r.Post("/checkin", s.handleCheckIn)
		r.Post("/activity", s.handleActivity)
		r.Get("/streak", s.handleStreak)
		r.Get("/trigger", s.handleTrigger)
		r.Get("/summary", s.handleSummary)
		r.Get("/level", s.handleLevel)

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/", s.handleListReminders)
			r.Post("/", s.handleCreateReminder)
			r.Put("/{id}", s.handleUpdateReminder)
			r.Delete("/{id}", s.handleDeleteReminder)
			r.Post("/{id}/toggle", s.handleToggleReminder)
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Post("/check", s.handleCheckRewards)
			r.Post("/{id}/claim", s.handleClaimReward)
			r.Get("/history", s.handleClaimHistory)
		})

		r.Get("/interests", s.handleGetInterests)
		r.Put("/interests", s.handleSetInterests)

		r.Route("/challenges", func(r chi.Router) {
			r.Get("/", s.handleListChallenges)
			r.Post("/{id}/start", s.handleStartChallenge)
			r.Post("/{id}/complete", s.handleCompleteChallenge)
		})

		if s.notifications != nil {
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/{id}/shown", s.handleNotificationShown)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.checker.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.checker.Statuses(),
	})
}

// broadcast pushes an engine event to live dashboards, if any.
func (s *Server) broadcast(entity, action, id string, extra map[string]any) {
	if s.hub != nil {
		s.hub.Broadcast(websocket.NewMessage(entity, action, id, extra))
	}
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps engine errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlreadyCheckedInToday),
		errors.Is(err, domain.ErrInvalidChallengeState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidReminder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrReminderNotFound),
		errors.Is(err, domain.ErrRewardNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
