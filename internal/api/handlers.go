// Package api exposes HTTP handlers for the progression service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/progression/internal/domain"
	"example.com/progression/internal/progress"
	"example.com/progression/internal/storage"
)

// Catalog is the read-only workout list served by the API.
type Catalog interface {
	ListAll() []domain.WorkoutDefinition
	Find(workoutID string) (domain.WorkoutDefinition, bool)
}

// WorkoutLogLister pages through a user's workout log, newest first. Backends that keep no
// queryable log leave it unset and the log endpoint answers 501.
type WorkoutLogLister interface {
	ListWorkoutLogs(ctx context.Context, userID string, cursor *domain.LogCursor, limit int) ([]domain.WorkoutLog, *domain.LogCursor, error)
}

// DuelSource returns the current duel board.
type DuelSource func() []domain.DuelRecord

const (
	defaultLogLimit = 20
	maxLogLimit     = 100
)

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithLogger overrides the logger used for server-side failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithWorkoutLogs enables GET /v1/users/{userID}/workouts/logs.
func WithWorkoutLogs(lister WorkoutLogLister) Option {
	return func(h *Handler) {
		h.logs = lister
	}
}

// WithDuels sets the duel board served by GET /v1/duels.
func WithDuels(source DuelSource) Option {
	return func(h *Handler) {
		h.duels = source
	}
}

// Handler coordinates HTTP requests with the per-user progress engines.
type Handler struct {
	registry *progress.Registry
	catalog  Catalog
	logs     WorkoutLogLister
	duels    DuelSource
	logger   logrus.FieldLogger
}

// NewHandler builds a Handler.
func NewHandler(registry *progress.Registry, catalog Catalog, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		catalog:  catalog,
		duels:    func() []domain.DuelRecord { return nil },
		logger:   logrus.StandardLogger().WithField("component", "api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/workouts", h.listWorkouts)
	mux.HandleFunc("GET /v1/duels", h.listDuels)
	mux.HandleFunc("GET /v1/users/{userID}/progress", h.getProgress)
	mux.HandleFunc("DELETE /v1/users/{userID}/progress", h.resetProgress)
	mux.HandleFunc("POST /v1/users/{userID}/progress/xp", h.awardExperience)
	mux.HandleFunc("POST /v1/users/{userID}/workouts/{workoutID}/complete", h.completeWorkout)
	mux.HandleFunc("POST /v1/users/{userID}/workouts/{workoutID}/sets", h.completeSet)
	mux.HandleFunc("GET /v1/users/{userID}/workouts/logs", h.listWorkoutLogs)
	mux.HandleFunc("GET /healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	var unlocked func(string) bool
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		engine, ok := h.engine(w, r, userID)
		if !ok {
			return
		}
		rec := engine.CurrentRecord()
		unlocked = rec.IsUnlocked
	}

	workouts := h.catalog.ListAll()
	items := make([]WorkoutView, 0, len(workouts))
	for _, workout := range workouts {
		view := WorkoutView{WorkoutDefinition: workout, XPPerSet: workout.XPPerSet()}
		if unlocked != nil {
			isUnlocked := unlocked(workout.ID)
			view.Unlocked = &isUnlocked
		}
		items = append(items, view)
	}
	writeJSON(w, http.StatusOK, ListWorkoutsResponse{Items: items})
}

func (h *Handler) listDuels(w http.ResponseWriter, r *http.Request) {
	duels := h.duels()
	items := make([]DuelView, 0, len(duels))
	for _, duel := range duels {
		items = append(items, DuelView{
			DuelRecord:      duel,
			Leading:         duel.Leading(),
			Complete:        duel.Complete(),
			YourPercent:     duel.Percent(duel.YourProgress),
			OpponentPercent: duel.Percent(duel.OpponentProgress),
		})
	}
	writeJSON(w, http.StatusOK, ListDuelsResponse{Items: items})
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r, r.PathValue("userID"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(engine, engine.CurrentRecord()))
}

func (h *Handler) resetProgress(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r, r.PathValue("userID"))
	if !ok {
		return
	}
	rec, err := engine.ResetProgress()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(engine, rec))
}

func (h *Handler) awardExperience(w http.ResponseWriter, r *http.Request) {
	var req AwardExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "amount is required")
		return
	}

	engine, ok := h.engine(w, r, r.PathValue("userID"))
	if !ok {
		return
	}
	rec, err := engine.AwardExperience(*req.Amount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(engine, rec))
}

func (h *Handler) completeWorkout(w http.ResponseWriter, r *http.Request) {
	var req CompleteWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	var day time.Time
	if req.Date != "" {
		parsed, err := time.Parse(domain.DateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	engine, ok := h.engine(w, r, r.PathValue("userID"))
	if !ok {
		return
	}

	workoutID := r.PathValue("workoutID")
	var (
		rec domain.ProgressionRecord
		err error
	)
	if day.IsZero() {
		rec, err = engine.LogWorkoutCompletion(workoutID)
	} else {
		rec, err = engine.LogWorkoutCompletionOn(workoutID, day)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(engine, rec))
}

func (h *Handler) completeSet(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r, r.PathValue("userID"))
	if !ok {
		return
	}
	rec, err := engine.LogSetCompletion(r.PathValue("workoutID"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(engine, rec))
}

func (h *Handler) listWorkoutLogs(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		writeError(w, http.StatusNotImplemented, "not_supported", "storage backend keeps no workout log")
		return
	}
	userID := strings.TrimSpace(r.PathValue("userID"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user id")
		return
	}

	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxLogLimit)
		}
	}

	cursor, err := storage.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	entries, next, err := h.logs.ListWorkoutLogs(r.Context(), userID, cursor, limit)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("listing workout logs failed")
		writeError(w, http.StatusInternalServerError, "server_error", "unable to list workout logs")
		return
	}
	writeJSON(w, http.StatusOK, ListWorkoutLogsResponse{
		Items:      entries,
		NextCursor: storage.EncodeCursor(next),
	})
}

func (h *Handler) engine(w http.ResponseWriter, r *http.Request, userID string) (*progress.Engine, bool) {
	engine, err := h.registry.Engine(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, false
	}
	return engine, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progress.ErrMissingUserID):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrUnknownWorkout):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
	default:
		h.logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// AwardExperienceRequest is the payload for POST /v1/users/{userID}/progress/xp.
type AwardExperienceRequest struct {
	Amount *int `json:"amount"`
}

// CompleteWorkoutRequest is the optional payload for POST .../workouts/{workoutID}/complete.
type CompleteWorkoutRequest struct {
	Date string `json:"date,omitempty"`
}

// ProgressResponse wraps a record with the engine state it was read from. Degraded is set
// when stored progress could not be loaded and the record started fresh.
type ProgressResponse struct {
	Status   string                   `json:"status"`
	Degraded bool                     `json:"degraded"`
	Record   domain.ProgressionRecord `json:"record"`
}

// WorkoutView is a catalog entry, optionally annotated for one user.
type WorkoutView struct {
	domain.WorkoutDefinition
	XPPerSet int   `json:"xp_per_set"`
	Unlocked *bool `json:"unlocked,omitempty"`
}

// ListWorkoutsResponse packages the catalog.
type ListWorkoutsResponse struct {
	Items []WorkoutView `json:"items"`
}

// DuelView adds the derived standings to a duel.
type DuelView struct {
	domain.DuelRecord
	Leading         bool `json:"leading"`
	Complete        bool `json:"complete"`
	YourPercent     int  `json:"your_percent"`
	OpponentPercent int  `json:"opponent_percent"`
}

// ListDuelsResponse packages the duel board.
type ListDuelsResponse struct {
	Items []DuelView `json:"items"`
}

// ListWorkoutLogsResponse packages a page of workout log entries.
type ListWorkoutLogsResponse struct {
	Items      []domain.WorkoutLog `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func toProgressResponse(engine *progress.Engine, rec domain.ProgressionRecord) ProgressResponse {
	return ProgressResponse{
		Status:   string(engine.Status()),
		Degraded: engine.LoadErr() != nil,
		Record:   rec,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
