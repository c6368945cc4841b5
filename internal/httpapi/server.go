package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"farewatch/internal/domain"
	"farewatch/internal/httpapi/middleware"
	"farewatch/internal/repo"
)

// Server is the CRUD surface for alerts. It only persists; all checking
// and notifying happens in the scheduler daemon.
type Server struct {
	Logger  *zap.Logger
	Alerts  repo.AlertStore
	History repo.HistoryStore

	Auth        middleware.KeyAuth
	PublicRPM   int
	PublicBurst int

	DefaultCheckInterval time.Duration
	MinCheckInterval     time.Duration
}

func NewServer(l *zap.Logger, alerts repo.AlertStore, history repo.HistoryStore) *Server {
	return &Server{
		Logger:               l,
		Alerts:               alerts,
		History:              history,
		DefaultCheckInterval: time.Hour,
		MinCheckInterval:     15 * time.Minute,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	auth := s.Auth
	if auth.Log == nil {
		auth.Log = s.Logger
	}

	r.Route("/api/alerts", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.PublicRPM, s.PublicBurst))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireReader)
			r.Get("/", s.handleListAlerts)
			r.Get("/{id}", s.handleGetAlert)
			r.Get("/{id}/history", s.handleAlertHistory)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/", s.handleCreateAlert)
			r.Post("/{id}/pause", s.handleSetStatus(domain.StatusPaused))
			r.Post("/{id}/resume", s.handleSetStatus(domain.StatusActive))
			r.Post("/{id}/cancel", s.handleSetStatus(domain.StatusCancelled))
			r.Delete("/{id}", s.handleDeleteAlert)
		})
	})

	return r
}

type createPayload struct {
	UserID        string  `json:"user_id"`
	ChatID        string  `json:"chat_id"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureDate string  `json:"departure_date,omitempty"` // YYYY-MM-DD
	ReturnDate    string  `json:"return_date,omitempty"`
	OneWay        bool    `json:"one_way"`
	TargetPrice   float64 `json:"target_price"`
	Currency      string  `json:"currency"`
	CheckMinutes  int     `json:"check_interval_minutes"`
}

func (p *createPayload) toAlert(defaultInterval, minInterval time.Duration) (*domain.Alert, error) {
	origin := strings.ToUpper(strings.TrimSpace(p.Origin))
	dest := strings.ToUpper(strings.TrimSpace(p.Destination))
	if len(origin) != 3 || len(dest) != 3 {
		return nil, errors.New("origin and destination must be 3-letter IATA codes")
	}
	if origin == dest {
		return nil, errors.New("origin and destination must differ")
	}
	if p.TargetPrice <= 0 {
		return nil, errors.New("target_price must be positive")
	}
	if p.UserID == "" || p.ChatID == "" {
		return nil, errors.New("user_id and chat_id are required")
	}

	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, errors.New("currency must be a 3-letter code")
	}

	interval := defaultInterval
	if p.CheckMinutes > 0 {
		interval = time.Duration(p.CheckMinutes) * time.Minute
	}
	if interval < minInterval {
		interval = minInterval
	}

	a := &domain.Alert{
		UserID:        p.UserID,
		ChatID:        p.ChatID,
		Origin:        origin,
		Destination:   dest,
		OneWay:        p.OneWay,
		TargetPrice:   p.TargetPrice,
		Currency:      currency,
		CheckInterval: interval,
		Status:        domain.StatusActive,
	}

	if p.DepartureDate != "" {
		d, err := time.Parse("2006-01-02", p.DepartureDate)
		if err != nil {
			return nil, errors.New("departure_date must be YYYY-MM-DD")
		}
		a.DepartureDate = &d
	}
	if p.ReturnDate != "" {
		d, err := time.Parse("2006-01-02", p.ReturnDate)
		if err != nil {
			return nil, errors.New("return_date must be YYYY-MM-DD")
		}
		if a.DepartureDate != nil && d.Before(*a.DepartureDate) {
			return nil, errors.New("return_date before departure_date")
		}
		a.ReturnDate = &d
	}
	return a, nil
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var p createPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "bad payload")
		return
	}
	a, err := p.toAlert(s.DefaultCheckInterval, s.MinCheckInterval)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Alerts.Create(r.Context(), a); err != nil {
		s.Logger.Warn("create_alert_error", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "could not create alert")
		return
	}

	s.Logger.Info("alert_created",
		zap.String("alert_id", string(a.ID)),
		zap.String("route", a.Origin+"-"+a.Destination),
		zap.Float64("target", a.TargetPrice),
	)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeErr(w, http.StatusBadRequest, "user_id query parameter required")
		return
	}
	alerts, err := s.Alerts.ListByUser(r.Context(), userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "list error")
		return
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadAlert(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadAlert(w, r)
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	obs, err := s.History.ListByAlert(r.Context(), a.ID, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "history error")
		return
	}
	if obs == nil {
		obs = []*domain.PriceObservation{}
	}
	writeJSON(w, http.StatusOK, obs)
}

func (s *Server) handleSetStatus(status domain.AlertStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := s.loadAlert(w, r)
		if !ok {
			return
		}
		if err := s.Alerts.UpdateStatus(r.Context(), a.ID, status); err != nil {
			writeErr(w, http.StatusInternalServerError, "update error")
			return
		}
		a.Status = status
		writeJSON(w, http.StatusOK, a)
	}
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := domain.AlertID(chi.URLParam(r, "id"))
	if err := s.Alerts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "delete error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadAlert(w http.ResponseWriter, r *http.Request) (*domain.Alert, bool) {
	id := domain.AlertID(chi.URLParam(r, "id"))
	a, err := s.Alerts.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "not found")
			return nil, false
		}
		writeErr(w, http.StatusInternalServerError, "load error")
		return nil, false
	}
	return a, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
