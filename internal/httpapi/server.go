package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/hostwatcher/internal/config"
	"github.com/hamed0406/hostwatcher/internal/domain"
	apimw "github.com/hamed0406/hostwatcher/internal/httpapi/middleware"
	"github.com/hamed0406/hostwatcher/internal/repo"
)

// ConfigSource exposes the current watch snapshot; *config.Store implements it.
type ConfigSource interface {
	Current() *config.Watch
}

// Server is the read-only status API of a running watcher.
type Server struct {
	Logger  *zap.Logger
	Results repo.ResultStore
	Config  ConfigSource
}

func NewServer(l *zap.Logger, rs repo.ResultStore, cfg ConfigSource) *Server {
	return &Server{Logger: l, Results: rs, Config: cfg}
}

// Router wires the endpoints. keys empty means no auth; rpm <= 0 disables
// rate limiting.
func (s *Server) Router(keys []string, allowedOrigins []string, rpm, burst int) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(rpm, burst))
		r.Use(apimw.RequireKey(keys))
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/results/latest", s.handleLatest)
	})
	return r
}

type hostsView struct {
	Ping  []string `json:"ping"`
	HTTP  []string `json:"http"`
	HTTPS []string `json:"https"`
}

type configView struct {
	Hosts             hostsView `json:"hosts"`
	IntervalSeconds   int       `json:"interval_seconds"`
	CheckTimeoutSecs  int       `json:"check_timeout_seconds"`
	MailEnabled       bool      `json:"mail_enabled"`
	MailLevels        []string  `json:"mail_levels"`
	MailAfterOKChecks int       `json:"mail_after_ok_checks"`
}

type statusResponse struct {
	repo.CycleStats
	Config  configView           `json:"config"`
	Results []domain.CheckResult `json:"results"`
}

func viewOf(w *config.Watch) configView {
	levels := make([]string, 0, len(w.MailLevels))
	for _, l := range w.MailLevels {
		levels = append(levels, string(l))
	}
	return configView{
		Hosts:             hostsView{Ping: nonNil(w.PingList), HTTP: nonNil(w.HTTPList), HTTPS: nonNil(w.HTTPSList)},
		IntervalSeconds:   int(w.Interval.Seconds()),
		CheckTimeoutSecs:  int(w.ProbeTimeout().Seconds()),
		MailEnabled:       w.MailEnabled(),
		MailLevels:        levels,
		MailAfterOKChecks: w.MailAfterOKChecks,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Results.Stats(r.Context())
	if err != nil {
		s.Logger.Warn("status stats error", zap.Error(err))
		http.Error(w, "status error", http.StatusInternalServerError)
		return
	}
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("status results error", zap.Error(err))
		http.Error(w, "status error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, statusResponse{
		CycleStats: stats,
		Config:     viewOf(s.Config.Current()),
		Results:    nonNilResults(rows),
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, nonNilResults(rows))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilResults(rows []domain.CheckResult) []domain.CheckResult {
	if rows == nil {
		return []domain.CheckResult{}
	}
	return rows
}
