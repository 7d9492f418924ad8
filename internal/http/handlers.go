package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/mbelik/shortly/internal/config"
	"github.com/mbelik/shortly/internal/core"
	"github.com/mbelik/shortly/internal/metrics"
	"github.com/mbelik/shortly/internal/store"
)

type Router struct {
	cfg     config.Config
	svc     *core.Service
	limiter *core.Limiter
}

func NewRouter(cfg config.Config, svc *core.Service, limiter *core.Limiter) http.Handler {
	r := chi.NewRouter()
	// Logging middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	api := &Router{cfg: cfg, svc: svc, limiter: limiter}

	r.MethodFunc(http.MethodGet, "/healthz", api.handleHealth)
	r.MethodFunc(http.MethodGet, "/readyz", api.handleReady)

	// Metrics
	r.MethodFunc(http.MethodGet, "/metrics", metrics.Handler)

	// Public endpoints
	r.Group(func(r chi.Router) {
		r.MethodFunc(http.MethodPost, "/api/v1/shorten", api.handleShorten)
		r.MethodFunc(http.MethodGet, "/api/v1/stats/{code}", api.handleStats)
	})

	// Redirect path
	r.MethodFunc(http.MethodGet, "/r/{code}", api.handleRedirect)

	return r
}

type shortenReq struct {
	URL           string `json:"url"`
	CustomAlias   string `json:"custom_alias,omitempty"`
	ExpiresInDays *int   `json:"expires_in_days,omitempty"`
}

type shortenResp struct {
	Code      string     `json:"code"`
	ShortURL  string     `json:"short_url,omitempty"`
	Target    string     `json:"target"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type statsResp struct {
	Code           string     `json:"code"`
	Target         string     `json:"target"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	ClickCount     int64      `json:"click_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

func (rt *Router) handleShorten(w http.ResponseWriter, r *http.Request) {
	if !rt.limiter.Allow(r.Context(), clientIP(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req shortenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	m, err := rt.svc.Register(r.Context(), req.URL, strings.TrimSpace(req.CustomAlias), req.ExpiresInDays)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := shortenResp{
		Code:      m.Code,
		Target:    m.Target,
		ExpiresAt: m.ExpiresAt,
	}
	if rt.cfg.BaseURL != "" {
		resp.ShortURL = strings.TrimRight(rt.cfg.BaseURL, "/") + "/r/" + m.Code
	}
	writeJSON(w, resp, http.StatusCreated)
}

func (rt *Router) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	target, err := rt.svc.Resolve(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.Redirects.Inc()

	// fire and forget; outlives the request context on purpose
	go rt.svc.RecordHit(context.WithoutCancel(r.Context()), code)

	// 302 so clients come back through us and clicks keep counting
	http.Redirect(w, r, target, http.StatusFound)
}

func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	m, err := rt.svc.Stats(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, statsRespFrom(m), http.StatusOK)
}

func statsRespFrom(m store.Mapping) statsResp {
	return statsResp{
		Code:           m.Code,
		Target:         m.Target,
		CreatedAt:      m.CreatedAt,
		ExpiresAt:      m.ExpiresAt,
		ClickCount:     m.ClickCount,
		LastAccessedAt: m.LastAccessedAt,
	}
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrAliasTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, core.ErrInvalidAlias), errors.Is(err, core.ErrInvalidTarget):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrCodeSpaceExhausted):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	// Try X-Forwarded-For or Real-IP first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-Ip"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
