// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/attempts"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/cache"
	"github.com/SergeyMarcum/crm-app/pkg/config"
	"github.com/SergeyMarcum/crm-app/pkg/httputil"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
	"github.com/SergeyMarcum/crm-app/pkg/session"
	"github.com/SergeyMarcum/crm-app/pkg/table"
	"github.com/SergeyMarcum/crm-app/pkg/template"
)

// App is the web console.
type App struct {
	queries

	cfg      *config.Config
	sessions *session.Store
	filters  *table.Registry
	attempts *attempts.Tracker
	views    *template.Renderer
	verified *cache.Cache
	guard    *auth.Guard

	log *logger.Logger
	now func() time.Time
}

// pages rendered inside the base layout.
var layoutPages = []string{"home.html", "list.html", "detail.html", "form.html", "calendar.html", "error.html"}

// NewApp wires the console from cfg. The caller owns Close.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.ValidateSession(); err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	sessions, err := session.NewStore(session.Options{
		Secret: cfg.Session.Secret,
		Secure: cfg.Session.SecureCookie,
		MaxAge: int(cfg.Session.MaxAge / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	views, err := template.New()
	if err != nil {
		return nil, err
	}
	if err := views.Preload(layoutPages, []string{"login.html"}); err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	tracker, err := attempts.Open(cfg.Login.DBPath, loginPolicy(cfg.Login))
	if err != nil {
		return nil, fmt.Errorf("login attempts: %w", err)
	}

	a := &App{
		queries:  queries{client: client, cache: cache.New(cfg.Cache.TTL)},
		cfg:      cfg,
		sessions: sessions,
		filters:  table.NewRegistry(),
		attempts: tracker,
		views:    views,
		verified: cache.New(cfg.Session.VerifyTTL),
		log:      logger.NewLogger("console"),
		now:      time.Now,
	}
	a.guard = auth.NewGuard(a.verify)
	a.guard.OnUnauthenticated = a.dropSession
	return a, nil
}

// Close releases the attempts database.
func (a *App) Close() error {
	return a.attempts.Close()
}

func loginPolicy(c config.LoginConfig) attempts.Policy {
	return attempts.Policy{Tiers: []attempts.Tier{
		{Limit: c.LongLimit, Window: c.LongWindow},
		{Limit: c.ShortLimit, Window: c.ShortWindow},
	}}
}

// Routes builds the console router.
func (a *App) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(a.requestLogger, securityHeaders)

	r.HandleFunc("/healthz", a.healthzHandler).Methods(http.MethodGet)
	r.HandleFunc("/login", a.loginPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/login", a.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/logout", a.logoutHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/login/status", a.loginStatusHandler).Methods(http.MethodGet)

	r.Handle("/", a.guard.Wrap(a.homeHandler)).Methods(http.MethodGet)

	for _, p := range a.entityRoutes() {
		p.register(a, r)
	}

	r.Handle("/calendar", a.guard.Wrap(a.calendarHandler)).Methods(http.MethodGet)
	r.Handle("/calendar/checks", a.guard.Wrap(a.createCheckHandler, writeRoles...)).Methods(http.MethodPost)
	r.Handle("/calendar/checks/{id:[0-9]+}/delete", a.guard.Wrap(a.deleteCheckHandler, writeRoles...)).Methods(http.MethodPost)

	r.Handle("/tables/{table}/filters", a.guard.Wrap(a.filtersHandler)).Methods(http.MethodPost)
	r.Handle("/api/tables/{table}", a.guard.Wrap(a.tableAPIHandler)).Methods(http.MethodGet)
	r.Handle("/api/tables/{table}/filters", a.guard.Wrap(a.filtersAPIHandler)).Methods(http.MethodPost)

	// mux skips Use middleware when no route matches.
	r.NotFoundHandler = a.requestLogger(securityHeaders(http.HandlerFunc(a.notFoundHandler)))
	r.MethodNotAllowedHandler = a.requestLogger(securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.MethodNotAllowed(w)
	})))
	return r
}

// securityHeaders adds security headers to all responses
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Pages carry small inline scripts for dialogs and confirmations.
		csp := "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
		w.Header().Set("Content-Security-Policy", csp)

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an id and logs its outcome.
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		a.log.Debug("Request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
			"ip", getClientIP(r),
		)
	})
}
