// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/httputil"
	"github.com/SergeyMarcum/crm-app/pkg/session"
)

// render draws a page inside the base layout for the current user.
func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	p := page{Title: title, Data: data}
	if u, ok := auth.GetCurrentUser(r); ok {
		p.User = u
		p.Nav = navFor(u, r.URL.Path)
	}
	p.Toasts = a.sessions.PopToasts(w, r)

	if err := a.views.Render(w, status, name, true, p); err != nil {
		httputil.InternalServerError(w, "Could not render page", err)
	}
}

// toast queues a notification for the next page.
func (a *App) toast(w http.ResponseWriter, r *http.Request, kind, message string) {
	if err := a.sessions.AddToast(w, r, kind, message); err != nil {
		a.log.Error("Failed to store notification", err)
	}
}

// backendMessage is the user-facing text for a failed backend call.
func backendMessage(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrNotFound):
		return "The record no longer exists."
	case errors.Is(err, context.DeadlineExceeded):
		return "The backend did not respond in time."
	case errors.As(err, &apiErr):
		return "The backend rejected the request: " + apiErr.Message
	default:
		return "The backend is unavailable. Try again later."
	}
}

// fail reports a backend failure. An authorization failure ends the
// session; otherwise GET requests get an error page and form posts go back
// to back with a toast.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if errors.Is(err, api.ErrUnauthorized) {
		a.expireSession(w, r)
		return
	}

	status := http.StatusBadGateway
	if errors.Is(err, api.ErrNotFound) {
		status = http.StatusNotFound
	}
	a.log.Error("Backend request failed", err, "method", r.Method, "path", r.URL.Path)

	msg := backendMessage(err)
	switch {
	case httputil.IsAjaxRequest(r):
		httputil.WriteJSONError(w, msg, status)
	case r.Method == http.MethodGet:
		a.render(w, r, status, "error.html", "Something went wrong", errorView{Message: msg, BackHref: back})
	default:
		a.toast(w, r, session.ToastError, msg)
		http.Redirect(w, r, back, http.StatusSeeOther)
	}
}

// expireSession forgets credentials the backend no longer accepts and
// sends the user to sign in again.
func (a *App) expireSession(w http.ResponseWriter, r *http.Request) {
	a.forgetSession(w, r)
	if httputil.IsAjaxRequest(r) {
		httputil.Unauthorized(w, "Session expired")
		return
	}
	a.toast(w, r, session.ToastInfo, "Your session has expired. Please sign in again.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	if httputil.IsAjaxRequest(r) {
		httputil.WriteJSONError(w, "Not found", http.StatusNotFound)
		return
	}
	http.Error(w, "Not found", http.StatusNotFound)
}

func (a *App) healthzHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, map[string]string{"status": "ok", "version": getVersion()})
}

// pathID reads the {id} route variable.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil && id > 0
}

// formInt reads a positive integer form value, or 0.
func formInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.FormValue(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type dashboardCard struct {
	label string
	href  string
	count func(ctx context.Context, creds api.Credentials) (int, error)
}

func countOf[T any](list func(context.Context, api.Credentials) ([]T, error)) func(context.Context, api.Credentials) (int, error) {
	return func(ctx context.Context, creds api.Credentials) (int, error) {
		items, err := list(ctx, creds)
		return len(items), err
	}
}

// homeHandler is the landing page: a count per section the user may open.
func (a *App) homeHandler(w http.ResponseWriter, r *http.Request) {
	user := auth.MustGetCurrentUser(r)
	creds := credsOf(user)

	all := []dashboardCard{
		{label: "Users", href: "/users", count: countOf(a.users)},
		{label: "Objects", href: "/objects", count: countOf(a.objects)},
		{label: "Object types", href: "/object-types", count: countOf(a.objectTypes)},
		{label: "Tasks", href: "/tasks", count: countOf(a.tasks)},
		{label: "Non-compliance", href: "/non-compliance", count: countOf(a.nonCompliance)},
		{label: "Instructions", href: "/instructions", count: countOf(a.instructions)},
	}
	var cards []dashboardCard
	for _, c := range all {
		if canOpen(user, c.href) {
			cards = append(cards, c)
		}
	}

	view := homeView{Greeting: user.DisplayName(), Cards: make([]homeCard, len(cards))}
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(4)
	for i, c := range cards {
		view.Cards[i] = homeCard{Label: c.label, Href: c.href, Count: noValue}
		g.Go(func() error {
			n, err := c.count(ctx, creds)
			if errors.Is(err, api.ErrUnauthorized) {
				return err
			}
			if err != nil {
				a.log.Warning("Dashboard count failed", "section", c.label, "error", err.Error())
				return nil
			}
			view.Cards[i].Count = strconv.Itoa(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.fail(w, r, err, "/")
		return
	}

	a.render(w, r, http.StatusOK, "home.html", "Dashboard", view)
}
