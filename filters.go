// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/httputil"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
	"github.com/SergeyMarcum/crm-app/pkg/session"
	"github.com/SergeyMarcum/crm-app/pkg/table"
)

// filterFieldPrefix prefixes filter inputs in the filter dialog form.
const filterFieldPrefix = "filter_"

func viewOptions(r *http.Request) table.Options {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	return table.Options{Page: page, Sort: q.Get("sort"), Desc: q.Get("desc") == "1"}
}

// filterKey scopes a table's filter store to the browser session.
func (a *App) filterKey(w http.ResponseWriter, r *http.Request, name string) (string, error) {
	id, err := a.sessions.ID(w, r)
	if err != nil {
		return "", err
	}
	return table.Key(id, name), nil
}

func (a *App) appliedFilters(w http.ResponseWriter, r *http.Request, name string) map[string]string {
	key, err := a.filterKey(w, r, name)
	if err != nil {
		a.log.Error("Failed to resolve filter scope", err)
		return nil
	}
	return a.filters.Applied(key)
}

// tableView loads the table's rows for u and renders them with the session's
// applied filters.
func (a *App) tableView(w http.ResponseWriter, r *http.Request, spec tableSpec, u *auth.User) (table.View, error) {
	rows, err := spec.Load(r.Context(), &a.queries, credsOf(u))
	if err != nil {
		return table.View{}, err
	}
	applied := a.appliedFilters(w, r, spec.Name)
	return spec.Def(u, a.cfg.Table.PageSize).Render(rows, applied, viewOptions(r)), nil
}

// allowedTable resolves the {table} route variable for the current user.
func allowedTable(w http.ResponseWriter, r *http.Request) (tableSpec, *auth.User, bool) {
	user := auth.MustGetCurrentUser(r)
	spec, ok := lookupTable(mux.Vars(r)["table"])
	if !ok {
		if httputil.IsAjaxRequest(r) {
			httputil.WriteJSONError(w, "Unknown table", http.StatusNotFound)
		} else {
			httputil.NotFound(w, "Unknown table")
		}
		return tableSpec{}, nil, false
	}
	if !spec.Roles.Allows(user.Role()) {
		logger.Security("table_forbidden", map[string]interface{}{
			"table": spec.Name, "user": user.Username, "role": user.RoleID,
		})
		if httputil.IsAjaxRequest(r) {
			httputil.WriteJSONError(w, "Insufficient role", http.StatusForbidden)
		} else {
			http.Redirect(w, r, "/", http.StatusSeeOther)
		}
		return tableSpec{}, nil, false
	}
	return spec, user, true
}

// filtersHandler applies or clears the filter dialog of a table. Typed
// values stay a draft until this submit applies them. Without an explicit
// return path the browser goes back to the page it came from.
func (a *App) filtersHandler(w http.ResponseWriter, r *http.Request) {
	spec, user, ok := allowedTable(w, r)
	if !ok {
		return
	}

	key, err := a.filterKey(w, r, spec.Name)
	if err != nil {
		httputil.InternalServerError(w, "", err)
		return
	}
	store := a.filters.Store(key)

	switch r.FormValue("action") {
	case "clear":
		store.Clear()
		a.toast(w, r, session.ToastInfo, "Filters cleared.")
	default:
		def := spec.Def(user, 0)
		typed := make(map[string]string, len(def.Filters))
		for _, f := range def.Filters {
			typed[f.Field] = r.FormValue(filterFieldPrefix + f.Field)
		}
		clean := def.Sanitize(typed)
		for _, f := range def.Filters {
			store.SetDraft(f.Field, clean[f.Field])
		}
		store.Apply()
		if store.Active() {
			a.toast(w, r, session.ToastInfo, "Filters applied.")
		}
	}

	if next := r.FormValue("return"); next != "" {
		http.Redirect(w, r, auth.SafeNext(next, spec.Path), http.StatusSeeOther)
		return
	}
	httputil.RedirectBack(w, r, spec.Path)
}

// filtersAPIHandler is the JSON form of filtersHandler. Filters are applied
// immediately; the response carries the applied set.
func (a *App) filtersAPIHandler(w http.ResponseWriter, r *http.Request) {
	spec, user, ok := allowedTable(w, r)
	if !ok {
		return
	}
	var req api.FilterRequest
	if !api.DecodeRequest(w, r, &req, "table filters") {
		return
	}

	key, err := a.filterKey(w, r, spec.Name)
	if err != nil {
		api.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if req.Clear {
		a.filters.Reset(key)
		api.WriteSuccessResponse(w, "Filters cleared", map[string]string{})
		return
	}
	applied := a.filters.Store(key).Replace(spec.Def(user, 0).Sanitize(req.Filters))
	api.WriteSuccessResponse(w, "Filters applied", applied)
}

// tableAPIHandler returns a table's filtered rows as JSON. Query
// parameters named after filter fields override the stored filters.
func (a *App) tableAPIHandler(w http.ResponseWriter, r *http.Request) {
	spec, user, ok := allowedTable(w, r)
	if !ok {
		return
	}

	rows, err := spec.Load(r.Context(), &a.queries, credsOf(user))
	if err != nil {
		a.fail(w, r, err, spec.Path)
		return
	}

	def := spec.Def(user, 0)
	applied := a.appliedFilters(w, r, spec.Name)
	if override := def.Sanitize(queryValues(r)); len(override) > 0 {
		applied = override
	}

	visible := def.Visible(rows, applied, viewOptions(r))
	out := make([]map[string]string, 0, len(visible))
	for _, row := range visible {
		out = append(out, row)
	}
	if applied == nil {
		applied = map[string]string{}
	}
	httputil.WriteJSON(w, api.TableResponse{
		Table:   spec.Name,
		Total:   len(rows),
		Visible: len(visible),
		Filters: applied,
		Rows:    out,
	})
}

func queryValues(r *http.Request) map[string]string {
	q := r.URL.Query()
	out := make(map[string]string, len(q))
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}
