// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/session"
	"github.com/SergeyMarcum/crm-app/pkg/table"
	"github.com/SergeyMarcum/crm-app/pkg/validation"
)

// bulkDeleteLimit caps concurrent backend deletes for one selection.
const bulkDeleteLimit = 4

type routeSet interface {
	register(a *App, r *mux.Router)
}

// entityPages is the list/detail/form screen set of one backend resource.
// T is the record, In the payload its forms submit.
type entityPages[T any, In any] struct {
	spec     tableSpec
	singular string
	write    auth.Roles

	resource func(*api.Client) api.Resource[T]
	id       func(T) int
	title    func(T) string
	toInput  func(T) In
	parse    func(*http.Request) In
	validate func(in In, creating bool) *validation.Validator
	fields   func(ctx context.Context, a *App, creds api.Credentials, in In, creating bool) ([]formField, error)

	// Optional.
	detail  func(ctx context.Context, a *App, u *auth.User, item T) (detailView, error)
	prefill func(*http.Request) In
}

func (p *entityPages[T, In]) register(a *App, r *mux.Router) {
	base := p.spec.Path
	read := p.spec.Roles
	g := a.guard

	r.Handle(base, g.Wrap(p.list(a), read...)).Methods(http.MethodGet)
	r.Handle(base, g.Wrap(p.create(a), p.write...)).Methods(http.MethodPost)
	r.Handle(base+"/new", g.Wrap(p.newForm(a), p.write...)).Methods(http.MethodGet)
	r.Handle(base+"/delete", g.Wrap(p.bulkDelete(a), p.write...)).Methods(http.MethodPost)
	r.Handle(base+"/{id:[0-9]+}", g.Wrap(p.show(a), read...)).Methods(http.MethodGet)
	r.Handle(base+"/{id:[0-9]+}", g.Wrap(p.update(a), p.write...)).Methods(http.MethodPost)
	r.Handle(base+"/{id:[0-9]+}/edit", g.Wrap(p.edit(a), p.write...)).Methods(http.MethodGet)
	r.Handle(base+"/{id:[0-9]+}/delete", g.Wrap(p.remove(a), p.write...)).Methods(http.MethodPost)
}

func (p *entityPages[T, In]) itemPath(id int) string {
	return p.spec.Path + "/" + strconv.Itoa(id)
}

func (p *entityPages[T, In]) list(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.MustGetCurrentUser(r)
		view, err := a.tableView(w, r, p.spec, user)
		if err != nil {
			a.fail(w, r, err, "/")
			return
		}

		lv := listView{
			Table:        view,
			Path:         p.spec.Path,
			FilterAction: "/tables/" + p.spec.Name + "/filters",
		}
		if p.write.Allows(user.Role()) {
			lv.NewHref = p.spec.Path + "/new"
			if view.Selectable {
				lv.Selectable = true
				lv.BulkAction = p.spec.Path + "/delete"
			}
		}
		a.render(w, r, http.StatusOK, "list.html", view.Title, lv)
	}
}

func (p *entityPages[T, In]) show(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			a.notFoundHandler(w, r)
			return
		}
		user := auth.MustGetCurrentUser(r)
		ctx := r.Context()

		item, err := getOne(ctx, &a.queries, p.spec.Name, p.resource(a.client), credsOf(user), id)
		if err != nil {
			a.fail(w, r, err, p.spec.Path)
			return
		}

		var view detailView
		if p.detail != nil {
			view, err = p.detail(ctx, a, user, item)
			if err != nil {
				a.fail(w, r, err, p.spec.Path)
				return
			}
		}
		view.BackHref = p.spec.Path
		if p.write.Allows(user.Role()) {
			view.Actions = append(view.Actions,
				action{Label: "Edit", Href: p.itemPath(id) + "/edit"},
				action{
					Label:   "Delete",
					Href:    p.itemPath(id) + "/delete",
					Post:    true,
					Danger:  true,
					Confirm: "Delete this " + p.singular + "?",
				},
			)
		}
		a.render(w, r, http.StatusOK, "detail.html", p.title(item), view)
	}
}

func (p *entityPages[T, In]) renderForm(a *App, w http.ResponseWriter, r *http.Request, status int, title string, form formView, in In, creating bool, errs map[string]string) {
	user := auth.MustGetCurrentUser(r)
	fields, err := p.fields(r.Context(), a, credsOf(user), in, creating)
	if err != nil {
		a.fail(w, r, err, p.spec.Path)
		return
	}
	form.Fields = withErrors(fields, errs)
	a.render(w, r, status, "form.html", title, form)
}

func (p *entityPages[T, In]) createForm() formView {
	return formView{Action: p.spec.Path, Submit: "Create", CancelHref: p.spec.Path}
}

func (p *entityPages[T, In]) editForm(id int) formView {
	return formView{Action: p.itemPath(id), Submit: "Save", CancelHref: p.itemPath(id)}
}

func (p *entityPages[T, In]) newForm(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if p.prefill != nil {
			in = p.prefill(r)
		}
		p.renderForm(a, w, r, http.StatusOK, "New "+p.singular, p.createForm(), in, true, nil)
	}
}

func (p *entityPages[T, In]) create(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := p.parse(r)
		title := "New " + p.singular

		if v := p.validate(in, true); v.HasErrors() {
			form := p.createForm()
			form.Error = "Please correct the highlighted fields."
			p.renderForm(a, w, r, http.StatusUnprocessableEntity, title, form, in, true, v.FieldErrors())
			return
		}

		user := auth.MustGetCurrentUser(r)
		creds := credsOf(user)
		item, err := p.resource(a.client).Create(r.Context(), creds, in)
		if err != nil {
			p.mutationFailed(a, w, r, err, title, p.createForm(), in, true)
			return
		}
		a.invalidate(p.spec.Name, creds)

		a.log.Success("Created "+p.singular, "by", user.Username, "id", p.id(item))
		a.toast(w, r, session.ToastSuccess, capitalize(p.singular)+" created.")
		target := p.spec.Path
		if id := p.id(item); id > 0 {
			target = p.itemPath(id)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func (p *entityPages[T, In]) edit(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			a.notFoundHandler(w, r)
			return
		}
		user := auth.MustGetCurrentUser(r)
		item, err := getOne(r.Context(), &a.queries, p.spec.Name, p.resource(a.client), credsOf(user), id)
		if err != nil {
			a.fail(w, r, err, p.spec.Path)
			return
		}
		p.renderForm(a, w, r, http.StatusOK, "Edit "+p.title(item), p.editForm(id), p.toInput(item), false, nil)
	}
}

func (p *entityPages[T, In]) update(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			a.notFoundHandler(w, r)
			return
		}
		in := p.parse(r)
		title := "Edit " + p.singular

		if v := p.validate(in, false); v.HasErrors() {
			form := p.editForm(id)
			form.Error = "Please correct the highlighted fields."
			p.renderForm(a, w, r, http.StatusUnprocessableEntity, title, form, in, false, v.FieldErrors())
			return
		}

		user := auth.MustGetCurrentUser(r)
		creds := credsOf(user)
		if _, err := p.resource(a.client).Update(r.Context(), creds, id, in); err != nil {
			p.mutationFailed(a, w, r, err, title, p.editForm(id), in, false)
			return
		}
		a.invalidate(p.spec.Name, creds)

		a.log.Success("Updated "+p.singular, "by", user.Username, "id", id)
		a.toast(w, r, session.ToastSuccess, capitalize(p.singular)+" saved.")
		http.Redirect(w, r, p.itemPath(id), http.StatusSeeOther)
	}
}

// mutationFailed keeps the submitted form on screen with the backend's
// complaint. Authorization failures end the session instead.
func (p *entityPages[T, In]) mutationFailed(a *App, w http.ResponseWriter, r *http.Request, err error, title string, form formView, in In, creating bool) {
	if errors.Is(err, api.ErrUnauthorized) {
		a.expireSession(w, r)
		return
	}
	a.log.Error("Failed to save "+p.singular, err)
	form.Error = backendMessage(err)
	p.renderForm(a, w, r, http.StatusBadGateway, title, form, in, creating, nil)
}

func (p *entityPages[T, In]) remove(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			a.notFoundHandler(w, r)
			return
		}
		user := auth.MustGetCurrentUser(r)
		creds := credsOf(user)
		if err := p.resource(a.client).Delete(r.Context(), creds, id); err != nil {
			a.fail(w, r, err, p.itemPath(id))
			return
		}
		a.invalidate(p.spec.Name, creds)

		a.log.Success("Deleted "+p.singular, "by", user.Username, "id", id)
		a.toast(w, r, session.ToastSuccess, capitalize(p.singular)+" deleted.")
		http.Redirect(w, r, p.spec.Path, http.StatusSeeOther)
	}
}

// bulkDelete deletes the selected rows concurrently. Every row is tried;
// the first failure is reported along with how many went.
func (p *entityPages[T, In]) bulkDelete(a *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			a.toast(w, r, session.ToastError, "Invalid selection.")
			http.Redirect(w, r, p.spec.Path, http.StatusSeeOther)
			return
		}
		ids := table.SelectedIDs(r.PostForm["ids"])
		if len(ids) == 0 {
			a.toast(w, r, session.ToastInfo, "Nothing selected.")
			http.Redirect(w, r, p.spec.Path, http.StatusSeeOther)
			return
		}

		user := auth.MustGetCurrentUser(r)
		creds := credsOf(user)
		res := p.resource(a.client)

		var deleted atomic.Int32
		var g errgroup.Group
		g.SetLimit(bulkDeleteLimit)
		ctx := r.Context()
		for _, id := range ids {
			g.Go(func() error {
				if err := res.Delete(ctx, creds, id); err != nil {
					return fmt.Errorf("delete %s %d: %w", p.singular, id, err)
				}
				deleted.Add(1)
				return nil
			})
		}
		err := g.Wait()
		if deleted.Load() > 0 {
			a.invalidate(p.spec.Name, creds)
		}

		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				a.expireSession(w, r)
				return
			}
			a.log.Error("Bulk delete failed", err, "by", user.Username)
			a.toast(w, r, session.ToastError, fmt.Sprintf("Deleted %d of %d. %s", deleted.Load(), len(ids), backendMessage(err)))
		} else {
			a.log.Success("Bulk deleted "+p.singular, "by", user.Username, "count", len(ids))
			a.toast(w, r, session.ToastSuccess, fmt.Sprintf("Deleted %d.", len(ids)))
		}
		http.Redirect(w, r, p.spec.Path, http.StatusSeeOther)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
