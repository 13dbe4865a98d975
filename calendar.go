// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/session"
	"github.com/SergeyMarcum/crm-app/pkg/validation"
)

const monthLayout = "2006-01"

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type calendarCheck struct {
	ID     int
	Title  string
	Status string
	Href   string
}

type calendarDay struct {
	Day     int
	InMonth bool
	Today   bool
	Checks  []calendarCheck
}

type calendarView struct {
	Month      string
	MonthLabel string
	Weekdays   []string
	Weeks      [][]calendarDay
	PrevHref   string
	PrevLabel  string
	NextHref   string
	NextLabel  string
	CanEdit    bool
	Form       *formView
}

// monthOf parses ?month=YYYY-MM, defaulting to the month of now.
func monthOf(value string, now time.Time) time.Time {
	if m, err := time.ParseInLocation(monthLayout, value, now.Location()); err == nil {
		return m
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// gridRange returns the Monday on or before the first of month and the
// Sunday on or after its last day.
func gridRange(month time.Time) (time.Time, time.Time) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -((int(first.Weekday()) + 6) % 7))
	end := last.AddDate(0, 0, (7-int(last.Weekday()))%7)
	return start, end
}

func calendarHref(month time.Time) string {
	return "/calendar?month=" + month.Format(monthLayout)
}

// checkHref links a check to its task, or to its object for users who may
// open objects.
func checkHref(u *auth.User, c api.Check) string {
	if c.TaskID > 0 {
		return "/tasks/" + strconv.Itoa(c.TaskID)
	}
	if c.ObjectID > 0 && canOpen(u, "/objects") {
		return "/objects/" + strconv.Itoa(c.ObjectID)
	}
	return ""
}

// buildWeeks lays checks out on a Monday-first month grid.
func buildWeeks(u *auth.User, month, today time.Time, checks []api.Check) [][]calendarDay {
	byDate := make(map[string][]calendarCheck)
	for _, c := range checks {
		d := dateOnly(c.Date)
		byDate[d] = append(byDate[d], calendarCheck{ID: c.ID, Title: c.Title, Status: c.Status, Href: checkHref(u, c)})
	}

	start, end := gridRange(month)
	var weeks [][]calendarDay
	for day := start; !day.After(end); day = day.AddDate(0, 0, 7) {
		week := make([]calendarDay, 7)
		for i := range week {
			d := day.AddDate(0, 0, i)
			week[i] = calendarDay{
				Day:     d.Day(),
				InMonth: d.Month() == month.Month(),
				Today:   d.Year() == today.Year() && d.YearDay() == today.YearDay(),
				Checks:  byDate[d.Format(validation.DateLayout)],
			}
		}
		weeks = append(weeks, week)
	}
	return weeks
}

func checkFields(objects []api.Object, tasks []api.Task, in api.CheckInput) []formField {
	return []formField{
		{Name: "title", Label: "Title", Type: "text", Value: in.Title, Required: true},
		{Name: "date", Label: "Date", Type: "date", Value: in.Date, Required: true},
		{Name: "object_id", Label: "Object", Type: "select", Required: true,
			Options: selectOptions(objects, func(o api.Object) int { return o.ID }, func(o api.Object) string { return o.Name }, in.ObjectID)},
		{Name: "task_id", Label: "Task", Type: "select", Help: "Optional.",
			Options: selectOptions(tasks, func(t api.Task) int { return t.ID }, func(t api.Task) string {
				return "#" + strconv.Itoa(t.ID) + " " + t.ObjectName
			}, in.TaskID)},
		{Name: "status", Label: "Status", Type: "select", Options: codeOptions(api.CheckStatuses, in.Status), Required: true},
	}
}

// renderCalendar draws month with the scheduling form for users who may
// edit checks.
func (a *App) renderCalendar(w http.ResponseWriter, r *http.Request, status int, month time.Time, in api.CheckInput, formErr string, errs map[string]string) {
	user := auth.MustGetCurrentUser(r)
	creds := credsOf(user)
	canEdit := writeRoles.Allows(user.Role())
	start, end := gridRange(month)

	var (
		checks  []api.Check
		objects []api.Object
		tasks   []api.Task
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		checks, err = a.checksBetween(ctx, creds, start.Format(validation.DateLayout), end.Format(validation.DateLayout))
		return err
	})
	if canEdit {
		g.Go(func() (err error) {
			objects, err = a.objects(ctx, creds)
			return reference(err, entityObjects)
		})
		g.Go(func() (err error) {
			tasks, err = a.tasks(ctx, creds)
			return reference(err, entityTasks)
		})
	}
	if err := g.Wait(); err != nil {
		a.fail(w, r, err, "/")
		return
	}

	prev, next := month.AddDate(0, -1, 0), month.AddDate(0, 1, 0)
	view := calendarView{
		Month:      month.Format(monthLayout),
		MonthLabel: month.Format("January 2006"),
		Weekdays:   weekdays,
		Weeks:      buildWeeks(user, month, a.now(), checks),
		PrevHref:   calendarHref(prev),
		PrevLabel:  prev.Format("January"),
		NextHref:   calendarHref(next),
		NextLabel:  next.Format("January"),
		CanEdit:    canEdit,
	}
	if canEdit {
		view.Form = &formView{
			Action:     "/calendar/checks",
			Fields:     withErrors(checkFields(objects, tasks, in), errs),
			Submit:     "Schedule",
			CancelHref: calendarHref(month),
			Error:      formErr,
		}
	}
	a.render(w, r, status, "calendar.html", "Calendar", view)
}

func (a *App) calendarHandler(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	month := monthOf(r.URL.Query().Get("month"), now)

	in := api.CheckInput{Status: "planned", Date: r.URL.Query().Get("date")}
	if in.Date == "" {
		in.Date = month.Format(validation.DateLayout)
		if month.Year() == now.Year() && month.Month() == now.Month() {
			in.Date = now.Format(validation.DateLayout)
		}
	}
	a.renderCalendar(w, r, http.StatusOK, month, in, "", nil)
}

func (a *App) createCheckHandler(w http.ResponseWriter, r *http.Request) {
	in := api.CheckInput{
		ObjectID: formInt(r, "object_id"),
		TaskID:   formInt(r, "task_id"),
		Title:    formText(r, "title"),
		Date:     formText(r, "date"),
		Status:   formText(r, "status"),
	}
	month := monthOf(in.Date, a.now())
	if t, err := time.Parse(validation.DateLayout, in.Date); err == nil {
		month = monthOf(t.Format(monthLayout), a.now())
	}

	if v := validation.ValidateCheck(in); v.HasErrors() {
		a.renderCalendar(w, r, http.StatusUnprocessableEntity, month, in, "Please correct the highlighted fields.", v.FieldErrors())
		return
	}

	user := auth.MustGetCurrentUser(r)
	creds := credsOf(user)
	created, err := a.client.Checks().Create(r.Context(), creds, in)
	if err != nil {
		a.fail(w, r, err, calendarHref(month))
		return
	}
	a.invalidate(entityChecks, creds)

	a.log.Success("Scheduled check", "by", user.Username, "id", created.ID, "date", in.Date)
	a.toast(w, r, session.ToastSuccess, "Check scheduled.")
	http.Redirect(w, r, calendarHref(month), http.StatusSeeOther)
}

func (a *App) deleteCheckHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.notFoundHandler(w, r)
		return
	}
	back := "/calendar"
	if m := r.FormValue("month"); m != "" {
		back += "?" + url.Values{"month": {m}}.Encode()
	}

	user := auth.MustGetCurrentUser(r)
	creds := credsOf(user)
	if err := a.client.Checks().Delete(r.Context(), creds, id); err != nil {
		a.fail(w, r, err, back)
		return
	}
	a.invalidate(entityChecks, creds)

	a.log.Success("Deleted check", "by", user.Username, "id", id)
	a.toast(w, r, session.ToastSuccess, "Check deleted.")
	http.Redirect(w, r, back, http.StatusSeeOther)
}
