// Copyright (C) 2025 Joshua Goldstein

package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Options{Secret: testSecret, MaxAge: 3600})
	require.NoError(t, err)
	return s
}

// followUp builds a request carrying the cookies set on rr. When a cookie
// was written several times the browser keeps the last one.
func followUp(rr *httptest.ResponseRecorder) *http.Request {
	last := map[string]*http.Cookie{}
	var order []string
	for _, c := range rr.Result().Cookies() {
		if _, seen := last[c.Name]; !seen {
			order = append(order, c.Name)
		}
		last[c.Name] = c
	}
	req := httptest.NewRequest("GET", "/", nil)
	for _, name := range order {
		req.AddCookie(last[name])
	}
	return req
}

func TestDeriveKeys(t *testing.T) {
	hashKey, blockKey, err := DeriveKeys([]byte(testSecret))
	require.NoError(t, err)
	assert.Len(t, hashKey, 64)
	assert.Len(t, blockKey, 32)
	assert.NotEqual(t, hashKey[:32], blockKey)

	again, _, err := DeriveKeys([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, hashKey, again, "derivation is deterministic")

	_, _, err = DeriveKeys([]byte("short"))
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestNewStoreRejectsWeakSecret(t *testing.T) {
	_, err := NewStore(Options{Secret: ""})
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	rr := httptest.NewRecorder()
	saved, err := s.Save(rr, httptest.NewRequest("POST", "/login", nil), Data{
		Domain: "acme", Username: "ivan", Token: "secret-token-value", UserID: 4, Name: "Ivan Petrov", RoleID: 2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	cookie := rr.Result().Cookies()[0]
	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.NotContains(t, cookie.Value, "secret-token-value", "cookie content is encrypted")

	got := s.Load(followUp(rr))
	assert.Equal(t, saved, got)
	assert.True(t, got.Authenticated())
}

func TestLoadWithoutCookie(t *testing.T) {
	s := newTestStore(t)
	d := s.Load(httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, Data{}, d)
	assert.False(t, d.Authenticated())
}

func TestLoadTamperedCookie(t *testing.T) {
	s := newTestStore(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	assert.Equal(t, Data{}, s.Load(req))
}

func TestCookieFromOtherSecretIsIgnored(t *testing.T) {
	s := newTestStore(t)
	rr := httptest.NewRecorder()
	_, err := s.Save(rr, httptest.NewRequest("GET", "/", nil), Data{Domain: "acme", Username: "ivan", Token: "tok"})
	require.NoError(t, err)

	other, err := NewStore(Options{Secret: strings.Repeat("z", 32)})
	require.NoError(t, err)
	assert.False(t, other.Load(followUp(rr)).Authenticated())
}

func TestClearKeepsIDAndToasts(t *testing.T) {
	s := newTestStore(t)

	rr := httptest.NewRecorder()
	saved, err := s.Save(rr, httptest.NewRequest("GET", "/", nil), Data{Domain: "acme", Username: "ivan", Token: "tok"})
	require.NoError(t, err)

	req := followUp(rr)
	rr = httptest.NewRecorder()
	require.NoError(t, s.AddToast(rr, req, ToastInfo, "Signed out"))
	require.NoError(t, s.Clear(rr, req))

	next := followUp(rr)
	d := s.Load(next)
	assert.False(t, d.Authenticated())
	assert.Equal(t, saved.ID, d.ID)
	assert.Equal(t, []Toast{{Kind: ToastInfo, Message: "Signed out"}}, s.PopToasts(httptest.NewRecorder(), next))
}

func TestIDIsStable(t *testing.T) {
	s := newTestStore(t)

	rr := httptest.NewRecorder()
	id, err := s.ID(rr, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := s.ID(httptest.NewRecorder(), followUp(rr))
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestToastsAreShownOnce(t *testing.T) {
	s := newTestStore(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/users", nil)
	require.NoError(t, s.AddToast(rr, req, ToastSuccess, "User created"))
	require.NoError(t, s.AddToast(rr, req, ToastError, "Mail not sent"))

	rr2 := httptest.NewRecorder()
	toasts := s.PopToasts(rr2, followUp(rr))
	assert.Equal(t, []Toast{
		{Kind: ToastSuccess, Message: "User created"},
		{Kind: ToastError, Message: "Mail not sent"},
	}, toasts)

	assert.Empty(t, s.PopToasts(httptest.NewRecorder(), followUp(rr2)))
}

func TestDestroyExpiresCookie(t *testing.T) {
	s := newTestStore(t)
	rr := httptest.NewRecorder()
	require.NoError(t, s.Destroy(rr, httptest.NewRequest("GET", "/", nil)))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}
