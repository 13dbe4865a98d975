// Copyright (C) 2025 Joshua Goldstein

// Package session keeps the signed-in user's credentials in an encrypted,
// signed cookie and carries one-shot toast notifications between requests.
package session

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/SergeyMarcum/crm-app/pkg/logger"
)

const CookieName = "crm_session"

const (
	keyID       = "sid"
	keyDomain   = "domain"
	keyUsername = "username"
	keyToken    = "token"
	keyUserID   = "user_id"
	keyName     = "name"
	keyRoleID   = "role_id"
)

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// Toast is a transient notification shown once on the next page.
type Toast struct {
	Kind    string
	Message string
}

func init() {
	gob.Register(Toast{})
}

// Data is what the console remembers about a browser session.
type Data struct {
	ID       string
	Domain   string
	Username string
	Token    string
	UserID   int
	Name     string
	RoleID   int
}

// Authenticated reports whether credentials are present. It does not mean
// the backend still accepts them.
func (d Data) Authenticated() bool {
	return d.Domain != "" && d.Username != "" && d.Token != ""
}

// Options configure the session cookie.
type Options struct {
	Secret string
	Secure bool
	// MaxAge in seconds; zero makes a browser-session cookie.
	MaxAge int
}

// Store reads and writes session cookies.
type Store struct {
	cookies *sessions.CookieStore
	log     *logger.Logger
}

func NewStore(opts Options) (*Store, error) {
	hashKey, blockKey, err := DeriveKeys([]byte(opts.Secret))
	if err != nil {
		return nil, err
	}
	cs := sessions.NewCookieStore(hashKey, blockKey)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	cs.MaxAge(opts.MaxAge)
	return &Store{cookies: cs, log: logger.NewLogger("session")}, nil
}

// get returns the request's session. Cookies that fail to decode, for
// example after a secret rotation, yield a fresh session.
func (s *Store) get(r *http.Request) *sessions.Session {
	sess, err := s.cookies.Get(r, CookieName)
	if err != nil {
		s.log.Debug("Discarding undecodable session cookie", "error", err.Error())
	}
	return sess
}

// Load returns the session data of r.
func (s *Store) Load(r *http.Request) Data {
	v := s.get(r).Values
	return Data{
		ID:       stringValue(v[keyID]),
		Domain:   stringValue(v[keyDomain]),
		Username: stringValue(v[keyUsername]),
		Token:    stringValue(v[keyToken]),
		UserID:   intValue(v[keyUserID]),
		Name:     stringValue(v[keyName]),
		RoleID:   intValue(v[keyRoleID]),
	}
}

// Save writes d to the cookie, assigning a session id when d has none.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, d Data) (Data, error) {
	sess := s.get(r)
	if d.ID == "" {
		d.ID = stringValue(sess.Values[keyID])
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	sess.Values[keyID] = d.ID
	sess.Values[keyDomain] = d.Domain
	sess.Values[keyUsername] = d.Username
	sess.Values[keyToken] = d.Token
	sess.Values[keyUserID] = d.UserID
	sess.Values[keyName] = d.Name
	sess.Values[keyRoleID] = d.RoleID
	if err := sess.Save(r, w); err != nil {
		return d, fmt.Errorf("save session: %w", err)
	}
	return d, nil
}

// Clear drops the credentials but keeps the session id and pending toasts,
// so a "signed out" notice survives the redirect to the login page.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	for _, k := range []string{keyDomain, keyUsername, keyToken, keyUserID, keyName, keyRoleID} {
		delete(sess.Values, k)
	}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Destroy expires the cookie.
func (s *Store) Destroy(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// ID returns the stable id of the browser session, creating and saving one
// when missing.
func (s *Store) ID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := s.get(r)
	if id := stringValue(sess.Values[keyID]); id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[keyID] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session id: %w", err)
	}
	return id, nil
}

// AddToast queues a notification for the next rendered page.
func (s *Store) AddToast(w http.ResponseWriter, r *http.Request, kind, message string) error {
	sess := s.get(r)
	sess.AddFlash(Toast{Kind: kind, Message: message})
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save toast: %w", err)
	}
	return nil
}

// PopToasts returns and removes pending notifications.
func (s *Store) PopToasts(w http.ResponseWriter, r *http.Request) []Toast {
	sess := s.get(r)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	toasts := make([]Toast, 0, len(flashes))
	for _, f := range flashes {
		if t, ok := f.(Toast); ok {
			toasts = append(toasts, t)
		}
	}
	if err := sess.Save(r, w); err != nil {
		s.log.Error("Failed to save session after reading toasts", err)
	}
	return toasts
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func intValue(v interface{}) int {
	n, _ := v.(int)
	return n
}
