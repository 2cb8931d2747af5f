// Package session keeps per-visitor state in a signed cookie: the id of the
// logged in user and the flash messages queued for the next page.
package session

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafe-finder/internal/model"
)

// Flash categories used by the handlers.
const (
	CategoryMessage = "message"
	CategorySuccess = "success"
	CategoryDanger  = "danger"
)

const contextKey = "session"

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the decoded cookie state for one request.  It is not safe for
// concurrent use; each request owns its own value.
type Session struct {
	userID  *int64
	flashes []Flash
	dirty   bool
}

// UserID returns the logged in user id, if any.
func (s *Session) UserID() (int64, bool) {
	if s.userID == nil {
		return 0, false
	}
	return *s.userID, true
}

func (s *Session) SetUser(id int64) {
	s.userID = &id
	s.dirty = true
}

// ClearUser drops the user id.  Without one it does nothing.
func (s *Session) ClearUser() {
	if s.userID == nil {
		return
	}
	s.userID = nil
	s.dirty = true
}

// AddFlash queues a message; an empty category becomes "message".
func (s *Session) AddFlash(category, message string) {
	if category == "" {
		category = CategoryMessage
	}
	s.flashes = append(s.flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns the queued messages and removes them.
func (s *Session) PopFlashes() []Flash {
	out := s.flashes
	if len(out) > 0 {
		s.flashes = nil
		s.dirty = true
	}
	return out
}

// Dirty reports whether the cookie must be rewritten.
func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) empty() bool { return s.userID == nil && len(s.flashes) == 0 }

// Set attaches s to the request context.
func Set(c echo.Context, s *Session) { c.Set(contextKey, s) }

// Get returns the request's session.  Outside the session middleware it
// hands back a fresh empty one so callers never see nil.
func Get(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok {
		return s
	}
	s := &Session{}
	Set(c, s)
	return s
}

// Login records u as the current user of the request's session.
func Login(c echo.Context, u *model.User) { Get(c).SetUser(u.ID) }

// Logout forgets the current user.
func Logout(c echo.Context) { Get(c).ClearUser() }

// AddFlash queues a flash on the request's session.
func AddFlash(c echo.Context, category, message string) { Get(c).AddFlash(category, message) }
