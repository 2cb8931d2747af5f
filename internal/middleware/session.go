package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-finder/internal/model"
    "github.com/iliyamo/cafe-finder/internal/repository"
    "github.com/iliyamo/cafe-finder/internal/session"
)

const currentUserKey = "current_user"

// UserLoader resolves the id stored in the session.
type UserLoader interface {
    GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Sessions decodes the session cookie, resolves the current user once for
// the request and rewrites the cookie just before the response header goes
// out if anything in the session changed.
func Sessions(codec *session.Codec, users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            s := codec.Load(c.Request())
            session.Set(c, s)

            c.Response().Before(func() {
                if !s.Dirty() {
                    return
                }
                ck, err := codec.Cookie(s)
                if err != nil {
                    c.Logger().Errorf("session cookie: %v", err)
                    return
                }
                http.SetCookie(c.Response(), ck)
            })

            if id, ok := s.UserID(); ok {
                ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
                u, err := users.GetByID(ctx, id)
                cancel()
                switch {
                case errors.Is(err, repository.ErrUserNotFound):
                    s.ClearUser() // stale id
                case err != nil:
                    return err
                default:
                    c.Set(currentUserKey, u)
                }
            }
            return next(c)
        }
    }
}

// CurrentUser returns the logged in user or nil.
func CurrentUser(c echo.Context) *model.User {
    u, _ := c.Get(currentUserKey).(*model.User)
    return u
}

// SetCurrentUser updates the request's user after a login or logout so the
// page rendered in the same request sees it.
func SetCurrentUser(c echo.Context, u *model.User) {
    c.Set(currentUserKey, u)
}

// currentUserID is the rate limit identity: the user id or "anon".
func currentUserID(c echo.Context) string {
    if u := CurrentUser(c); u != nil {
        return strconv.FormatInt(u.ID, 10)
    }
    return "anon"
}
