package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-finder/internal/auth"
    "github.com/iliyamo/cafe-finder/internal/form"
    "github.com/iliyamo/cafe-finder/internal/middleware"
    "github.com/iliyamo/cafe-finder/internal/queue"
    "github.com/iliyamo/cafe-finder/internal/repository"
    "github.com/iliyamo/cafe-finder/internal/session"
    "github.com/iliyamo/cafe-finder/internal/view"
)

// AuthHandler serves signup, login and logout.
type AuthHandler struct {
    Auth   Authenticator
    Events *Notifier
}

func NewAuthHandler(a Authenticator, events *Notifier) *AuthHandler {
    return &AuthHandler{Auth: a, Events: events}
}

// Signup always starts by logging the visitor out, then shows the form or
// registers the submitted user and logs them in.
func (h *AuthHandler) Signup(c echo.Context) error {
    session.Logout(c)
    middleware.SetCurrentUser(c, nil)

    f := &form.Signup{}
    if !isSubmit(c) {
        return render(c, view.SignupForm, &view.Data{Form: f})
    }
    if err := bindForm(c, f); err != nil {
        return err
    }
    if errs := f.Validate(); !errs.Valid() {
        return render(c, view.SignupForm, &view.Data{Form: f, Errors: errs})
    }

    ctx, cancel := dbContext(c)
    defer cancel()
    u, err := h.Auth.Register(ctx, f.Profile(), f.Password)
    if errors.Is(err, repository.ErrUsernameTaken) {
        session.AddFlash(c, session.CategoryDanger, "Username already taken")
        return render(c, view.SignupForm, &view.Data{Form: f})
    }
    if err != nil {
        return fmt.Errorf("register %q: %w", f.Username, err)
    }

    session.Login(c, u)
    middleware.SetCurrentUser(c, u)
    session.AddFlash(c, session.CategoryMessage, "You are signed up and logged in.")
    h.Events.publish(c, queue.ActivityEvent{Type: queue.EventUserSignedUp, UserID: u.ID, Username: u.Username})
    return c.Redirect(http.StatusFound, "/cafes")
}

func (h *AuthHandler) Login(c echo.Context) error {
    f := &form.Login{}
    if !isSubmit(c) {
        return render(c, view.LoginForm, &view.Data{Form: f})
    }
    if err := bindForm(c, f); err != nil {
        return err
    }
    if errs := f.Validate(); !errs.Valid() {
        return render(c, view.LoginForm, &view.Data{Form: f, Errors: errs})
    }

    ctx, cancel := dbContext(c)
    defer cancel()
    u, err := h.Auth.Authenticate(ctx, f.Username, f.Password)
    if errors.Is(err, auth.ErrInvalidCredentials) {
        session.AddFlash(c, session.CategoryDanger, "Invalid credentials.")
        return render(c, view.LoginForm, &view.Data{Form: f})
    }
    if err != nil {
        return fmt.Errorf("authenticate %q: %w", f.Username, err)
    }

    session.Login(c, u)
    middleware.SetCurrentUser(c, u)
    session.AddFlash(c, session.CategorySuccess, fmt.Sprintf("Hello, %s!", u.Username))
    return c.Redirect(http.StatusFound, "/cafes")
}

func (h *AuthHandler) Logout(c echo.Context) error {
    session.Logout(c)
    middleware.SetCurrentUser(c, nil)
    session.AddFlash(c, session.CategorySuccess, "You have successfully logged out.")
    return c.Redirect(http.StatusFound, "/")
}

// Homepage is mounted behind middleware.RequireLogin.
func Homepage(c echo.Context) error {
    return render(c, view.Homepage, &view.Data{})
}
