// Package handler maps HTTP requests to store and auth operations and
// answers with a rendered page or a redirect.
package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-finder/internal/auth"
    "github.com/iliyamo/cafe-finder/internal/model"
)

// dbTimeout bounds every store call made while serving one request.
const dbTimeout = 5 * time.Second

// CafeStore is the cafe persistence the handlers use.
type CafeStore interface {
    ListOrderedByName(ctx context.Context) ([]model.Cafe, error)
    GetByID(ctx context.Context, id int64) (*model.Cafe, error)
    Create(ctx context.Context, c *model.Cafe) error
    Update(ctx context.Context, c *model.Cafe) error
}

// CityStore is the read-only city vocabulary.
type CityStore interface {
    ListOrderedByName(ctx context.Context) ([]model.City, error)
    GetByCode(ctx context.Context, code string) (*model.City, error)
}

// Authenticator registers and checks users.  *auth.Service implements it.
type Authenticator interface {
    Register(ctx context.Context, p auth.Profile, password string) (*model.User, error)
    Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func isSubmit(c echo.Context) bool {
    return c.Request().Method == http.MethodPost
}

// bindForm fills f from the urlencoded or multipart body only; query
// parameters never reach a form.
func bindForm(c echo.Context, f interface{}) error {
    if err := (&echo.DefaultBinder{}).BindBody(c, f); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.").SetInternal(err)
    }
    return nil
}

func render(c echo.Context, name string, data interface{}) error {
    return c.Render(http.StatusOK, name, data)
}

// cafeID parses the :id path parameter.  Anything that is not a positive
// integer cannot name a cafe, so it is a 404.
func cafeID(c echo.Context) (int64, error) {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id < 1 {
        return 0, echo.NewHTTPError(http.StatusNotFound, "Cafe not found.")
    }
    return id, nil
}
