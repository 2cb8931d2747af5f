package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cafe-finder/internal/auth"
	"github.com/iliyamo/cafe-finder/internal/config"
	"github.com/iliyamo/cafe-finder/internal/model"
	"github.com/iliyamo/cafe-finder/internal/queue"
	"github.com/iliyamo/cafe-finder/internal/repository/memstore"
	"github.com/iliyamo/cafe-finder/internal/router"
	"github.com/iliyamo/cafe-finder/internal/session"
)

const testSecret = "test-secret"

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type app struct {
	t       *testing.T
	e       *echo.Echo
	users   *memstore.Users
	cafes   *memstore.Cafes
	auth    *auth.Service
	pub     *recordingPublisher
	codec   *session.Codec
	cookies map[string]*http.Cookie
}

type options struct {
	csrf bool
	db   error
}

func newApp(t *testing.T, opts options) *app {
	t.Helper()
	cities := memstore.NewCities(
		model.City{Code: "berk", Name: "Berkeley", State: "CA"},
		model.City{Code: "oak", Name: "Oakland", State: "CA"},
		model.City{Code: "sf", Name: "San Francisco", State: "CA"},
	)
	users := memstore.NewUsers()
	svc := auth.NewService(users, bcrypt.MinCost)
	cafes := memstore.NewCafes(cities)
	pub := &recordingPublisher{}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e, err := router.New(router.Deps{
		Config: config.Config{
			Env:         "test",
			SecretKey:   testSecret,
			CSRFEnabled: opts.csrf,
			StaticDir:   t.TempDir(),
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Log:       logrus.NewEntry(logger),
		DB:        pinger{err: opts.db},
		Users:     users,
		Auth:      svc,
		Cafes:     cafes,
		Cities:    cities,
		Publisher: pub,
	})
	require.NoError(t, err)

	return &app{
		t: t, e: e, users: users, cafes: cafes, auth: svc, pub: pub,
		codec:   session.NewCodec(testSecret, 0, false),
		cookies: map[string]*http.Cookie{},
	}
}

// do sends a request carrying the cookies collected so far, like a browser.
func (a *app) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, ck := range a.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(a.cookies, ck.Name)
			continue
		}
		a.cookies[ck.Name] = ck
	}
	return rec
}

// session decodes the stored session cookie without consuming it.
func (a *app) session() *session.Session {
	ck, ok := a.cookies[session.CookieName]
	if !ok {
		return &session.Session{}
	}
	return a.codec.Decode(ck.Value)
}

func (a *app) loggedInAs() (int64, bool) { return a.session().UserID() }

func (a *app) flashes() []session.Flash { return a.session().PopFlashes() }

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, location, rec.Header().Get(echo.HeaderLocation))
}

func anaSignup() url.Values {
	return url.Values{
		"username":   {"ana"},
		"first_name": {"Ana"},
		"last_name":  {"Lee"},
		"email":      {"ana@x.com"},
		"password":   {"secret1"},
	}
}

func TestSignup(t *testing.T) {
	a := newApp(t, options{})

	rec := a.do(http.MethodPost, "/signup", anaSignup())
	assertRedirect(t, rec, "/cafes")

	id, ok := a.loggedInAs()
	require.True(t, ok)
	u, err := a.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, model.DefaultUserImage, u.ImageURL)
	assert.Equal(t, []session.Flash{{Category: session.CategoryMessage, Message: "You are signed up and logged in."}}, a.flashes())

	same, err := a.auth.Authenticate(context.Background(), "ana", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, same.ID)
	assert.Equal(t, []string{queue.EventUserSignedUp}, a.pub.types())

	t.Run("existing username re-renders the form", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/signup", anaSignup())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Username already taken")
		assert.Contains(t, rec.Body.String(), `value="ana"`)
		assert.Equal(t, 1, a.users.CountUsername("ana"))
		_, ok := a.loggedInAs()
		assert.False(t, ok, "signup logs out first")
		assert.Len(t, a.pub.types(), 1)
	})
}

func TestSignupValidationErrors(t *testing.T) {
	a := newApp(t, options{})

	form := anaSignup()
	form.Set("email", "not-an-email")
	form.Set("password", "abc")
	form.Set("first_name", "   ")
	rec := a.do(http.MethodPost, "/signup", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid email address.")
	assert.Contains(t, body, "Field must be at least 6 characters long.")
	assert.Contains(t, body, "This field is required.")
	assert.Equal(t, 0, a.users.CountUsername("ana"))
	assert.Empty(t, a.pub.types())
}

func TestSignupGetLogsOut(t *testing.T) {
	a := newApp(t, options{})
	assertRedirect(t, a.do(http.MethodPost, "/signup", anaSignup()), "/cafes")
	_, ok := a.loggedInAs()
	require.True(t, ok)

	rec := a.do(http.MethodGet, "/signup", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok = a.loggedInAs()
	assert.False(t, ok)
}

func TestLogin(t *testing.T) {
	a := newApp(t, options{})
	_, err := a.auth.Register(context.Background(), auth.Profile{Username: "ana", Email: "ana@x.com", FirstName: "Ana", LastName: "Lee"}, "secret1")
	require.NoError(t, err)

	t.Run("form", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/login", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="username"`)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"wrong1"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials.")
		_, ok := a.loggedInAs()
		assert.False(t, ok)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/login", url.Values{"username": {"bob"}, "password": {"secret1"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials.")
	})

	t.Run("missing password", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/login", url.Values{"username": {"ana"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "This field is required.")
		assert.NotContains(t, rec.Body.String(), "Invalid credentials.")
	})

	t.Run("success", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"secret1"}})
		assertRedirect(t, rec, "/cafes")
		_, ok := a.loggedInAs()
		assert.True(t, ok)
		assert.Equal(t, []session.Flash{{Category: session.CategorySuccess, Message: "Hello, ana!"}}, a.flashes())
	})
}

func TestHomepageRequiresLogin(t *testing.T) {
	a := newApp(t, options{})
	assertRedirect(t, a.do(http.MethodPost, "/signup", anaSignup()), "/cafes")

	rec := a.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back, Ana!")
	assert.Contains(t, rec.Body.String(), "You are signed up and logged in.")

	rec = a.do(http.MethodPost, "/logout", nil)
	assertRedirect(t, rec, "/")
	assert.Equal(t, []session.Flash{{Category: session.CategorySuccess, Message: "You have successfully logged out."}}, a.flashes())

	rec = a.do(http.MethodGet, "/", nil)
	assertRedirect(t, rec, "/login")

	rec = a.do(http.MethodGet, "/login", nil)
	body := rec.Body.String()
	assert.Contains(t, body, "You have successfully logged out.")
	assert.Contains(t, body, "You are not logged in.")

	rec = a.do(http.MethodGet, "/cafes", nil)
	assert.NotContains(t, rec.Body.String(), "You are not logged in.", "flashes show once")
}

func beanForm() url.Values {
	return url.Values{
		"name":        {"Bean"},
		"description": {"Good coffee"},
		"url":         {"https://bean.example"},
		"address":     {"1 Main St"},
		"city_code":   {"sf"},
	}
}

func TestAddCafe(t *testing.T) {
	a := newApp(t, options{})

	rec := a.do(http.MethodGet, "/cafes/add", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Index(body, "Berkeley") < strings.Index(body, "Oakland"))
	assert.True(t, strings.Index(body, "Oakland") < strings.Index(body, "San Francisco"))

	rec = a.do(http.MethodPost, "/cafes/add", beanForm())
	assertRedirect(t, rec, "/cafes/1")
	assert.Equal(t, []session.Flash{{Category: session.CategorySuccess, Message: "Bean added."}}, a.flashes())

	cafe, err := a.cafes.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bean", cafe.Name)
	assert.Equal(t, "Good coffee", cafe.Description)
	assert.Equal(t, "https://bean.example", cafe.URL)
	assert.Equal(t, "1 Main St", cafe.Address)
	assert.Equal(t, "sf", cafe.CityCode)
	assert.Equal(t, model.DefaultCafeImage, cafe.ImageURL)
	assert.Equal(t, []string{queue.EventCafeAdded}, a.pub.types())

	rec = a.do(http.MethodGet, "/cafes/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "San Francisco, CA")
	assert.Contains(t, rec.Body.String(), "Bean added.")

	rec = a.do(http.MethodGet, "/cafes", nil)
	assert.Contains(t, rec.Body.String(), `href="/cafes/1"`)
}

func TestAddCafeRejectsInvalidForm(t *testing.T) {
	a := newApp(t, options{})

	form := beanForm()
	form.Set("city_code", "zz")
	form.Set("address", "")
	rec := a.do(http.MethodPost, "/cafes/add", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not a valid choice.")
	assert.Contains(t, rec.Body.String(), "This field is required.")
	assert.Equal(t, 0, a.cafes.Len())
}

func TestEditCafe(t *testing.T) {
	a := newApp(t, options{})
	assertRedirect(t, a.do(http.MethodPost, "/cafes/add", beanForm()), "/cafes/1")

	rec := a.do(http.MethodGet, "/cafes/1/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Bean"`)
	assert.Contains(t, rec.Body.String(), `<option value="sf" selected>`)

	rec = a.do(http.MethodPost, "/cafes/1/edit", url.Values{
		"name":        {"Bean Two"},
		"description": {"Better coffee"},
		"url":         {"https://two.example"},
		"address":     {"2 Side St"},
		"city_code":   {"oak"},
		"image_url":   {"https://two.example/pic.jpg"},
	})
	assertRedirect(t, rec, "/cafes/1")
	assert.Equal(t, []session.Flash{{Category: session.CategorySuccess, Message: "Bean Two edited."}}, a.flashes())

	cafe, err := a.cafes.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.Cafe{
		ID:          1,
		Name:        "Bean Two",
		Description: "Better coffee",
		URL:         "https://two.example",
		Address:     "2 Side St",
		CityCode:    "oak",
		ImageURL:    "https://two.example/pic.jpg",
	}, *cafe)
	assert.Equal(t, []string{queue.EventCafeAdded, queue.EventCafeEdited}, a.pub.types())

	t.Run("invalid edit leaves the row alone", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/cafes/1/edit", url.Values{"name": {""}, "address": {"x"}, "city_code": {"sf"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "This field is required.")
		after, err := a.cafes.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Bean Two", after.Name)
	})
}

func TestEditCafeKeepsDefaultImage(t *testing.T) {
	a := newApp(t, options{})
	assertRedirect(t, a.do(http.MethodPost, "/cafes/add", beanForm()), "/cafes/1")

	rec := a.do(http.MethodGet, "/cafes/1/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `value="`+model.DefaultCafeImage+`"`)

	// Resubmit what the browser would send back, with only the name changed.
	form := beanForm()
	form.Set("name", "Bean Renamed")
	form.Set("image_url", "")
	assertRedirect(t, a.do(http.MethodPost, "/cafes/1/edit", form), "/cafes/1")

	cafe, err := a.cafes.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bean Renamed", cafe.Name)
	assert.Equal(t, model.DefaultCafeImage, cafe.ImageURL)
}

func TestMissingCafeIs404(t *testing.T) {
	a := newApp(t, options{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/cafes/99"},
		{http.MethodGet, "/cafes/abc"},
		{http.MethodGet, "/cafes/99/edit"},
		{http.MethodPost, "/cafes/99/edit"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var form url.Values
			if tc.method == http.MethodPost {
				form = beanForm()
			}
			rec := a.do(tc.method, tc.path, form)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "Cafe not found.")
		})
	}
	assert.Equal(t, 0, a.cafes.Len())
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	a := newApp(t, options{})
	a.pub.err = errors.New("broker down")

	assertRedirect(t, a.do(http.MethodPost, "/cafes/add", beanForm()), "/cafes/1")
	assert.Equal(t, 1, a.cafes.Len())
}

func TestHealthz(t *testing.T) {
	rec := newApp(t, options{}).do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = newApp(t, options{db: errors.New("down")}).do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCSRF(t *testing.T) {
	a := newApp(t, options{csrf: true})

	rec := a.do(http.MethodPost, "/cafes/add", beanForm())
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusForbidden}, rec.Code)
	assert.Equal(t, 0, a.cafes.Len())

	rec = a.do(http.MethodGet, "/cafes/add", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	csrf, ok := a.cookies["_csrf"]
	require.True(t, ok)
	assert.Contains(t, rec.Body.String(), `name="csrf_token" value="`+csrf.Value+`"`)

	form := beanForm()
	form.Set("csrf_token", csrf.Value)
	assertRedirect(t, a.do(http.MethodPost, "/cafes/add", form), "/cafes/1")
}
