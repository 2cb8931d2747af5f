// Package router builds the echo instance: renderer, error handler, the
// global middleware chain and every route.
package router

import (
    "net"
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cafe-finder/internal/config"
    "github.com/iliyamo/cafe-finder/internal/handler"
    "github.com/iliyamo/cafe-finder/internal/metrics"
    "github.com/iliyamo/cafe-finder/internal/middleware"
    "github.com/iliyamo/cafe-finder/internal/queue"
    "github.com/iliyamo/cafe-finder/internal/session"
    "github.com/iliyamo/cafe-finder/internal/view"
)

// Deps are the collaborators the routes are wired to.  Redis may be nil.
type Deps struct {
    Config    config.Config
    RateLimit config.RateLimitConfig
    Log       *logrus.Entry
    Redis     *redis.Client
    DB        handler.Pinger
    Users     middleware.UserLoader
    Auth      handler.Authenticator
    Cafes     handler.CafeStore
    Cities    handler.CityStore
    Publisher queue.Publisher
}

// New returns a ready to start echo instance.
func New(d Deps) (*echo.Echo, error) {
    renderer, err := view.New()
    if err != nil {
        return nil, err
    }

    e := echo.New()
    e.HideBanner = true
    e.Renderer = renderer
    e.HTTPErrorHandler = handler.HTTPErrorHandler(d.Log)
    e.IPExtractor = ipExtractor(d.Config.TrustedProxies)

    codec := session.NewCodec(d.Config.SecretKey, d.Config.SessionTTL, d.Config.IsProd())
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
    e.Use(metrics.Middleware())
    e.Use(middleware.RequestLogger(d.Log))
    if d.Config.CSRFEnabled {
        e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
            Skipper:        skipOps,
            TokenLookup:    "form:csrf_token",
            CookieName:     "_csrf",
            CookiePath:     "/",
            CookieHTTPOnly: true,
            CookieSecure:   d.Config.IsProd(),
            CookieSameSite: http.SameSiteLaxMode,
        }))
    }
    e.Use(middleware.Sessions(codec, d.Users))

    e.Static("/static", d.Config.StaticDir)
    e.GET("/healthz", handler.Health(d.DB))
    e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

    events := &handler.Notifier{Publisher: d.Publisher, Log: d.Log}
    limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
    RegisterAuth(e, handler.NewAuthHandler(d.Auth, events), limit)
    RegisterCafes(e, handler.NewCafeHandler(d.Cafes, d.Cities, events))
    return e, nil
}

// ipExtractor decides what c.RealIP, and so the rate limit key, sees.
// X-Forwarded-For is only honoured when it arrives through a listed proxy.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
    if len(trusted) == 0 {
        return echo.ExtractIPDirect()
    }
    opts := []echo.TrustOption{
        echo.TrustLoopback(false),
        echo.TrustLinkLocal(false),
        echo.TrustPrivateNet(false),
    }
    for _, n := range trusted {
        opts = append(opts, echo.TrustIPRange(n))
    }
    return echo.ExtractIPFromXFFHeader(opts...)
}

// skipOps keeps probes and scrapes out of the CSRF cookie dance.
func skipOps(c echo.Context) bool {
    switch c.Path() {
    case "/healthz", "/metrics":
        return true
    }
    return false
}

// RegisterAuth mounts signup, login, logout and the members-only homepage.
// limit guards the credential forms.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
    e.Match([]string{http.MethodGet, http.MethodPost}, "/signup", a.Signup, limit)
    e.Match([]string{http.MethodGet, http.MethodPost}, "/login", a.Login, limit)
    e.POST("/logout", a.Logout)
    e.GET("/", handler.Homepage, middleware.RequireLogin("/login"))
}

// RegisterCafes mounts the cafe pages.  They are open to anonymous
// visitors, adding and editing included.
func RegisterCafes(e *echo.Echo, h *handler.CafeHandler) {
    e.GET("/cafes", h.List)
    e.Match([]string{http.MethodGet, http.MethodPost}, "/cafes/add", h.Add)
    e.GET("/cafes/:id", h.Detail)
    e.Match([]string{http.MethodGet, http.MethodPost}, "/cafes/:id/edit", h.Edit)
}
