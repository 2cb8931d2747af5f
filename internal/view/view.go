// Package view renders the HTML pages.  Every page is parsed together with
// the shared layout from templates embedded in the binary.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cafe-finder/internal/form"
	"github.com/iliyamo/cafe-finder/internal/middleware"
	"github.com/iliyamo/cafe-finder/internal/model"
	"github.com/iliyamo/cafe-finder/internal/session"
)

//go:embed templates
var templateFiles embed.FS

const layoutFile = "layout.html"

// Page names used by the handlers.
const (
	SignupForm = "auth/signup-form.html"
	LoginForm  = "auth/login-form.html"
	Homepage   = "homepage.html"
	CafeList   = "cafe/list.html"
	CafeDetail = "cafe/detail.html"
	CafeAdd    = "cafe/add-form.html"
	CafeEdit   = "cafe/edit-form.html"
	ErrorPage  = "error.html"
)

// Data is what every page template receives.  Render fills the per-request
// fields (User, Flashes, CSRF); handlers set the rest.
type Data struct {
	User    *model.User
	Flashes []session.Flash
	CSRF    string

	Form    interface{}
	Errors  form.Errors
	Choices []form.Choice

	Cafes []model.Cafe
	Cafe  *model.Cafe
	City  *model.City

	Status  int
	Message string
}

// Renderer implements echo.Renderer.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page under templates/ against the layout.
func New() (*Renderer, error) {
	root, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	err = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == layoutFile || path.Ext(p) != ".html" {
			return err
		}
		t, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(root, layoutFile, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[p] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

var funcs = template.FuncMap{
	"selected": func(a, b string) bool { return a == b },
}

// Render executes page name.  Flashes are consumed here, so they show on
// exactly one rendered page.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view %q not found", name)
	}
	d, ok := data.(*Data)
	if !ok {
		d = &Data{}
	}
	d.User = middleware.CurrentUser(c)
	d.Flashes = session.Get(c).PopFlashes()
	if tok, ok := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string); ok {
		d.CSRF = tok
	}
	return t.ExecuteTemplate(w, "layout", d)
}
