package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cafe-finder/internal/form"
    "github.com/iliyamo/cafe-finder/internal/model"
    "github.com/iliyamo/cafe-finder/internal/queue"
    "github.com/iliyamo/cafe-finder/internal/repository"
    "github.com/iliyamo/cafe-finder/internal/session"
    "github.com/iliyamo/cafe-finder/internal/view"
)

// CafeHandler serves the cafe pages.
type CafeHandler struct {
    Cafes  CafeStore
    Cities CityStore
    Events *Notifier
}

func NewCafeHandler(cafes CafeStore, cities CityStore, events *Notifier) *CafeHandler {
    return &CafeHandler{Cafes: cafes, Cities: cities, Events: events}
}

func (h *CafeHandler) List(c echo.Context) error {
    ctx, cancel := dbContext(c)
    defer cancel()
    cafes, err := h.Cafes.ListOrderedByName(ctx)
    if err != nil {
        return fmt.Errorf("list cafes: %w", err)
    }
    return render(c, view.CafeList, &view.Data{Cafes: cafes})
}

func (h *CafeHandler) Detail(c echo.Context) error {
    id, err := cafeID(c)
    if err != nil {
        return err
    }
    ctx, cancel := dbContext(c)
    defer cancel()

    cafe, err := h.loadCafe(c, id)
    if err != nil {
        return err
    }
    city, err := h.Cities.GetByCode(ctx, cafe.CityCode)
    if err != nil && !errors.Is(err, repository.ErrCityNotFound) {
        return fmt.Errorf("city %q for cafe %d: %w", cafe.CityCode, id, err)
    }
    return render(c, view.CafeDetail, &view.Data{Cafe: cafe, City: city})
}

func (h *CafeHandler) Add(c echo.Context) error {
    choices, err := h.cityChoices(c)
    if err != nil {
        return err
    }
    f := &form.Cafe{}
    if !isSubmit(c) {
        return render(c, view.CafeAdd, &view.Data{Form: f, Choices: choices})
    }
    if err := bindForm(c, f); err != nil {
        return err
    }
    errs := f.Validate(choices)
    if !errs.Valid() {
        return render(c, view.CafeAdd, &view.Data{Form: f, Errors: errs, Choices: choices})
    }

    cafe := &model.Cafe{}
    f.Apply(cafe)
    ctx, cancel := dbContext(c)
    defer cancel()
    if err := h.Cafes.Create(ctx, cafe); err != nil {
        if errors.Is(err, repository.ErrCityNotFound) {
            errs.Add("city_code", form.MsgChoice)
            return render(c, view.CafeAdd, &view.Data{Form: f, Errors: errs, Choices: choices})
        }
        return fmt.Errorf("create cafe: %w", err)
    }

    session.AddFlash(c, session.CategorySuccess, fmt.Sprintf("%s added.", cafe.Name))
    h.Events.publish(c, queue.ActivityEvent{Type: queue.EventCafeAdded, CafeID: cafe.ID, CafeName: cafe.Name, CityCode: cafe.CityCode})
    return c.Redirect(http.StatusFound, fmt.Sprintf("/cafes/%d", cafe.ID))
}

// Edit pre-fills the form from the stored row on GET and overwrites every
// editable column on a valid POST.
func (h *CafeHandler) Edit(c echo.Context) error {
    id, err := cafeID(c)
    if err != nil {
        return err
    }
    cafe, err := h.loadCafe(c, id)
    if err != nil {
        return err
    }
    choices, err := h.cityChoices(c)
    if err != nil {
        return err
    }

    f := form.CafeFromModel(cafe)
    if !isSubmit(c) {
        return render(c, view.CafeEdit, &view.Data{Form: &f, Cafe: cafe, Choices: choices})
    }
    f = form.Cafe{}
    if err := bindForm(c, &f); err != nil {
        return err
    }
    errs := f.Validate(choices)
    if !errs.Valid() {
        return render(c, view.CafeEdit, &view.Data{Form: &f, Errors: errs, Cafe: cafe, Choices: choices})
    }

    updated := &model.Cafe{ID: cafe.ID}
    f.Apply(updated)
    ctx, cancel := dbContext(c)
    defer cancel()
    switch err := h.Cafes.Update(ctx, updated); {
    case errors.Is(err, repository.ErrCafeNotFound):
        return echo.NewHTTPError(http.StatusNotFound, "Cafe not found.")
    case errors.Is(err, repository.ErrCityNotFound):
        errs.Add("city_code", form.MsgChoice)
        return render(c, view.CafeEdit, &view.Data{Form: &f, Errors: errs, Cafe: cafe, Choices: choices})
    case err != nil:
        return fmt.Errorf("update cafe %d: %w", id, err)
    }

    session.AddFlash(c, session.CategorySuccess, fmt.Sprintf("%s edited.", updated.Name))
    h.Events.publish(c, queue.ActivityEvent{Type: queue.EventCafeEdited, CafeID: updated.ID, CafeName: updated.Name, CityCode: updated.CityCode})
    return c.Redirect(http.StatusFound, fmt.Sprintf("/cafes/%d", id))
}

func (h *CafeHandler) loadCafe(c echo.Context, id int64) (*model.Cafe, error) {
    ctx, cancel := dbContext(c)
    defer cancel()
    cafe, err := h.Cafes.GetByID(ctx, id)
    if errors.Is(err, repository.ErrCafeNotFound) {
        return nil, echo.NewHTTPError(http.StatusNotFound, "Cafe not found.")
    }
    if err != nil {
        return nil, fmt.Errorf("get cafe %d: %w", id, err)
    }
    return cafe, nil
}

// cityChoices loads the select options fresh for every request.
func (h *CafeHandler) cityChoices(c echo.Context) ([]form.Choice, error) {
    ctx, cancel := dbContext(c)
    defer cancel()
    cities, err := h.Cities.ListOrderedByName(ctx)
    if err != nil {
        return nil, fmt.Errorf("list cities: %w", err)
    }
    return form.CityChoices(cities), nil
}
