package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cafe-finder/internal/model"
)

var cities = []model.City{
	{Code: "berk", Name: "Berkeley", State: "CA"},
	{Code: "sf", Name: "San Francisco", State: "CA"},
}

func TestSignupValidate(t *testing.T) {
	t.Run("valid and trimmed", func(t *testing.T) {
		f := Signup{Username: "  ana ", FirstName: "Ana", LastName: "Lee", Email: "ana@x.com", Password: " secret1"}
		assert.True(t, f.Validate().Valid())
		assert.Equal(t, "ana", f.Username)
		assert.Equal(t, " secret1", f.Password)
		assert.Equal(t, "ana", f.Profile().Username)
	})

	t.Run("every rule reports under the form field name", func(t *testing.T) {
		f := Signup{Username: "   ", Email: "nope", Password: "abc", ImageURL: "not a url"}
		errs := f.Validate()
		assert.Equal(t, []string{msgRequired}, errs.Get("username"))
		assert.Equal(t, []string{msgRequired}, errs.Get("first_name"))
		assert.Equal(t, []string{msgRequired}, errs.Get("last_name"))
		assert.Equal(t, []string{msgEmail}, errs.Get("email"))
		assert.Equal(t, []string{"Field must be at least 6 characters long."}, errs.Get("password"))
		assert.Equal(t, []string{msgURL}, errs.Get("image_url"))
		assert.Nil(t, errs.Get("description"))
	})
}

func TestLoginValidate(t *testing.T) {
	f := Login{Username: "ana"}
	errs := f.Validate()
	assert.False(t, errs.Valid())
	assert.Equal(t, []string{msgRequired}, errs.Get("password"))
	assert.Nil(t, errs.Get("username"))
}

func TestCafeValidate(t *testing.T) {
	choices := CityChoices(cities)
	assert.Equal(t, []Choice{{"berk", "Berkeley"}, {"sf", "San Francisco"}}, choices)

	t.Run("valid", func(t *testing.T) {
		f := Cafe{Name: " Bean ", Address: "1 Main St", CityCode: "sf", URL: "https://bean.example"}
		assert.True(t, f.Validate(choices).Valid())
		assert.Equal(t, "Bean", f.Name)
	})

	t.Run("unknown city", func(t *testing.T) {
		f := Cafe{Name: "Bean", Address: "1 Main St", CityCode: "zz"}
		assert.Equal(t, []string{MsgChoice}, f.Validate(choices).Get("city_code"))
	})

	t.Run("missing city is only required", func(t *testing.T) {
		f := Cafe{Name: "Bean", Address: "1 Main St"}
		assert.Equal(t, []string{msgRequired}, f.Validate(choices).Get("city_code"))
	})

	t.Run("bad urls", func(t *testing.T) {
		for _, bad := range []string{"bean", "javascript:alert(1)", "foo:bar", "mailto:x@y.com", "/static/images/default-cafe.jpg"} {
			f := Cafe{Name: "Bean", Address: "1 Main St", CityCode: "sf", URL: bad, ImageURL: bad}
			errs := f.Validate(choices)
			assert.Equal(t, []string{msgURL}, errs.Get("url"), bad)
			assert.Equal(t, []string{msgURL}, errs.Get("image_url"), bad)
		}
	})
}

func TestSignupRejectsNonHTTPImage(t *testing.T) {
	f := Signup{Username: "ana", FirstName: "Ana", LastName: "Lee", Email: "ana@x.com", Password: "secret1", ImageURL: "javascript:alert(1)"}
	assert.Equal(t, []string{msgURL}, f.Validate().Get("image_url"))
}

func TestCafeFromModelDropsDefaultImage(t *testing.T) {
	f := CafeFromModel(&model.Cafe{Name: "Bean", Address: "1 Main St", CityCode: "sf", ImageURL: model.DefaultCafeImage})
	assert.Empty(t, f.ImageURL)
	assert.True(t, f.Validate(CityChoices(cities)).Valid())

	f = CafeFromModel(&model.Cafe{ImageURL: "https://bean.example/pic.jpg"})
	assert.Equal(t, "https://bean.example/pic.jpg", f.ImageURL)
}

func TestCafeApplyRoundTrip(t *testing.T) {
	orig := &model.Cafe{ID: 3, Name: "Bean", Description: "d", URL: "u", Address: "a", CityCode: "sf", ImageURL: "i"}
	f := CafeFromModel(orig)
	f.Name = "Bean 2"

	var out model.Cafe
	out.ID = orig.ID
	f.Apply(&out)
	assert.Equal(t, "Bean 2", out.Name)
	assert.Equal(t, orig.CityCode, out.CityCode)
	assert.Equal(t, orig.ID, out.ID)
}
