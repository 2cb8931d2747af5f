package form

import "github.com/iliyamo/cafe-finder/internal/model"

// Choice is one option of a select input.
type Choice struct {
	Value string
	Label string
}

// CityChoices turns cities into (code, name) options in the given order.
func CityChoices(cities []model.City) []Choice {
	out := make([]Choice, 0, len(cities))
	for _, c := range cities {
		out = append(out, Choice{Value: c.Code, Label: c.Name})
	}
	return out
}

// Cafe is shared by the add and edit forms.
type Cafe struct {
	Name        string `form:"name" validate:"required"`
	Description string `form:"description"`
	URL         string `form:"url" validate:"omitempty,http_url"`
	Address     string `form:"address" validate:"required"`
	CityCode    string `form:"city_code" validate:"required"`
	ImageURL    string `form:"image_url" validate:"omitempty,http_url"`
}

// CafeFromModel pre-populates the edit form.  The stored default picture is
// a relative path, so it is left out and refilled on save.
func CafeFromModel(c *model.Cafe) Cafe {
	image := c.ImageURL
	if image == model.DefaultCafeImage {
		image = ""
	}
	return Cafe{
		Name:        c.Name,
		Description: c.Description,
		URL:         c.URL,
		Address:     c.Address,
		CityCode:    c.CityCode,
		ImageURL:    image,
	}
}

// Validate trims the fields, runs the tag rules and requires city_code to
// be one of choices.
func (f *Cafe) Validate(choices []Choice) Errors {
	trim(&f.Name, &f.Description, &f.URL, &f.Address, &f.CityCode, &f.ImageURL)
	errs := check(f)
	if f.CityCode != "" && !hasChoice(choices, f.CityCode) {
		errs.Add("city_code", MsgChoice)
	}
	return errs
}

// Apply copies every editable field onto c.
func (f *Cafe) Apply(c *model.Cafe) {
	c.Name = f.Name
	c.Description = f.Description
	c.URL = f.URL
	c.Address = f.Address
	c.CityCode = f.CityCode
	c.ImageURL = f.ImageURL
}

func hasChoice(choices []Choice, v string) bool {
	for _, c := range choices {
		if c.Value == v {
			return true
		}
	}
	return false
}
