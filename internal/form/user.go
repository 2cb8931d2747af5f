package form

import "github.com/iliyamo/cafe-finder/internal/auth"

// Signup is the registration form.
type Signup struct {
	Username    string `form:"username" validate:"required"`
	FirstName   string `form:"first_name" validate:"required"`
	LastName    string `form:"last_name" validate:"required"`
	Description string `form:"description"`
	Email       string `form:"email" validate:"required,email"`
	Password    string `form:"password" validate:"required,min=6"`
	ImageURL    string `form:"image_url" validate:"omitempty,http_url"`
}

// Validate trims the text fields and checks the form.  The password is
// taken as typed.
func (f *Signup) Validate() Errors {
	trim(&f.Username, &f.FirstName, &f.LastName, &f.Description, &f.Email, &f.ImageURL)
	return check(f)
}

func (f *Signup) Profile() auth.Profile {
	return auth.Profile{
		Username:    f.Username,
		Email:       f.Email,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Description: f.Description,
		ImageURL:    f.ImageURL,
	}
}

type Login struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *Login) Validate() Errors {
	trim(&f.Username)
	return check(f)
}
