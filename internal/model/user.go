package model

// DefaultUserImage is stored when a user signs up without a picture.
const DefaultUserImage = "/static/images/default-pic.png"

// User represents an application user record as stored in the `users`
// table.  HashedPassword holds the bcrypt hash; the plaintext password is
// never kept anywhere.
type User struct {
    ID             int64  `db:"id"`              // users.id
    Username       string `db:"username"`        // users.username (unique)
    Admin          bool   `db:"admin"`           // users.admin
    Email          string `db:"email"`           // users.email
    FirstName      string `db:"first_name"`      // users.first_name
    LastName       string `db:"last_name"`       // users.last_name
    Description    string `db:"description"`     // users.description
    ImageURL       string `db:"image_url"`       // users.image_url
    HashedPassword string `db:"hashed_password"` // users.hashed_password
}

// FullName returns "first last".
func (u User) FullName() string {
    return u.FirstName + " " + u.LastName
}

// WithDefaults fills the columns that have an application-level default.
func (u *User) WithDefaults() {
    if u.ImageURL == "" {
        u.ImageURL = DefaultUserImage
    }
}
