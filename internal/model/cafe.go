package model

// DefaultCafeImage is stored when a cafe is saved without an image URL.
const DefaultCafeImage = "/static/images/default-cafe.jpg"

// Cafe represents a row in the `cafes` table.  Every cafe belongs to exactly
// one city through CityCode.
//
// Fields:
//  ID          – primary key identifier, generated by the store.
//  Name        – display name.
//  Description – free text, may be empty.
//  URL         – website, may be empty.
//  Address     – street address.
//  CityCode    – foreign key into cities.code.
//  ImageURL    – picture; DefaultCafeImage when none was given.
type Cafe struct {
    ID          int64  `db:"id"`
    Name        string `db:"name"`
    Description string `db:"description"`
    URL         string `db:"url"`
    Address     string `db:"address"`
    CityCode    string `db:"city_code"`
    ImageURL    string `db:"image_url"`
}

// WithDefaults fills the columns that have an application-level default.
func (c *Cafe) WithDefaults() {
    if c.ImageURL == "" {
        c.ImageURL = DefaultCafeImage
    }
}
