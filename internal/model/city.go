package model

// City is a row in the `cities` table.  Cities are seeded by migrations and
// are read-only for the web application.
type City struct {
    Code  string `db:"code"`  // cities.code (primary key, e.g. "sf")
    Name  string `db:"name"`  // cities.name
    State string `db:"state"` // cities.state, two-letter abbreviation
}

// Location formats the city as "name, state".
func (c City) Location() string {
    return c.Name + ", " + c.State
}
