// Package memstore holds in-memory stores with the same contracts and error
// values as the MySQL repositories.  Handler and service tests run against
// them instead of a database.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/cafe-finder/internal/model"
	"github.com/iliyamo/cafe-finder/internal/repository"
)

// Cities is a fixed city vocabulary.
type Cities struct {
	byCode map[string]model.City
}

func NewCities(cities ...model.City) *Cities {
	c := &Cities{byCode: make(map[string]model.City, len(cities))}
	for _, city := range cities {
		c.byCode[city.Code] = city
	}
	return c
}

func (c *Cities) ListOrderedByName(ctx context.Context) ([]model.City, error) {
	out := make([]model.City, 0, len(c.byCode))
	for _, city := range c.byCode {
		out = append(out, city)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Cities) GetByCode(ctx context.Context, code string) (*model.City, error) {
	city, ok := c.byCode[code]
	if !ok {
		return nil, repository.ErrCityNotFound
	}
	return &city, nil
}

// Cafes enforces the city foreign key against a Cities vocabulary.
type Cafes struct {
	mu     sync.Mutex
	cities *Cities
	rows   map[int64]model.Cafe
	nextID int64
}

func NewCafes(cities *Cities) *Cafes {
	return &Cafes{cities: cities, rows: map[int64]model.Cafe{}}
}

func (s *Cafes) ListOrderedByName(ctx context.Context) ([]model.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Cafe, 0, len(s.rows))
	for _, cafe := range s.rows {
		out = append(out, cafe)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Cafes) GetByID(ctx context.Context, id int64) (*model.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cafe, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrCafeNotFound
	}
	return &cafe, nil
}

func (s *Cafes) Create(ctx context.Context, c *model.Cafe) error {
	if _, ok := s.cities.byCode[c.CityCode]; !ok {
		return repository.ErrCityNotFound
	}
	c.WithDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.rows[c.ID] = *c
	return nil
}

func (s *Cafes) Update(ctx context.Context, c *model.Cafe) error {
	if _, ok := s.cities.byCode[c.CityCode]; !ok {
		return repository.ErrCityNotFound
	}
	c.WithDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c.ID]; !ok {
		return repository.ErrCafeNotFound
	}
	s.rows[c.ID] = *c
	return nil
}

// Len reports how many cafes are stored.
func (s *Cafes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Users enforces username uniqueness like the users table index.
type Users struct {
	mu     sync.Mutex
	rows   map[int64]model.User
	nextID int64
}

func NewUsers() *Users {
	return &Users{rows: map[int64]model.User{}}
}

func (s *Users) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.Username == u.Username {
			return repository.ErrUsernameTaken
		}
	}
	u.WithDefaults()
	s.nextID++
	u.ID = s.nextID
	s.rows[u.ID] = *u
	return nil
}

func (s *Users) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *Users) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.rows {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// CountUsername reports how many rows carry username.
func (s *Users) CountUsername(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.rows {
		if u.Username == username {
			n++
		}
	}
	return n
}
