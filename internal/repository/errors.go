// Package repository defines the data access layer and the error values
// shared by its repositories.  Handlers use errors.Is against these
// sentinels to pick a user-facing outcome; anything else is an unexpected
// store failure.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrCafeNotFound is returned when no cafe has the requested id.  Handlers
// translate it into an HTTP 404 response.
var ErrCafeNotFound = errors.New("cafe not found")

// ErrCityNotFound is returned when a city code does not exist, including a
// cafe write that references an unknown city.
var ErrCityNotFound = errors.New("city not found")

// ErrUserNotFound is returned when a user lookup by id or username misses.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken is the conflict outcome of creating a user whose
// username already exists.  Nothing is stored when it is returned.
var ErrUsernameTaken = errors.New("username already taken")

// MySQL server error numbers the repositories classify.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// mysqlErrorNumber returns the server error number carried by err, or 0.
func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
