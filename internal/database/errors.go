package database

import "errors"

// ErrTimeOccupied is returned when an insert would overlap an existing
// interval or reuse an existing start.
var ErrTimeOccupied = errors.New("time occupied")
