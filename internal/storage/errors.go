package storage

import "errors"

// ErrNoRows is returned when a point lookup matches no record. Services
// translate it into a typed NOT_FOUND failure; the storage layer stays
// ignorant of HTTP semantics.
var ErrNoRows = errors.New("storage: no rows in result set")
