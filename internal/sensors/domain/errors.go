package sensors

import "errors"

// ErrNotFound indicates a missing sensor record.
var ErrNotFound = errors.New("sensor: not found")
