package store

import "errors"

// ErrDuplicateEmail is returned by Create when a registration for the same
// email address already exists.
var ErrDuplicateEmail = errors.New("email already registered")
