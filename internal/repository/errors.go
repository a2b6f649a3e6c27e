// Package repository implements the persistence layer over MySQL.
// This file defines sentinel errors reused across repositories so
// that higher layers can distinguish failure scenarios.  For example,
// ErrForbidden indicates that the current user is not authorized to
// act on a resource owned by someone else, while ErrConflict signals
// that an operation cannot proceed because of contending state (a
// slot already taken, a payment order already active).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or transition loses to
// contending state, such as reserving a slot another booking already
// covers.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the addressed row does not exist.
// Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")
