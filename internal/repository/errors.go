// Package repository implements the persistence layer over MySQL.
// This file defines sentinel errors shared by the repositories so that
// higher layers can distinguish failure scenarios without inspecting
// driver errors.
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned on unique-key violations, for example two
// concurrent imports creating the same external booking number.
var ErrConflict = errors.New("conflict")
