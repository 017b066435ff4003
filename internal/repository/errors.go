// Package repository defines the persistence layer: store interfaces
// consumed by handlers and their MySQL implementations. Sentinel errors
// declared here let handlers distinguish failure scenarios without
// inspecting driver error strings.
package repository

import "errors"

// ErrEmailExists is returned when registering a user with an email that
// is already taken. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrUnknownFranchise is returned when a franchisee role assignment
// references a franchise id that does not exist. The write is rejected.
var ErrUnknownFranchise = errors.New("unknown franchise for franchisee role")

// ErrNoSignature is returned when asked to activate a token that does
// not have three dot-delimited segments.
var ErrNoSignature = errors.New("token has no signature segment")
