package model

import "errors"

// Sentinel errors returned by Model operations. All operations are total:
// every invalid input maps to one of these and leaves state unchanged.
var (
	ErrDuplicatePlayer  = errors.New("model: player already exists")
	ErrUnknownPlayer    = errors.New("model: unknown player")
	ErrNotSpawned       = errors.New("model: player is not spawned")
	ErrInvalidMove      = errors.New("model: invalid move delta")
	ErrMoveFailed       = errors.New("model: move failed")
	ErrInvalidDirection = errors.New("model: invalid fire direction")
	ErrBulletInFlight   = errors.New("model: player already has a bullet in flight")
	ErrNotFound         = errors.New("model: not found")
)
