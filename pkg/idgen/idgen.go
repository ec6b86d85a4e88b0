// Package idgen provides message identifier generators.
package idgen

import "github.com/google/uuid"

// UUID generates random version 4 UUIDs. There is no registry of issued ids;
// collisions are left to the birthday bound of 122 random bits.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }
