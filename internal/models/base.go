package models

import (
	"strings"

	"github.com/google/uuid"
)

// assignID fills an empty primary key with a random UUID.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// NameKey is the case-insensitive identity of an inventory item name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
