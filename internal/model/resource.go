package model

import (
	"time"
)

// Resource is owned by the pack CRUD layer; this service only reads it
// and deletes it after its files are gone.
type Resource struct {
	ID        string       `db:"resource_uuid"`
	PackID    string       `db:"pack_uuid"`
	OwnerID   string       `db:"owner_uuid"`
	Type      ResourceType `db:"type"`
	Name      string       `db:"name"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (r *Resource) IsOwnedBy(userID string) bool {
	return userID != "" && r.OwnerID == userID
}
