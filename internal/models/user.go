package models

import "time"

// User is the reader profile recorded the first time a verified identity
// calls /api/me, keyed by the identity provider's uid.
type User struct {
	ID         string    `bson:"_id,omitempty" json:"id,omitempty"`
	UID        string    `bson:"uid" json:"uid"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	Name       string    `bson:"name,omitempty" json:"name,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	LastSeenAt time.Time `bson:"lastSeenAt" json:"lastSeenAt"`
}
