package model

import "time"

// ReservationLock is an advisory lock document serializing reserve calls
// for one property. Insertion with a duplicate _id means the lock is held.
// The TTL index on expires_at reclaims locks left behind by a crashed
// process.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
