package domain

import "time"

// User is owned by the external identity layer; this service only reads
// the columns it needs for membership and invite-email matching.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
