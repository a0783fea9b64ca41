package domain

import "time"

// User represents a registered end user of the aggregation API.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
