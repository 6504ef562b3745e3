package entities

import "time"

// Service is a catalog entry. The booking flow reads it exactly once, at
// creation time, to take the price/name snapshot.
type Service struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	Price     int64     `json:"price" db:"price"`
	Currency  string    `json:"currency" db:"currency"`
	Duration  int       `json:"duration" db:"duration"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
