package domain

import "time"

type Cafe struct {
	ID                  int64
	Name                string
	Address             string
	Active              bool
	WorkStartTime       *string
	WorkEndTime         *string
	SlotDurationMinutes *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Table struct {
	ID          int64  `json:"id"`
	CafeID      int64  `json:"cafe_id"`
	SeatsCount  int    `json:"seats_count"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"-"`
}

// Slot is a time-of-day interval reused on every calendar date.
type Slot struct {
	ID        int64  `json:"id"`
	CafeID    int64  `json:"cafe_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Active    bool   `json:"-"`
}

type Dish struct {
	ID         int64
	Name       string
	PriceCents int64
	Active     bool
}

type User struct {
	ID       int64
	Username string
	Email    string
	Role     Role
	Active   bool
}

// SlotAvailability lists the tables still free for one slot on one date.
type SlotAvailability struct {
	Slot       Slot      `json:"slot"`
	Date       time.Time `json:"date"`
	FreeTables []Table   `json:"free_tables"`
}
