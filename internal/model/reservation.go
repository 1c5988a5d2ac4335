package model

import "time"

// Reservation records one booked table for a user on a specific date and
// hour. The (Date, Hour, PartySize) triple identifies the capacity bucket
// the reservation was admitted into. Rows are only ever inserted and
// deleted; date, hour and party size never change after creation.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who made the reservation (weak reference).
//  Date      – calendar date as YYYY-MM-DD, no time-zone component.
//  Hour      – hour of day (0–23; business rules restrict the range).
//  PartySize – number of guests; must be a configured inventory size.
//  CreatedAt – creation timestamp.
type Reservation struct {
	ID        uint64    `json:"id"`         // reservations.id
	UserID    uint64    `json:"user_id"`    // reservations.user_id
	Date      string    `json:"date"`       // reservations.res_date
	Hour      int       `json:"hour"`       // reservations.res_hour
	PartySize int       `json:"party_size"` // reservations.party_size
	CreatedAt time.Time `json:"created_at"` // reservations.created_at
}
