// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a table reservation is
// successfully admitted. It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	Date          string `json:"date"`
	Hour          int    `json:"hour"`
	PartySize     int    `json:"party_size"`
	ConfirmedAt   string `json:"confirmed_at"`
}
