package models

import "time"

// InspirationStatus tracks whether a message has been published.
type InspirationStatus string

const (
	InspirationManual    InspirationStatus = "Manual"
	InspirationScheduled InspirationStatus = "Scheduled"
	InspirationSent      InspirationStatus = "Sent"
)

// Inspiration is a short encouraging message shown to parents. A message
// with a Date is scheduled for that day; one without waits to be sent by hand.
type Inspiration struct {
	ID        int64             `json:"id"`
	Text      string            `json:"text"`
	Type      string            `json:"type"`
	Date      string            `json:"date,omitempty"`
	Status    InspirationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
