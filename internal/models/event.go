package models

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusPending   EventStatus = "PENDING"
	EventStatusCompleted EventStatus = "COMPLETED"
)

// Event is a dated item on the family calendar, for every child or a selection.
type Event struct {
	ID            int64       `json:"id"`
	OwnerID       int64       `json:"ownerId"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Image         string      `json:"image"`
	Date          string      `json:"date"`
	Time          string      `json:"time"`
	IsForAllChild bool        `json:"isForAllChild"`
	ChildIDs      []int64     `json:"childIds"`
	Status        EventStatus `json:"status"`
	IsDeleted     bool        `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
