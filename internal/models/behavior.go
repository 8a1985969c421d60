package models

import "time"

// BehaviorLog is a single labelled observation about a child,
// e.g. "Potty Success" or "Tried Broccoli".
type BehaviorLog struct {
	ID         int64     `json:"id"`
	ChildID    int64     `json:"childId"`
	Label      string    `json:"label"`
	OccurredAt time.Time `json:"occurredAt"`
	RecordedBy int64     `json:"recordedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
