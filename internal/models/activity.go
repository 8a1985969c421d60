package models

import "time"

// Activity is an owner-defined activity that can be completed once a day.
type Activity struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	ActivityType string    `json:"activity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ActivityCompletion records that an activity was done.
type ActivityCompletion struct {
	ID          int64     `json:"id"`
	ActivityID  int64     `json:"activityId"`
	OwnerID     int64     `json:"ownerId"`
	ChildID     *int64    `json:"childId,omitempty"`
	CompletedBy int64     `json:"completedBy"`
	CompletedAt time.Time `json:"completedAt"`
	// CompletedDay is the calendar day (YYYY-MM-DD) of CompletedAt in the
	// configured time zone. One completion per owner, activity and day.
	CompletedDay string `json:"completedDay"`

	// Populated by joins for analytics.
	Title string `json:"title,omitempty"`
	Image string `json:"image,omitempty"`
}
