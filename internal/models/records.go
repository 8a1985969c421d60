package models

import "time"

// ChildDocument is a file attached to a child profile.
type ChildDocument struct {
	ID        int64     `json:"id"`
	ChildID   int64     `json:"childId"`
	Title     string    `json:"title"`
	FileURL   string    `json:"fileUrl"`
	FileType  string    `json:"fileType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteKind distinguishes the two note tables that share one shape.
type NoteKind string

const (
	NoteKindHealthCare NoteKind = "health_care"
	NoteKindSensory    NoteKind = "sensory"
)

// Note is a health-care note or a sensory/preference note about a child.
type Note struct {
	ID          int64     `json:"id"`
	ChildID     int64     `json:"childId"`
	Kind        NoteKind  `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProviderStatus marks whether a provider is currently involved.
type ProviderStatus string

const (
	ProviderStatusActive   ProviderStatus = "ACTIVE"
	ProviderStatusInactive ProviderStatus = "INACTIVE"
)

// Provider is a care professional attached to a child.
type Provider struct {
	ID        int64          `json:"id"`
	ChildID   int64          `json:"childId"`
	FullName  string         `json:"fullName"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Specialty string         `json:"specialty"`
	Status    ProviderStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
