package models

import "time"

// Child represents a child profile owned by a parent.
type Child struct {
	ID                  int64     `json:"id"`
	CreatorID           int64     `json:"creatorId"`
	FullName            string    `json:"fullName"`
	DateOfBirth         string    `json:"dateOfBirth"`
	PersonalizationType string    `json:"personalizationType,omitempty"`
	LearningStage       string    `json:"learningStage,omitempty"`
	AgeGroup            string    `json:"ageGroup,omitempty"`
	Communication       string    `json:"communication,omitempty"`
	Toileting           string    `json:"toileting,omitempty"`
	SupportReceived     []string  `json:"supportReceived"`
	Diagnoses           []string  `json:"diagnoses"`
	IsDeleted           bool      `json:"-"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
