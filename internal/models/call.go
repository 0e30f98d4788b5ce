package models

import (
	"time"

	"github.com/google/uuid"
)

type CallStatus string

const (
	CallInitiated CallStatus = "INITIATED"
	CallRinging   CallStatus = "RINGING"
	CallAccepted  CallStatus = "ACCEPTED"
	CallRejected  CallStatus = "REJECTED"
	CallEnded     CallStatus = "ENDED"
)

// ActiveCallStatuses - статусы, в которых звонок занимает обоих участников
var ActiveCallStatuses = []CallStatus{CallInitiated, CallRinging, CallAccepted}

func (s CallStatus) Terminal() bool {
	return s == CallEnded || s == CallRejected
}

type VideoCall struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CallerID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CalleeID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status          CallStatus `gorm:"not null;index"`
	CreatedAt       time.Time
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSeconds *int64
}

func (c *VideoCall) HasParty(userID uuid.UUID) bool {
	return c.CallerID == userID || c.CalleeID == userID
}
