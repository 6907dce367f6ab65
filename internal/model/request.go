package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestType string

const (
	RequestTypeTutor RequestType = "tutor" // offering tutoring
	RequestTypeTutee RequestType = "tutee" // seeking tutoring
)

// Valid reports whether the type is one of the two known values.
func (t RequestType) Valid() bool {
	return t == RequestTypeTutor || t == RequestTypeTutee
}

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusMatched    RequestStatus = "matched"
	RequestStatusNotMatched RequestStatus = "not_matched"
	RequestStatusDone       RequestStatus = "done"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// IsTerminal reports whether the lifecycle permits no further transition
// out of this status.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusNotMatched, RequestStatusDone, RequestStatusCancelled:
		return true
	}
	return false
}

type Request struct {
	ID               int64         `json:"id"`
	OwnerID          int64         `json:"owner_id"`
	Type             RequestType   `json:"type"`
	SubjectID        int64         `json:"subject_id"`
	Timeslots        []string      `json:"timeslots"`
	WeekStartDate    time.Time     `json:"week_start_date"` // the Monday the timeslots apply to
	Recurring        bool          `json:"recurring"`
	Status           RequestStatus `json:"status"`
	Archived         bool          `json:"archived"`
	MatchedPartnerID *int64        `json:"matched_partner_id,omitempty"`
	MatchRef         *uuid.UUID    `json:"match_ref,omitempty"` // shared by both sides of a pairing
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	// Filled by services when needed for notifications, not stored
	Subject *Subject `json:"subject,omitempty"`
	Owner   *User    `json:"owner,omitempty"`
}

// IsActive reports whether the request still counts against the
// one-active-request rule: non-terminal status and not archived.
func (r *Request) IsActive() bool {
	return !r.Archived && !r.Status.IsTerminal()
}

// CanBeCancelled reports whether Cancel would transition the request.
// Only pending requests may be cancelled.
func (r *Request) CanBeCancelled() bool {
	return r.Status == RequestStatusPending
}

// Cancel transitions a pending request to cancelled. On any other status
// it is a no-op; callers that need to distinguish must check
// CanBeCancelled first.
func (r *Request) Cancel() {
	if r.CanBeCancelled() {
		r.Status = RequestStatusCancelled
	}
}
