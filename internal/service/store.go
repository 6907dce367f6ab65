package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tutormatch/internal/model"
)

// Sentinel errors returned by store implementations. Services translate
// them into the caller-facing kinds in internal/apperror.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateActive = errors.New("an active request already exists for this user, subject and type")
	ErrStatusConflict  = errors.New("request is not in the expected status")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrSubjectExists   = errors.New("a subject with this code already exists")
)

// RequestStore is the persistence surface for requests. Compound
// operations (Create's duplicate guard, Match, CompleteMatch, the delete
// cascade on UserStore) are atomic inside the implementation: two racing
// calls cannot both observe the precondition and both succeed.
type RequestStore interface {
	// Create persists a new request together with its timeslot set.
	// Returns ErrDuplicateActive when the owner already has an active
	// request for the same subject and type.
	Create(ctx context.Context, req *model.Request) error
	GetByID(ctx context.Context, id int64) (*model.Request, error)
	// GetByOwner returns all requests owned by a user, newest first.
	GetByOwner(ctx context.Context, ownerID int64) ([]*model.Request, error)
	// HasActive reports whether an active (non-terminal, unarchived)
	// request exists for the triple.
	HasActive(ctx context.Context, ownerID, subjectID int64, typ model.RequestType) (bool, error)
	// FindAllActive returns all unarchived requests regardless of status.
	FindAllActive(ctx context.Context) ([]*model.Request, error)
	// TransitionStatus moves a request from one status to another as a
	// compare-and-set. Returns ErrStatusConflict when the request is no
	// longer in the from status.
	TransitionStatus(ctx context.Context, id int64, from, to model.RequestStatus) error
	// Match pairs two pending requests: both become matched, each records
	// the other's owner as matched partner and both share ref.
	Match(ctx context.Context, requestID, partnerRequestID int64, ref uuid.UUID) error
	// CompleteMatch moves both sides of a pairing from matched to done.
	CompleteMatch(ctx context.Context, ref uuid.UUID) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	// ArchiveExpired archives unarchived non-recurring requests whose
	// week has fully elapsed before the given instant. Returns the number
	// of requests archived.
	ArchiveExpired(ctx context.Context, before time.Time) (int64, error)
}

// UserStore is the persistence surface for users.
type UserStore interface {
	// Create persists a new user. Returns ErrEmailExists on a duplicate
	// email.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user, deletes every request they own and clears
	// the matched-partner reference on any surviving request that pointed
	// at them. Requests that were still matched revert to not_matched and
	// are returned so callers can notify their owners; requests already in
	// a terminal status only lose the reference. All of it happens
	// atomically.
	Delete(ctx context.Context, id int64) ([]*model.Request, error)
}

// SubjectStore is the persistence surface for the subject catalog.
type SubjectStore interface {
	// Create persists a new subject. Returns ErrSubjectExists on a
	// duplicate code.
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id int64) (*model.Subject, error)
	GetByCode(ctx context.Context, code string) (*model.Subject, error)
	List(ctx context.Context) ([]*model.Subject, error)
}
