package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutormatch/internal/apperror"
	"tutormatch/internal/model"
	"tutormatch/internal/notify"
	"tutormatch/internal/timeslot"
)

// RequestService owns the tutoring-request lifecycle: creation with
// duplicate suppression, cancellation, and the bookkeeping around a
// pairing once it has been decided. It does not choose pairings; that
// decision arrives from outside.
type RequestService struct {
	requests RequestStore
	users    UserStore
	subjects SubjectStore
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewRequestService(
	requests RequestStore,
	users UserStore,
	subjects SubjectStore,
	notifier notify.Notifier,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requests: requests,
		users:    users,
		subjects: subjects,
		notifier: notifier,
		logger:   logger,
	}
}

// Create validates and persists a new pending request. A user may hold at
// most one active request per (subject, type); a second attempt fails
// naming the subject.
func (s *RequestService) Create(
	ctx context.Context,
	ownerID int64,
	typ model.RequestType,
	subjectID int64,
	timeslotCodes []string,
	recurring bool,
	weekStart time.Time,
) (*model.Request, error) {
	if !typ.Valid() {
		return nil, apperror.InvalidArgument("unknown request type %q", typ)
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("Subject not found")
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}

	slots := timeslot.FilterValid(timeslotCodes)
	if len(slots) == 0 {
		return nil, apperror.InvalidArgument("At least one timeslot must be selected")
	}

	if weekStart.Weekday() != time.Monday {
		return nil, apperror.InvalidArgument("week start date must be a Monday")
	}

	// Friendly pre-check; the store re-checks atomically on insert.
	active, err := s.requests.HasActive(ctx, ownerID, subjectID, typ)
	if err != nil {
		return nil, fmt.Errorf("check active request: %w", err)
	}
	if active {
		return nil, duplicateActiveError(typ, subject)
	}

	req := &model.Request{
		OwnerID:       ownerID,
		Type:          typ,
		SubjectID:     subjectID,
		Timeslots:     slots,
		WeekStartDate: weekStart,
		Recurring:     recurring,
		Status:        model.RequestStatusPending,
		Archived:      false,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, ErrDuplicateActive) {
			// Lost the race against a concurrent create.
			return nil, duplicateActiveError(typ, subject)
		}
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("Request created",
		zap.Int64("request_id", req.ID),
		zap.Int64("user_id", owner.ID),
		zap.String("type", string(typ)),
		zap.String("subject", subject.Code),
		zap.Int("timeslots", len(slots)),
	)

	return req, nil
}

func duplicateActiveError(typ model.RequestType, subject *model.Subject) error {
	role := "tutoring"
	switch typ {
	case model.RequestTypeTutor:
		role = "tutor"
	case model.RequestTypeTutee:
		role = "tutee"
	}
	return apperror.InvalidArgument("You already have an active %s request for %s", role, subject.Name)
}

// Cancel transitions a pending request to cancelled. Only the owner may
// cancel, and only while the request is still pending.
func (s *RequestService) Cancel(ctx context.Context, requestID, callerID int64) (*model.Request, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.OwnerID != callerID {
		return nil, apperror.Unauthorized("no permission to cancel this request")
	}

	if !req.CanBeCancelled() {
		return nil, apperror.InvalidState("request is %s, only pending requests can be cancelled", req.Status)
	}

	err = s.requests.TransitionStatus(ctx, requestID, model.RequestStatusPending, model.RequestStatusCancelled)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, apperror.NotFound("Request not found")
		case errors.Is(err, ErrStatusConflict):
			return nil, apperror.InvalidState("request is no longer pending")
		}
		return nil, fmt.Errorf("cancel request: %w", err)
	}

	s.logger.Info("Request cancelled",
		zap.Int64("request_id", requestID),
		zap.Int64("user_id", callerID),
	)

	return s.getRequest(ctx, requestID)
}

// GetUserRequests returns all requests owned by the user, newest first.
func (s *RequestService) GetUserRequests(ctx context.Context, userID int64) ([]*model.Request, error) {
	return s.requests.GetByOwner(ctx, userID)
}

// HasActiveRequest reports whether an active request exists for the
// (user, subject, type) triple. "Active" means non-terminal status and
// not archived; this is the same predicate creation enforces.
func (s *RequestService) HasActiveRequest(ctx context.Context, userID, subjectID int64, typ model.RequestType) (bool, error) {
	return s.requests.HasActive(ctx, userID, subjectID, typ)
}

// FindAllActive returns all unarchived requests regardless of status.
// Archival is a visibility filter, independent of the status-based
// activity predicate used for duplicate checking.
func (s *RequestService) FindAllActive(ctx context.Context) ([]*model.Request, error) {
	return s.requests.FindAllActive(ctx)
}

// MatchRequests records an externally decided pairing between two pending
// requests: same subject, opposite types, distinct owners. Both sides are
// updated in one transaction and share a fresh match reference.
func (s *RequestService) MatchRequests(ctx context.Context, requestID, partnerRequestID int64) (*model.Request, *model.Request, error) {
	if requestID == partnerRequestID {
		return nil, nil, apperror.InvalidArgument("a request cannot be matched with itself")
	}

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	partner, err := s.getRequest(ctx, partnerRequestID)
	if err != nil {
		return nil, nil, err
	}

	if req.OwnerID == partner.OwnerID {
		return nil, nil, apperror.InvalidArgument("a user cannot be matched with themselves")
	}
	if req.SubjectID != partner.SubjectID {
		return nil, nil, apperror.InvalidArgument("requests are for different subjects")
	}
	if req.Type == partner.Type {
		return nil, nil, apperror.InvalidArgument("a match must pair a tutor with a tutee")
	}
	for _, r := range []*model.Request{req, partner} {
		if r.Archived {
			return nil, nil, apperror.InvalidState("request %d is archived", r.ID)
		}
		if r.Status != model.RequestStatusPending {
			return nil, nil, apperror.InvalidState("request %d is %s, not pending", r.ID, r.Status)
		}
	}

	ref := uuid.New()
	if err := s.requests.Match(ctx, requestID, partnerRequestID, ref); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, nil, apperror.NotFound("Request not found")
		case errors.Is(err, ErrStatusConflict):
			return nil, nil, apperror.InvalidState("request is no longer pending")
		}
		return nil, nil, fmt.Errorf("match requests: %w", err)
	}

	s.logger.Info("Requests matched",
		zap.Int64("request_id", requestID),
		zap.Int64("partner_request_id", partnerRequestID),
		zap.String("match_ref", ref.String()),
	)

	s.notifyMatched(ctx, req.OwnerID, partner.OwnerID, req.SubjectID)

	req, err = s.getRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	partner, err = s.getRequest(ctx, partnerRequestID)
	if err != nil {
		return nil, nil, err
	}
	return req, partner, nil
}

// CompleteMatch moves a matched request, and the partner request sharing
// its match reference, to done. Only the owner of the given request may
// complete it.
func (s *RequestService) CompleteMatch(ctx context.Context, requestID, callerID int64) (*model.Request, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.OwnerID != callerID {
		return nil, apperror.Unauthorized("no permission to complete this request")
	}

	if req.Status != model.RequestStatusMatched || req.MatchRef == nil {
		return nil, apperror.InvalidState("request is %s, only matched requests can be completed", req.Status)
	}

	if err := s.requests.CompleteMatch(ctx, *req.MatchRef); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, apperror.InvalidState("match is no longer active")
		}
		return nil, fmt.Errorf("complete match: %w", err)
	}

	s.logger.Info("Match completed",
		zap.Int64("request_id", requestID),
		zap.String("match_ref", req.MatchRef.String()),
	)

	return s.getRequest(ctx, requestID)
}

// MarkNotMatched records that a matching cycle found no partner for a
// pending request. Invoked by the external matching run.
func (s *RequestService) MarkNotMatched(ctx context.Context, requestID int64) (*model.Request, error) {
	err := s.requests.TransitionStatus(ctx, requestID, model.RequestStatusPending, model.RequestStatusNotMatched)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, apperror.NotFound("Request not found")
		case errors.Is(err, ErrStatusConflict):
			return nil, apperror.InvalidState("request is not pending")
		}
		return nil, fmt.Errorf("mark not matched: %w", err)
	}

	s.logger.Info("Request marked not matched", zap.Int64("request_id", requestID))

	return s.getRequest(ctx, requestID)
}

// Archive hides a request from active views without touching its status
// or history. Owner only. Any status may be archived.
func (s *RequestService) Archive(ctx context.Context, requestID, callerID int64) (*model.Request, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.OwnerID != callerID {
		return nil, apperror.Unauthorized("no permission to archive this request")
	}

	if err := s.requests.SetArchived(ctx, requestID, true); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("Request not found")
		}
		return nil, fmt.Errorf("archive request: %w", err)
	}

	s.logger.Info("Request archived",
		zap.Int64("request_id", requestID),
		zap.Int64("user_id", callerID),
	)

	return s.getRequest(ctx, requestID)
}

// ArchiveExpired archives non-recurring requests whose week has fully
// elapsed. Driven by the background archiver.
func (s *RequestService) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.requests.ArchiveExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("archive expired requests: %w", err)
	}
	if count > 0 {
		s.logger.Info("Expired requests archived", zap.Int64("count", count))
	}
	return count, nil
}

func (s *RequestService) getRequest(ctx context.Context, id int64) (*model.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("Request not found")
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// notifyMatched delivers the match notifications. Failures are logged and
// never surface to the caller.
func (s *RequestService) notifyMatched(ctx context.Context, ownerID, partnerOwnerID, subjectID int64) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		s.logger.Warn("Skipping match notification", zap.Error(err))
		return
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		s.logger.Warn("Skipping match notification", zap.Error(err))
		return
	}
	partner, err := s.users.GetByID(ctx, partnerOwnerID)
	if err != nil {
		s.logger.Warn("Skipping match notification", zap.Error(err))
		return
	}
	if err := s.notifier.RequestMatched(ctx, owner, partner, subject); err != nil {
		s.logger.Warn("Failed to notify user", zap.Int64("user_id", owner.ID), zap.Error(err))
	}
	if err := s.notifier.RequestMatched(ctx, partner, owner, subject); err != nil {
		s.logger.Warn("Failed to notify user", zap.Int64("user_id", partner.ID), zap.Error(err))
	}
}
