package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tutormatch/internal/model"
	"tutormatch/internal/service"
)

type RequestStore struct {
	s *Store
}

var _ service.RequestStore = (*RequestStore)(nil)

func isActive(r *model.Request) bool {
	return !r.Archived && !r.Status.IsTerminal()
}

func (rs *RequestStore) hasActiveLocked(ownerID, subjectID int64, typ model.RequestType) bool {
	for _, req := range rs.s.requests {
		if req.OwnerID == ownerID && req.SubjectID == subjectID && req.Type == typ && isActive(req) {
			return true
		}
	}
	return false
}

func (rs *RequestStore) Create(ctx context.Context, req *model.Request) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	if rs.hasActiveLocked(req.OwnerID, req.SubjectID, req.Type) {
		return service.ErrDuplicateActive
	}

	rs.s.nextRequestID++
	req.ID = rs.s.nextRequestID
	now := rs.s.now()
	req.CreatedAt = now
	req.UpdatedAt = now
	rs.s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (rs *RequestStore) GetByID(ctx context.Context, id int64) (*model.Request, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	req, ok := rs.s.requests[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (rs *RequestStore) GetByOwner(ctx context.Context, ownerID int64) ([]*model.Request, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	var out []*model.Request
	for _, req := range rs.s.requests {
		if req.OwnerID == ownerID {
			out = append(out, cloneRequest(req))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (rs *RequestStore) HasActive(ctx context.Context, ownerID, subjectID int64, typ model.RequestType) (bool, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	return rs.hasActiveLocked(ownerID, subjectID, typ), nil
}

func (rs *RequestStore) FindAllActive(ctx context.Context) ([]*model.Request, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	var out []*model.Request
	for _, req := range rs.s.requests {
		if !req.Archived {
			out = append(out, cloneRequest(req))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (rs *RequestStore) TransitionStatus(ctx context.Context, id int64, from, to model.RequestStatus) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	req, ok := rs.s.requests[id]
	if !ok {
		return service.ErrNotFound
	}
	if req.Status != from {
		return service.ErrStatusConflict
	}
	req.Status = to
	req.UpdatedAt = rs.s.now()
	return nil
}

func (rs *RequestStore) Match(ctx context.Context, requestID, partnerRequestID int64, ref uuid.UUID) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	req, ok := rs.s.requests[requestID]
	if !ok {
		return service.ErrNotFound
	}
	partner, ok := rs.s.requests[partnerRequestID]
	if !ok {
		return service.ErrNotFound
	}
	if req.Status != model.RequestStatusPending || partner.Status != model.RequestStatusPending {
		return service.ErrStatusConflict
	}

	now := rs.s.now()
	for pair, other := range map[*model.Request]*model.Request{req: partner, partner: req} {
		matchRef := ref
		ownerID := other.OwnerID
		pair.Status = model.RequestStatusMatched
		pair.MatchedPartnerID = &ownerID
		pair.MatchRef = &matchRef
		pair.UpdatedAt = now
	}
	return nil
}

func (rs *RequestStore) CompleteMatch(ctx context.Context, ref uuid.UUID) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	now := rs.s.now()
	var completed int
	for _, req := range rs.s.requests {
		if req.MatchRef != nil && *req.MatchRef == ref && req.Status == model.RequestStatusMatched {
			req.Status = model.RequestStatusDone
			req.UpdatedAt = now
			completed++
		}
	}
	if completed == 0 {
		return service.ErrStatusConflict
	}
	return nil
}

func (rs *RequestStore) SetArchived(ctx context.Context, id int64, archived bool) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	req, ok := rs.s.requests[id]
	if !ok {
		return service.ErrNotFound
	}
	req.Archived = archived
	req.UpdatedAt = rs.s.now()
	return nil
}

func (rs *RequestStore) ArchiveExpired(ctx context.Context, before time.Time) (int64, error) {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	now := rs.s.now()
	var count int64
	for _, req := range rs.s.requests {
		if req.Archived || req.Recurring {
			continue
		}
		if !req.WeekStartDate.AddDate(0, 0, 7).After(before) {
			req.Archived = true
			req.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func sortNewestFirst(requests []*model.Request) {
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].ID > requests[j].ID
	})
}
