package memory

import (
	"context"
	"sort"

	"tutormatch/internal/model"
	"tutormatch/internal/service"
)

type UserStore struct {
	s *Store
}

var _ service.UserStore = (*UserStore)(nil)

func (u *UserStore) Create(ctx context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return service.ErrEmailExists
		}
	}

	u.s.nextUserID++
	user.ID = u.s.nextUserID
	user.CreatedAt = u.s.now()
	u.s.users[user.ID] = cloneUser(user)
	return nil
}

func (u *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return cloneUser(user), nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, user := range u.s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, service.ErrNotFound
}

func (u *UserStore) Update(ctx context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	existing, ok := u.s.users[user.ID]
	if !ok {
		return service.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	u.s.users[user.ID] = cloneUser(user)
	return nil
}

// Delete removes the user, drops every request they own and releases
// every surviving request that was matched with them, all under one lock.
func (u *UserStore) Delete(ctx context.Context, id int64) ([]*model.Request, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, ok := u.s.users[id]; !ok {
		return nil, service.ErrNotFound
	}

	now := u.s.now()
	var released []*model.Request
	for reqID, req := range u.s.requests {
		if req.OwnerID == id {
			delete(u.s.requests, reqID)
			continue
		}
		if req.MatchedPartnerID != nil && *req.MatchedPartnerID == id {
			stillMatched := req.Status == model.RequestStatusMatched
			req.MatchedPartnerID = nil
			req.MatchRef = nil
			req.UpdatedAt = now
			if stillMatched {
				req.Status = model.RequestStatusNotMatched
				released = append(released, cloneRequest(req))
			}
		}
	}
	delete(u.s.users, id)

	sort.Slice(released, func(i, j int) bool { return released[i].ID < released[j].ID })
	return released, nil
}
