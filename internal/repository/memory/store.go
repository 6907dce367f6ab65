// Package memory is the in-memory twin of the Postgres repositories. The
// sub-stores share one mutex, which makes every compound operation a
// single critical section. Used by the service tests and as the backend
// when no database is configured.
package memory

import (
	"sync"
	"time"

	"tutormatch/internal/model"
)

type Store struct {
	mu sync.Mutex

	users    map[int64]*model.User
	subjects map[int64]*model.Subject
	requests map[int64]*model.Request

	nextUserID    int64
	nextSubjectID int64
	nextRequestID int64

	// test hook; defaults to time.Now
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*model.User),
		subjects: make(map[int64]*model.Subject),
		requests: make(map[int64]*model.Request),
		now:      time.Now,
	}
}

// SetClock replaces the store's time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserStore       { return &UserStore{s: s} }
func (s *Store) Subjects() *SubjectStore { return &SubjectStore{s: s} }
func (s *Store) Requests() *RequestStore { return &RequestStore{s: s} }

func cloneUser(u *model.User) *model.User {
	out := *u
	out.SubjectIDs = append([]int64(nil), u.SubjectIDs...)
	out.Timeslots = append([]string(nil), u.Timeslots...)
	if u.TelegramChatID != nil {
		chatID := *u.TelegramChatID
		out.TelegramChatID = &chatID
	}
	return &out
}

func cloneSubject(sub *model.Subject) *model.Subject {
	out := *sub
	return &out
}

func cloneRequest(r *model.Request) *model.Request {
	out := *r
	out.Timeslots = append([]string(nil), r.Timeslots...)
	if r.MatchedPartnerID != nil {
		partnerID := *r.MatchedPartnerID
		out.MatchedPartnerID = &partnerID
	}
	if r.MatchRef != nil {
		ref := *r.MatchRef
		out.MatchRef = &ref
	}
	out.Subject = nil
	out.Owner = nil
	return &out
}
