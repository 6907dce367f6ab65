package memory

import (
	"context"
	"sort"

	"tutormatch/internal/model"
	"tutormatch/internal/service"
)

type SubjectStore struct {
	s *Store
}

var _ service.SubjectStore = (*SubjectStore)(nil)

func (st *SubjectStore) Create(ctx context.Context, subject *model.Subject) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	for _, existing := range st.s.subjects {
		if existing.Code == subject.Code {
			return service.ErrSubjectExists
		}
	}

	st.s.nextSubjectID++
	subject.ID = st.s.nextSubjectID
	subject.CreatedAt = st.s.now()
	st.s.subjects[subject.ID] = cloneSubject(subject)
	return nil
}

func (st *SubjectStore) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	subject, ok := st.s.subjects[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return cloneSubject(subject), nil
}

func (st *SubjectStore) GetByCode(ctx context.Context, code string) (*model.Subject, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	for _, subject := range st.s.subjects {
		if subject.Code == code {
			return cloneSubject(subject), nil
		}
	}
	return nil, service.ErrNotFound
}

func (st *SubjectStore) List(ctx context.Context) ([]*model.Subject, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	out := make([]*model.Subject, 0, len(st.s.subjects))
	for _, subject := range st.s.subjects {
		out = append(out, cloneSubject(subject))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
