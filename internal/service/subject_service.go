package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tutormatch/internal/apperror"
	"tutormatch/internal/model"
)

// SubjectService reads the administratively seeded subject catalog and
// lets admins extend it. Subjects are immutable once created.
type SubjectService struct {
	subjects SubjectStore
	users    UserStore
	logger   *zap.Logger
}

func NewSubjectService(subjects SubjectStore, users UserStore, logger *zap.Logger) *SubjectService {
	return &SubjectService{subjects: subjects, users: users, logger: logger}
}

// Create adds a subject to the catalog. Admin only.
func (s *SubjectService) Create(ctx context.Context, callerID int64, code, name string) (*model.Subject, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !caller.IsAdmin() {
		return nil, apperror.Unauthorized("only admins can create subjects")
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, apperror.InvalidArgument("subject code and name are required")
	}

	subject := &model.Subject{Code: code, Name: name}
	if err := s.subjects.Create(ctx, subject); err != nil {
		if errors.Is(err, ErrSubjectExists) {
			return nil, apperror.InvalidArgument("a subject with code %s already exists", code)
		}
		return nil, fmt.Errorf("create subject: %w", err)
	}

	s.logger.Info("Subject created",
		zap.Int64("subject_id", subject.ID),
		zap.String("code", code),
	)

	return subject, nil
}

func (s *SubjectService) GetByCode(ctx context.Context, code string) (*model.Subject, error) {
	subject, err := s.subjects.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("Subject not found")
		}
		return nil, fmt.Errorf("get subject by code: %w", err)
	}
	return subject, nil
}

func (s *SubjectService) List(ctx context.Context) ([]*model.Subject, error) {
	return s.subjects.List(ctx)
}
