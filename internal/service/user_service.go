package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tutormatch/internal/apperror"
	"tutormatch/internal/model"
	"tutormatch/internal/notify"
	"tutormatch/internal/timeslot"
)

// UserService manages accounts and the referential cleanup their deletion
// requires. Profile completeness is derived on read; exam-track defaulting
// runs as an explicit recompute after a year-group change, never as a
// hidden side effect of an unrelated setter.
type UserService struct {
	users    UserStore
	subjects SubjectStore
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewUserService(users UserStore, subjects SubjectStore, notifier notify.Notifier, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		subjects: subjects,
		notifier: notifier,
		logger:   logger,
	}
}

// Register creates a new account. Email is the identity and must be
// unique.
func (s *UserService) Register(ctx context.Context, email, name string, role model.UserRole) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.InvalidArgument("a valid email address is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidArgument("a name is required")
	}
	if role == "" {
		role = model.UserRoleStudent
	}
	if !role.Valid() {
		return nil, apperror.InvalidArgument("unknown role %q", role)
	}

	user := &model.User{
		Email: email,
		Name:  name,
		Role:  role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, apperror.InvalidArgument("a user with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(role)),
	)

	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.getUser(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// SetYearGroup updates the year group and then recomputes the exam track
// when the current one was empty or still the default for the old year
// group. A hand-picked track is left alone.
func (s *UserService) SetYearGroup(ctx context.Context, userID int64, yearGroup int) (*model.User, error) {
	if yearGroup < 7 || yearGroup > 13 {
		return nil, apperror.InvalidArgument("year group must be between 7 and 13")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	previousDefault := model.DefaultExamTrack(user.YearGroup)
	user.YearGroup = yearGroup
	if user.ExamTrack == "" || user.ExamTrack == previousDefault {
		user.ExamTrack = model.DefaultExamTrack(yearGroup)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("Year group updated",
		zap.Int64("user_id", userID),
		zap.Int("year_group", yearGroup),
		zap.String("exam_track", string(user.ExamTrack)),
	)

	return user, nil
}

// UpdateProfile replaces the user's exam track, subject interests and
// available timeslots. Timeslot codes are filtered through the catalog;
// unknown codes are dropped rather than rejected.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, examTrack model.ExamTrack, subjectIDs []int64, timeslotCodes []string) (*model.User, error) {
	if examTrack != "" && !examTrack.Valid() {
		return nil, apperror.InvalidArgument("unknown exam track %q", examTrack)
	}
	for _, id := range subjectIDs {
		if _, err := s.subjects.GetByID(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, apperror.NotFound("Subject not found")
			}
			return nil, fmt.Errorf("get subject: %w", err)
		}
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if examTrack != "" {
		user.ExamTrack = examTrack
	}
	user.SubjectIDs = subjectIDs
	user.Timeslots = timeslot.FilterValid(timeslotCodes)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("Profile updated",
		zap.Int64("user_id", userID),
		zap.Bool("complete", user.ProfileComplete()),
	)

	return user, nil
}

// SetTelegramChatID stores or clears the chat id used for notifications.
func (s *UserService) SetTelegramChatID(ctx context.Context, userID int64, chatID *int64) (*model.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.TelegramChatID = chatID
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes the account. Every request the user owns is deleted and
// every surviving request that was matched with them loses the partner
// reference and reverts to not_matched; no request is left pointing at a
// deleted user. Affected owners are notified.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	released, err := s.users.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("User not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("User deleted",
		zap.Int64("user_id", userID),
		zap.Int("released_requests", len(released)),
	)

	for _, req := range released {
		s.notifyPartnerLost(ctx, req)
	}

	return nil
}

func (s *UserService) getUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) notifyPartnerLost(ctx context.Context, req *model.Request) {
	owner, err := s.users.GetByID(ctx, req.OwnerID)
	if err != nil {
		s.logger.Warn("Skipping partner-lost notification", zap.Error(err))
		return
	}
	subject, err := s.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		s.logger.Warn("Skipping partner-lost notification", zap.Error(err))
		return
	}
	if err := s.notifier.PartnerLost(ctx, owner, subject); err != nil {
		s.logger.Warn("Failed to notify user", zap.Int64("user_id", owner.ID), zap.Error(err))
	}
}
