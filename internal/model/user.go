package model

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleStudent || r == UserRoleAdmin
}

type ExamTrack string

const (
	ExamTrackKS3    ExamTrack = "KS3"
	ExamTrackGCSE   ExamTrack = "GCSE"
	ExamTrackALevel ExamTrack = "A_LEVEL"
)

func (t ExamTrack) Valid() bool {
	return t == ExamTrackKS3 || t == ExamTrackGCSE || t == ExamTrackALevel
}

type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           UserRole  `json:"role"`
	YearGroup      int       `json:"year_group"` // 0 until the student sets it
	ExamTrack      ExamTrack `json:"exam_track,omitempty"`
	SubjectIDs     []int64   `json:"subject_ids"`
	Timeslots      []string  `json:"timeslots"` // available slot codes
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// ProfileComplete is derived on read, never stored: a profile is complete
// once the year group, exam track, at least one subject interest and at
// least one available timeslot are set.
func (u *User) ProfileComplete() bool {
	return u.YearGroup > 0 &&
		u.ExamTrack != "" &&
		len(u.SubjectIDs) > 0 &&
		len(u.Timeslots) > 0
}

// DefaultExamTrack returns the exam track implied by a year group, or ""
// for year groups outside the school range. Applied explicitly by the
// user service when the year group changes.
func DefaultExamTrack(yearGroup int) ExamTrack {
	switch {
	case yearGroup >= 7 && yearGroup <= 9:
		return ExamTrackKS3
	case yearGroup == 10 || yearGroup == 11:
		return ExamTrackGCSE
	case yearGroup == 12 || yearGroup == 13:
		return ExamTrackALevel
	}
	return ""
}
