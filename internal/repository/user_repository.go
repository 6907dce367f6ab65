package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tutormatch/internal/model"
	"tutormatch/internal/repository/base"
	"tutormatch/internal/service"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

var _ service.UserStore = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, name, role, year_group, exam_track, telegram_chat_id, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.YearGroup,
		&user.ExamTrack,
		&user.TelegramChatID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role, year_group, exam_track, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		user.Email,
		user.Name,
		user.Role,
		user.YearGroup,
		user.ExamTrack,
		user.TelegramChatID,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err, "users_email_key") {
			return service.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	if err := r.loadProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := r.loadProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// loadProfile fills the subject-interest and timeslot join rows.
func (r *UserRepository) loadProfile(ctx context.Context, user *model.User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT subject_id
		FROM user_subjects
		WHERE user_id = $1
		ORDER BY subject_id
	`, user.ID)
	if err != nil {
		return fmt.Errorf("get user subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var subjectID int64
		if err := rows.Scan(&subjectID); err != nil {
			return fmt.Errorf("scan user subject: %w", err)
		}
		user.SubjectIDs = append(user.SubjectIDs, subjectID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate user subjects: %w", err)
	}

	slotRows, err := r.pool.Query(ctx, `
		SELECT timeslot_code
		FROM user_timeslots
		WHERE user_id = $1
		ORDER BY timeslot_code
	`, user.ID)
	if err != nil {
		return fmt.Errorf("get user timeslots: %w", err)
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var code string
		if err := slotRows.Scan(&code); err != nil {
			return fmt.Errorf("scan user timeslot: %w", err)
		}
		user.Timeslots = append(user.Timeslots, code)
	}
	if err := slotRows.Err(); err != nil {
		return fmt.Errorf("iterate user timeslots: %w", err)
	}

	return nil
}

// Update rewrites the user row and replaces the profile join rows in one
// transaction.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET name = $1, role = $2, year_group = $3, exam_track = $4, telegram_chat_id = $5
		WHERE id = $6
	`,
		user.Name,
		user.Role,
		user.YearGroup,
		user.ExamTrack,
		user.TelegramChatID,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_subjects WHERE user_id = $1`, user.ID); err != nil {
		return fmt.Errorf("clear user subjects: %w", err)
	}
	for _, subjectID := range user.SubjectIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_subjects (user_id, subject_id)
			VALUES ($1, $2)
		`, user.ID, subjectID)
		if err != nil {
			return fmt.Errorf("create user subject: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_timeslots WHERE user_id = $1`, user.ID); err != nil {
		return fmt.Errorf("clear user timeslots: %w", err)
	}
	for _, code := range user.Timeslots {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_timeslots (user_id, timeslot_code)
			VALUES ($1, $2)
		`, user.ID, code)
		if err != nil {
			return fmt.Errorf("create user timeslot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes the user, their requests, and every partner reference
// pointing at them, all in one transaction. Requests that lose their
// partner revert to not_matched and are returned for notification.
func (r *UserRepository) Delete(ctx context.Context, id int64) ([]*model.Request, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Requests still matched with the user lose their partner and revert
	// to not_matched; their owners get notified.
	rows, err := tx.Query(ctx, `
		UPDATE requests
		SET matched_partner_id = NULL, match_ref = NULL, status = 'not_matched', updated_at = now()
		WHERE matched_partner_id = $1 AND status = 'matched'
		RETURNING `+requestColumns+`
	`, id)
	if err != nil {
		return nil, fmt.Errorf("release matched requests: %w", err)
	}

	var released []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan released request: %w", err)
		}
		released = append(released, req)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate released requests: %w", err)
	}

	// Completed requests keep their terminal status but must not point at
	// a user row that is about to disappear.
	_, err = tx.Exec(ctx, `
		UPDATE requests
		SET matched_partner_id = NULL, match_ref = NULL, updated_at = now()
		WHERE matched_partner_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("clear partner references: %w", err)
	}

	// Timeslot rows cascade with the requests.
	if _, err := tx.Exec(ctx, `DELETE FROM requests WHERE user_id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete user requests: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, service.ErrNotFound
	}

	if err := loadTimeslots(ctx, tx, released); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return released, nil
}
