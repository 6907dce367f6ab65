package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutormatch/internal/model"
	"tutormatch/internal/repository/base"
	"tutormatch/internal/service"
)

// RequestRepository is the Postgres-backed request store. Compound
// operations run inside a single transaction; status transitions are
// compare-and-set updates so racing callers fail deterministically.
type RequestRepository struct {
	pool *pgxpool.Pool
}

var _ service.RequestStore = (*RequestRepository)(nil)

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `id, user_id, type, subject_id, recurring, week_start_date, status, archived, matched_partner_id, match_ref, created_at, updated_at`

// activeStatusCond matches the activity predicate used for duplicate
// suppression: non-terminal status and not archived.
const activeStatusCond = `status IN ('pending', 'matched') AND NOT archived`

func scanRequest(row interface{ Scan(dest ...any) error }) (*model.Request, error) {
	var req model.Request
	err := row.Scan(
		&req.ID,
		&req.OwnerID,
		&req.Type,
		&req.SubjectID,
		&req.Recurring,
		&req.WeekStartDate,
		&req.Status,
		&req.Archived,
		&req.MatchedPartnerID,
		&req.MatchRef,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// loadTimeslots fills the timeslot sets for the given requests with one
// query.
func loadTimeslots(ctx context.Context, q base.Querier, requests []*model.Request) error {
	if len(requests) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Request, len(requests))
	ids := make([]int64, 0, len(requests))
	for _, req := range requests {
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT request_id, timeslot_code
		FROM request_timeslots
		WHERE request_id = ANY($1)
		ORDER BY timeslot_code
	`, ids)
	if err != nil {
		return fmt.Errorf("get request timeslots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			requestID int64
			code      string
		)
		if err := rows.Scan(&requestID, &code); err != nil {
			return fmt.Errorf("scan request timeslot: %w", err)
		}
		if req, ok := byID[requestID]; ok {
			req.Timeslots = append(req.Timeslots, code)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate request timeslots: %w", err)
	}

	return nil
}

// Create inserts the request and its timeslot rows. The duplicate check
// runs in the same transaction as the insert, and the partial unique
// index over active requests backs it up, so two racing creations for the
// same (user, subject, type) cannot both succeed.
func (r *RequestRepository) Create(ctx context.Context, req *model.Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM requests
			WHERE user_id = $1 AND subject_id = $2 AND type = $3 AND `+activeStatusCond+`
		)
	`, req.OwnerID, req.SubjectID, req.Type).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check active request: %w", err)
	}
	if exists {
		return service.ErrDuplicateActive
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO requests (user_id, type, subject_id, recurring, week_start_date, status, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`,
		req.OwnerID,
		req.Type,
		req.SubjectID,
		req.Recurring,
		req.WeekStartDate,
		req.Status,
		req.Archived,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err, "requests_one_active_idx") {
			return service.ErrDuplicateActive
		}
		return fmt.Errorf("create request: %w", err)
	}

	for _, code := range req.Timeslots {
		_, err := tx.Exec(ctx, `
			INSERT INTO request_timeslots (request_id, timeslot_code)
			VALUES ($1, $2)
		`, req.ID, code)
		if err != nil {
			return fmt.Errorf("create request timeslot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if base.IsUniqueViolation(err, "requests_one_active_idx") {
			return service.ErrDuplicateActive
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*model.Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE id = $1
	`, id)

	req, err := scanRequest(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("get request by id: %w", err)
	}

	if err := loadTimeslots(ctx, r.pool, []*model.Request{req}); err != nil {
		return nil, err
	}

	return req, nil
}

func (r *RequestRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*model.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get requests by owner: %w", err)
	}
	defer rows.Close()

	var requests []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	if err := loadTimeslots(ctx, r.pool, requests); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *RequestRepository) HasActive(ctx context.Context, ownerID, subjectID int64, typ model.RequestType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM requests
			WHERE user_id = $1 AND subject_id = $2 AND type = $3 AND `+activeStatusCond+`
		)
	`, ownerID, subjectID, typ).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active request: %w", err)
	}
	return exists, nil
}

func (r *RequestRepository) FindAllActive(ctx context.Context) ([]*model.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE NOT archived
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("get unarchived requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	if err := loadTimeslots(ctx, r.pool, requests); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *RequestRepository) TransitionStatus(ctx context.Context, id int64, from, to model.RequestStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requests
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return fmt.Errorf("transition request status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check request existence: %w", err)
		}
		if !exists {
			return service.ErrNotFound
		}
		return service.ErrStatusConflict
	}

	return nil
}

func (r *RequestRepository) Match(ctx context.Context, requestID, partnerRequestID int64, ref uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, user_id, status
		FROM requests
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, []int64{requestID, partnerRequestID})
	if err != nil {
		return fmt.Errorf("lock requests: %w", err)
	}

	owners := make(map[int64]int64, 2)
	for rows.Next() {
		var (
			id, ownerID int64
			status      model.RequestStatus
		)
		if err := rows.Scan(&id, &ownerID, &status); err != nil {
			rows.Close()
			return fmt.Errorf("scan request: %w", err)
		}
		if status != model.RequestStatusPending {
			rows.Close()
			return service.ErrStatusConflict
		}
		owners[id] = ownerID
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate requests: %w", err)
	}
	if len(owners) != 2 {
		return service.ErrNotFound
	}

	for id, partnerOwner := range map[int64]int64{
		requestID:        owners[partnerRequestID],
		partnerRequestID: owners[requestID],
	} {
		_, err := tx.Exec(ctx, `
			UPDATE requests
			SET status = 'matched', matched_partner_id = $1, match_ref = $2, updated_at = now()
			WHERE id = $3
		`, partnerOwner, ref, id)
		if err != nil {
			return fmt.Errorf("match request: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *RequestRepository) CompleteMatch(ctx context.Context, ref uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requests
		SET status = 'done', updated_at = now()
		WHERE match_ref = $1 AND status = 'matched'
	`, ref)
	if err != nil {
		return fmt.Errorf("complete match: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return service.ErrStatusConflict
	}

	return nil
}

func (r *RequestRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requests
		SET archived = $1, updated_at = now()
		WHERE id = $2
	`, archived, id)
	if err != nil {
		return fmt.Errorf("set request archived: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}

	return nil
}

func (r *RequestRepository) ArchiveExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requests
		SET archived = true, updated_at = now()
		WHERE NOT archived AND NOT recurring AND week_start_date + INTERVAL '7 days' <= $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("archive expired requests: %w", err)
	}

	return tag.RowsAffected(), nil
}
