package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tutormatch/internal/model"
	"tutormatch/internal/repository/base"
	"tutormatch/internal/service"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

var _ service.SubjectStore = (*SubjectRepository)(nil)

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) Create(ctx context.Context, subject *model.Subject) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO subjects (code, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, subject.Code, subject.Name).Scan(&subject.ID, &subject.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err, "subjects_code_key") {
			return service.ErrSubjectExists
		}
		return fmt.Errorf("create subject: %w", err)
	}

	return nil
}

func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	var subject model.Subject
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, name, created_at
		FROM subjects
		WHERE id = $1
	`, id).Scan(&subject.ID, &subject.Code, &subject.Name, &subject.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("get subject by id: %w", err)
	}

	return &subject, nil
}

func (r *SubjectRepository) GetByCode(ctx context.Context, code string) (*model.Subject, error) {
	var subject model.Subject
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, name, created_at
		FROM subjects
		WHERE code = $1
	`, code).Scan(&subject.ID, &subject.Code, &subject.Name, &subject.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("get subject by code: %w", err)
	}

	return &subject, nil
}

func (r *SubjectRepository) List(ctx context.Context) ([]*model.Subject, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, created_at
		FROM subjects
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*model.Subject
	for rows.Next() {
		var subject model.Subject
		if err := rows.Scan(&subject.ID, &subject.Code, &subject.Name, &subject.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, &subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}

	return subjects, nil
}
