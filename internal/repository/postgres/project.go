package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/oa-labs/group-assessment-service/internal/apperrors"
	"github.com/oa-labs/group-assessment-service/internal/domain"
)

type ProjectRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewProjectRepository(db *sqlx.DB, log *slog.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const projectColumns = "id, uuid, group_uuid, rep_submission_uuid, item_id, course_id, created_at"

func (r *ProjectRepository) CreateProject(ctx context.Context, project *domain.GroupProject) error {
	const op = "internal.repository.postgres.CreateProject"

	query, args, err := r.sq.Insert("group_projects").
		Columns("uuid", "group_uuid", "item_id", "course_id").
		Values(project.UUID, project.GroupUUID, project.ItemID, project.CourseID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&project.ID, &project.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("%s: %w: group '%s'", op, apperrors.ErrProjectExists, project.GroupUUID)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *ProjectRepository) GetProjectByGroup(ctx context.Context, groupUUID, itemID, courseID string) (*domain.GroupProject, error) {
	const op = "internal.repository.postgres.GetProjectByGroup"

	query, args, err := r.sq.Select(projectColumns).
		From("group_projects").
		Where(sq.Eq{"group_uuid": groupUUID, "item_id": itemID, "course_id": courseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var project domain.GroupProject
	if err := r.db.GetContext(ctx, &project, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: project for group '%s'", op, apperrors.ErrNotFound, groupUUID)
		}

		return nil, fmt.Errorf("%s: failed to get project: %w", op, err)
	}

	return &project, nil
}

func (r *ProjectRepository) GetProjectBySubmission(ctx context.Context, submissionUUID string) (*domain.GroupProject, error) {
	const op = "internal.repository.postgres.GetProjectBySubmission"

	query, args, err := r.sq.Select(projectColumns).
		From("group_projects").
		Where(sq.Eq{"rep_submission_uuid": submissionUUID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var project domain.GroupProject
	if err := r.db.GetContext(ctx, &project, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: project for submission '%s'", op, apperrors.ErrNotFound, submissionUUID)
		}

		return nil, fmt.Errorf("%s: failed to get project: %w", op, err)
	}

	return &project, nil
}

func (r *ProjectRepository) GetProjectWithLock(ctx context.Context, tx *sqlx.Tx, groupUUID, itemID, courseID string) (*domain.GroupProject, error) {
	const op = "internal.repository.postgres.GetProjectWithLock"

	query, args, err := r.sq.Select(projectColumns).
		From("group_projects").
		Where(sq.Eq{"group_uuid": groupUUID, "item_id": itemID, "course_id": courseID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var project domain.GroupProject
	if err := tx.GetContext(ctx, &project, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: project for group '%s'", op, apperrors.ErrNotFound, groupUUID)
		}

		return nil, fmt.Errorf("%s: failed to get project with lock: %w", op, err)
	}

	return &project, nil
}

func (r *ProjectRepository) AddPart(ctx context.Context, tx *sqlx.Tx, part *domain.ProjectPart) error {
	const op = "internal.repository.postgres.AddPart"

	query, args, err := r.sq.Insert("project_parts").
		Columns("project_id", "student_id", "submission_uuid", "order_num").
		Values(part.ProjectID, part.StudentID, part.SubmissionUUID, part.OrderNum).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	err = tx.QueryRowxContext(ctx, query, args...).Scan(&part.ID, &part.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("%s: %w: part %d", op, apperrors.ErrPartAlreadySubmitted, part.OrderNum)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *ProjectRepository) SetRepresentativeSubmission(ctx context.Context, tx *sqlx.Tx, projectID int64, submissionUUID string) error {
	const op = "internal.repository.postgres.SetRepresentativeSubmission"

	query, args, err := r.sq.Update("group_projects").
		Set("rep_submission_uuid", submissionUUID).
		Where(sq.Eq{"id": projectID, "rep_submission_uuid": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *ProjectRepository) GetPartBySubmission(ctx context.Context, submissionUUID string) (*domain.ProjectPart, error) {
	const op = "internal.repository.postgres.GetPartBySubmission"

	query, args, err := r.sq.Select("id", "project_id", "student_id", "submission_uuid", "order_num", "created_at").
		From("project_parts").
		Where(sq.Eq{"submission_uuid": submissionUUID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var part domain.ProjectPart
	if err := r.db.GetContext(ctx, &part, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: part for submission '%s'", op, apperrors.ErrNotFound, submissionUUID)
		}

		return nil, fmt.Errorf("%s: failed to get part: %w", op, err)
	}

	return &part, nil
}
