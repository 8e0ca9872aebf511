package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/oa-labs/group-assessment-service/internal/apperrors"
	"github.com/oa-labs/group-assessment-service/internal/domain"
)

// WorkflowRepository implements both the command and query sides of member
// workflow persistence. The partial unique index on open assignments is
// what turns a duplicate-open race into a detectable conflict here.
type WorkflowRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewWorkflowRepository(db *sqlx.DB, log *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const workflowColumns = "id, student_id, course_id, item_id, project_uuid, created_at, completed_at, grading_completed_at"

func (r *WorkflowRepository) CreateWorkflows(ctx context.Context, tx *sqlx.Tx, workflows []domain.MemberWorkflow) (int64, error) {
	const op = "internal.repository.postgres.CreateWorkflows"

	if len(workflows) == 0 {
		return 0, nil
	}

	insertBuilder := r.sq.Insert("member_workflows").
		Columns("student_id", "course_id", "item_id", "project_uuid")

	for _, wf := range workflows {
		insertBuilder = insertBuilder.Values(wf.StudentID, wf.CourseID, wf.ItemID, wf.ProjectUUID)
	}

	query, args, err := insertBuilder.
		Suffix("ON CONFLICT (student_id, course_id, item_id, project_uuid) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	created, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to read rows affected: %w", op, err)
	}

	return created, nil
}

func (r *WorkflowRepository) GetWorkflowWithLock(ctx context.Context, tx *sqlx.Tx, item domain.StudentItem, projectUUID string) (*domain.MemberWorkflow, error) {
	const op = "internal.repository.postgres.GetWorkflowWithLock"

	query, args, err := r.sq.Select(workflowColumns).
		From("member_workflows").
		Where(sq.Eq{
			"student_id":   item.StudentID,
			"course_id":    item.CourseID,
			"item_id":      item.ItemID,
			"project_uuid": projectUUID,
		}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var wf domain.MemberWorkflow
	if err := tx.GetContext(ctx, &wf, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, &apperrors.WorkflowNotFoundError{StudentID: item.StudentID})
		}

		return nil, fmt.Errorf("%s: failed to get workflow with lock: %w", op, err)
	}

	return &wf, nil
}

func (r *WorkflowRepository) GetWorkflow(ctx context.Context, ext sqlx.ExtContext, item domain.StudentItem, projectUUID string) (*domain.MemberWorkflow, error) {
	const op = "internal.repository.postgres.GetWorkflow"

	if ext == nil {
		ext = r.db
	}

	query, args, err := r.sq.Select(workflowColumns).
		From("member_workflows").
		Where(sq.Eq{
			"student_id":   item.StudentID,
			"course_id":    item.CourseID,
			"item_id":      item.ItemID,
			"project_uuid": projectUUID,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var wf domain.MemberWorkflow
	if err := sqlx.GetContext(ctx, ext, &wf, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, &apperrors.WorkflowNotFoundError{StudentID: item.StudentID})
		}

		return nil, fmt.Errorf("%s: failed to get workflow: %w", op, err)
	}

	return &wf, nil
}

func (r *WorkflowRepository) CreateAssignment(ctx context.Context, tx *sqlx.Tx, assignment *domain.Assignment) error {
	const op = "internal.repository.postgres.CreateAssignment"

	query, args, err := r.sq.Insert("assignments").
		Columns("scorer_workflow_id", "author_workflow_id", "project_uuid").
		Values(assignment.ScorerWorkflowID, assignment.AuthorWorkflowID, assignment.ProjectUUID).
		Suffix("RETURNING id, started_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	err = tx.QueryRowxContext(ctx, query, args...).Scan(&assignment.ID, &assignment.StartedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, apperrors.ErrConcurrencyViolation)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *WorkflowRepository) ResolveAssignment(ctx context.Context, tx *sqlx.Tx, assignmentID, assessmentID int64) error {
	const op = "internal.repository.postgres.ResolveAssignment"

	// Guarded on the assignment still being open: the sole mutation an
	// assignment ever receives.
	query, args, err := r.sq.Update("assignments").
		Set("assessment_id", assessmentID).
		Where(sq.Eq{"id": assignmentID, "assessment_id": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: assignment %d", op, apperrors.ErrConcurrencyViolation, assignmentID)
	}

	return nil
}

func (r *WorkflowRepository) SetGradingCompleted(ctx context.Context, workflowID int64, completedAt time.Time) error {
	const op = "internal.repository.postgres.SetGradingCompleted"

	query, args, err := r.sq.Update("member_workflows").
		Set("grading_completed_at", completedAt).
		Where(sq.Eq{"id": workflowID, "grading_completed_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *WorkflowRepository) GetOpenAssignment(ctx context.Context, ext sqlx.ExtContext, scorerWorkflowID int64) (*domain.AssignmentWithAuthor, error) {
	const op = "internal.repository.postgres.GetOpenAssignment"

	if ext == nil {
		ext = r.db
	}

	query, args, err := r.sq.Select(
		"a.id", "a.scorer_workflow_id", "a.author_workflow_id", "a.project_uuid",
		"a.started_at", "a.assessment_id", "a.scored",
		"w.student_id AS author_student_id",
	).
		From("assignments a").
		Join("member_workflows w ON w.id = a.author_workflow_id").
		Where(sq.Eq{"a.scorer_workflow_id": scorerWorkflowID, "a.assessment_id": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var assignment domain.AssignmentWithAuthor
	if err := sqlx.GetContext(ctx, ext, &assignment, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: failed to get open assignment: %w", op, err)
	}

	return &assignment, nil
}

func (r *WorkflowRepository) GetResolvedAuthorIDs(ctx context.Context, ext sqlx.ExtContext, scorerWorkflowID int64) ([]string, error) {
	const op = "internal.repository.postgres.GetResolvedAuthorIDs"

	query, args, err := r.sq.Select("w.student_id").
		From("assignments a").
		Join("member_workflows w ON w.id = a.author_workflow_id").
		Where(sq.Eq{"a.scorer_workflow_id": scorerWorkflowID}).
		Where(sq.NotEq{"a.assessment_id": nil}).
		OrderBy("a.started_at", "a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var authorIDs []string
	if err := sqlx.SelectContext(ctx, ext, &authorIDs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select authors: %w", op, err)
	}

	return authorIDs, nil
}

func (r *WorkflowRepository) CountResolvedByScorer(ctx context.Context, scorerWorkflowID int64) (int, error) {
	const op = "internal.repository.postgres.CountResolvedByScorer"

	return r.countResolved(ctx, op, sq.Eq{"scorer_workflow_id": scorerWorkflowID})
}

func (r *WorkflowRepository) CountResolvedByAuthor(ctx context.Context, authorWorkflowID int64) (int, error) {
	const op = "internal.repository.postgres.CountResolvedByAuthor"

	return r.countResolved(ctx, op, sq.Eq{"author_workflow_id": authorWorkflowID})
}

func (r *WorkflowRepository) countResolved(ctx context.Context, op string, where sq.Eq) (int, error) {
	query, args, err := r.sq.Select("COUNT(*)").
		From("assignments").
		Where(where).
		Where(sq.NotEq{"assessment_id": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return count, nil
}
