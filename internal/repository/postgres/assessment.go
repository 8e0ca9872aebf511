package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/oa-labs/group-assessment-service/internal/domain"
)

type AssessmentRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewAssessmentRepository(db *sqlx.DB, log *slog.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AssessmentRepository) CreateAssessment(ctx context.Context, tx *sqlx.Tx, assessment *domain.Assessment) (int64, error) {
	const op = "internal.repository.postgres.CreateAssessment"

	query, args, err := r.sq.Insert("assessments").
		Columns("submission_uuid", "scorer_id", "score_type", "feedback", "scored_at").
		Values(assessment.SubmissionUUID, assessment.ScorerID, assessment.ScoreType, assessment.Feedback, assessment.ScoredAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	var id int64
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	assessment.ID = id

	return id, nil
}

func (r *AssessmentRepository) CreateParts(ctx context.Context, tx *sqlx.Tx, parts []domain.AssessmentPart) error {
	const op = "internal.repository.postgres.CreateParts"

	if len(parts) == 0 {
		return nil
	}

	insertBuilder := r.sq.Insert("assessment_parts").
		Columns("assessment_id", "criterion_name", "option_name", "points", "feedback")

	for _, part := range parts {
		insertBuilder = insertBuilder.Values(part.AssessmentID, part.CriterionName, part.OptionName, part.Points, part.Feedback)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}
