package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/oa-labs/group-assessment-service/internal/apperrors"
	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/oa-labs/group-assessment-service/pkg/logger/sl"
)

type GroupRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewGroupRepository(db *sqlx.DB, log *slog.Logger) *GroupRepository {
	return &GroupRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *GroupRepository) CreateGroupWithMember(ctx context.Context, item domain.StudentItem, studentName, studentEmail string) (*domain.GroupWithMembers, error) {
	const op = "internal.repository.postgres.CreateGroupWithMember"
	log := r.log.With(slog.String("op", op), slog.String("student_id", item.StudentID))

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	group, err := r.insertGroup(ctx, tx, item)
	if err != nil {
		return nil, err
	}

	member, err := r.insertMember(ctx, tx, group.ID, item, studentName, studentEmail)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	log.Info("work group created", slog.String("group_uuid", group.UUID))

	return &domain.GroupWithMembers{
		Group:   *group,
		Members: []domain.GroupMember{*member},
	}, nil
}

func (r *GroupRepository) AddMemberToOpenGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string, groupSize int) (*domain.GroupWithMembers, error) {
	const op = "internal.repository.postgres.AddMemberToOpenGroup"
	log := r.log.With(slog.String("op", op), slog.String("student_id", item.StudentID))

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	// Lock the first group with a free seat so two joiners can't both take
	// the last one.
	query, args, err := r.sq.Select("g.id", "g.uuid", "g.item_id", "g.course_id", "g.created_at").
		From("work_groups g").
		Where(sq.Eq{"g.item_id": item.ItemID, "g.course_id": item.CourseID}).
		Where(sq.Expr(
			"(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) < ?", groupSize,
		)).
		OrderBy("g.created_at", "g.id").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var group domain.WorkGroup
	if err := tx.GetContext(ctx, &group, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No group has room; the caller decides whether to create one.
			return nil, nil
		}

		return nil, fmt.Errorf("%s: failed to find open group: %w", op, err)
	}

	if _, err := r.insertMember(ctx, tx, group.ID, item, studentName, studentEmail); err != nil {
		return nil, err
	}

	members, err := r.selectMembers(ctx, tx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	log.Info("student joined group", slog.String("group_uuid", group.UUID))

	return &domain.GroupWithMembers{Group: group, Members: members}, nil
}

func (r *GroupRepository) GetGroupByStudent(ctx context.Context, item domain.StudentItem) (*domain.GroupWithMembers, error) {
	const op = "internal.repository.postgres.GetGroupByStudent"

	query, args, err := r.sq.Select("g.id", "g.uuid", "g.item_id", "g.course_id", "g.created_at").
		From("work_groups g").
		Join("group_members m ON m.group_id = g.id").
		Where(sq.Eq{
			"m.student_id": item.StudentID,
			"m.item_id":    item.ItemID,
			"m.course_id":  item.CourseID,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var group domain.WorkGroup
	if err := r.db.GetContext(ctx, &group, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: no group for student '%s'", op, apperrors.ErrNotFound, item.StudentID)
		}

		return nil, fmt.Errorf("%s: failed to get group: %w", op, err)
	}

	members, err := r.selectMembers(ctx, r.db, group.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.GroupWithMembers{Group: group, Members: members}, nil
}

func (r *GroupRepository) GetGroupByUUID(ctx context.Context, groupUUID string) (*domain.GroupWithMembers, error) {
	const op = "internal.repository.postgres.GetGroupByUUID"

	query, args, err := r.sq.Select("id", "uuid", "item_id", "course_id", "created_at").
		From("work_groups").
		Where(sq.Eq{"uuid": groupUUID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var group domain.WorkGroup
	if err := r.db.GetContext(ctx, &group, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: group '%s'", op, apperrors.ErrNotFound, groupUUID)
		}

		return nil, fmt.Errorf("%s: failed to get group: %w", op, err)
	}

	members, err := r.selectMembers(ctx, r.db, group.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.GroupWithMembers{Group: group, Members: members}, nil
}

func (r *GroupRepository) insertGroup(ctx context.Context, tx *sqlx.Tx, item domain.StudentItem) (*domain.WorkGroup, error) {
	query, args, err := r.sq.Insert("work_groups").
		Columns("uuid", "item_id", "course_id").
		Values(uuid.NewString(), item.ItemID, item.CourseID).
		Suffix("RETURNING id, uuid, item_id, course_id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build group insert query: %w", err)
	}

	var group domain.WorkGroup
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&group); err != nil {
		return nil, fmt.Errorf("failed to execute group insert: %w", err)
	}

	return &group, nil
}

func (r *GroupRepository) insertMember(ctx context.Context, tx *sqlx.Tx, groupID int64, item domain.StudentItem, studentName, studentEmail string) (*domain.GroupMember, error) {
	query, args, err := r.sq.Insert("group_members").
		Columns("group_id", "student_id", "item_id", "course_id", "student_name", "student_email").
		Values(groupID, item.StudentID, item.ItemID, item.CourseID, studentName, studentEmail).
		Suffix("RETURNING id, group_id, student_id, item_id, course_id, student_name, student_email, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build member insert query: %w", err)
	}

	var member domain.GroupMember
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&member); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: student '%s'", apperrors.ErrAlreadyInGroup, item.StudentID)
		}

		return nil, fmt.Errorf("failed to execute member insert: %w", err)
	}

	return &member, nil
}

// selectMembers returns a group's members in join order. This order feeds
// the round-robin scan, so it must be deterministic.
func (r *GroupRepository) selectMembers(ctx context.Context, ext sqlx.ExtContext, groupID int64) ([]domain.GroupMember, error) {
	query, args, err := r.sq.Select("id", "group_id", "student_id", "item_id", "course_id", "student_name", "student_email", "created_at").
		From("group_members").
		Where(sq.Eq{"group_id": groupID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build members query: %w", err)
	}

	var members []domain.GroupMember
	if err := sqlx.SelectContext(ctx, ext, &members, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select members: %w", err)
	}

	return members, nil
}
