package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/oa-labs/group-assessment-service/internal/repository"
)

// ProjectService manages the shared project of a work group: one project
// per group and location, split into parts submitted by individual members.
// The first submitted part becomes the project's representative submission,
// the identifier all group feedback is anchored to.
type ProjectService interface {
	CreateProject(ctx context.Context, item domain.StudentItem) (*domain.GroupProject, error)
	SubmitPart(ctx context.Context, item domain.StudentItem, orderNum int) (*domain.ProjectPart, error)
	GetProject(ctx context.Context, item domain.StudentItem) (*domain.GroupProject, error)
}

type ProjectServiceImpl struct {
	BaseService
	groups   repository.GroupRepository
	projects repository.ProjectRepository
}

func NewProjectService(
	db Transactor,
	log *slog.Logger,
	groups repository.GroupRepository,
	projects repository.ProjectRepository,
) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		BaseService: NewBaseService(db, log),
		groups:      groups,
		projects:    projects,
	}
}

func (s *ProjectServiceImpl) CreateProject(ctx context.Context, item domain.StudentItem) (*domain.GroupProject, error) {
	const op = "internal.service.project.CreateProject"
	log := s.log.With(slog.String("op", op), slog.String("student_id", item.StudentID))

	group, err := s.groups.GetGroupByStudent(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve group: %w", op, err)
	}

	project := &domain.GroupProject{
		UUID:      uuid.NewString(),
		GroupUUID: group.Group.UUID,
		ItemID:    item.ItemID,
		CourseID:  item.CourseID,
	}

	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("%s: failed to create project: %w", op, err)
	}

	log.Info("group project created", slog.String("project_uuid", project.UUID))

	return project, nil
}

// SubmitPart records one member's part of the project. The submission body
// itself lives in the external submissions system; this service mints the
// submission UUID and records the linkage only.
func (s *ProjectServiceImpl) SubmitPart(ctx context.Context, item domain.StudentItem, orderNum int) (*domain.ProjectPart, error) {
	const op = "internal.service.project.SubmitPart"
	log := s.log.With(
		slog.String("op", op),
		slog.String("student_id", item.StudentID),
		slog.Int("order_num", orderNum),
	)

	group, err := s.groups.GetGroupByStudent(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve group: %w", op, err)
	}

	part := &domain.ProjectPart{
		StudentID:      item.StudentID,
		SubmissionUUID: uuid.NewString(),
		OrderNum:       orderNum,
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		project, err := s.projects.GetProjectWithLock(ctx, tx, group.Group.UUID, item.ItemID, item.CourseID)
		if err != nil {
			return fmt.Errorf("%s: failed to get project: %w", op, err)
		}

		part.ProjectID = project.ID

		if err := s.projects.AddPart(ctx, tx, part); err != nil {
			return fmt.Errorf("%s: failed to add part: %w", op, err)
		}

		// The first part anchors the representative submission; the update
		// is a no-op once one is set.
		if project.RepSubmissionUUID == nil {
			if err := s.projects.SetRepresentativeSubmission(ctx, tx, project.ID, part.SubmissionUUID); err != nil {
				return fmt.Errorf("%s: failed to set representative submission: %w", op, err)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Info("project part submitted", slog.String("submission_uuid", part.SubmissionUUID))

	return part, nil
}

func (s *ProjectServiceImpl) GetProject(ctx context.Context, item domain.StudentItem) (*domain.GroupProject, error) {
	const op = "internal.service.project.GetProject"

	group, err := s.groups.GetGroupByStudent(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve group: %w", op, err)
	}

	project, err := s.projects.GetProjectByGroup(ctx, group.Group.UUID, item.ItemID, item.CourseID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get project: %w", op, err)
	}

	return project, nil
}
