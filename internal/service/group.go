package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/oa-labs/group-assessment-service/internal/repository"
)

// GroupService is the work-group registry surface: students form and join
// groups here, and the assessment engine reads the resulting member order.
type GroupService interface {
	CreateGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string) (*domain.GroupWithMembers, error)
	JoinGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string, groupSize int) (*domain.GroupWithMembers, error)
	GetGroup(ctx context.Context, item domain.StudentItem) (*domain.GroupWithMembers, error)
}

type GroupServiceImpl struct {
	log  *slog.Logger
	repo repository.GroupRepository
}

func NewGroupService(log *slog.Logger, repo repository.GroupRepository) *GroupServiceImpl {
	return &GroupServiceImpl{
		log:  log,
		repo: repo,
	}
}

func (s *GroupServiceImpl) CreateGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string) (*domain.GroupWithMembers, error) {
	const op = "internal.service.group.CreateGroup"

	group, err := s.repo.CreateGroupWithMember(ctx, item, studentName, studentEmail)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create group: %w", op, err)
	}

	s.log.Info("group created",
		slog.String("op", op),
		slog.String("group_uuid", group.Group.UUID),
		slog.String("student_id", item.StudentID),
	)

	return group, nil
}

// JoinGroup adds the student to the first group with a free seat. A nil
// group result means every existing group is full and the caller should
// create a new one.
func (s *GroupServiceImpl) JoinGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string, groupSize int) (*domain.GroupWithMembers, error) {
	const op = "internal.service.group.JoinGroup"

	group, err := s.repo.AddMemberToOpenGroup(ctx, item, studentName, studentEmail, groupSize)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to join group: %w", op, err)
	}

	if group == nil {
		s.log.Info("no open group found", slog.String("op", op), slog.String("student_id", item.StudentID))
		return nil, nil
	}

	return group, nil
}

func (s *GroupServiceImpl) GetGroup(ctx context.Context, item domain.StudentItem) (*domain.GroupWithMembers, error) {
	const op = "internal.service.group.GetGroup"

	group, err := s.repo.GetGroupByStudent(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get group: %w", op, err)
	}

	return group, nil
}
