package http

import (
	"context"

	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/oa-labs/group-assessment-service/internal/rubric"
	"github.com/oa-labs/group-assessment-service/internal/service"
	"github.com/stretchr/testify/mock"
)

type GroupServiceMock struct {
	mock.Mock
}

var _ service.GroupService = (*GroupServiceMock)(nil)

func (m *GroupServiceMock) CreateGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string) (*domain.GroupWithMembers, error) {
	args := m.Called(ctx, item, studentName, studentEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupWithMembers), args.Error(1)
}

func (m *GroupServiceMock) JoinGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string, groupSize int) (*domain.GroupWithMembers, error) {
	args := m.Called(ctx, item, studentName, studentEmail, groupSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupWithMembers), args.Error(1)
}

func (m *GroupServiceMock) GetGroup(ctx context.Context, item domain.StudentItem) (*domain.GroupWithMembers, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupWithMembers), args.Error(1)
}

type ProjectServiceMock struct {
	mock.Mock
}

var _ service.ProjectService = (*ProjectServiceMock)(nil)

func (m *ProjectServiceMock) CreateProject(ctx context.Context, item domain.StudentItem) (*domain.GroupProject, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupProject), args.Error(1)
}

func (m *ProjectServiceMock) SubmitPart(ctx context.Context, item domain.StudentItem, orderNum int) (*domain.ProjectPart, error) {
	args := m.Called(ctx, item, orderNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ProjectPart), args.Error(1)
}

func (m *ProjectServiceMock) GetProject(ctx context.Context, item domain.StudentItem) (*domain.GroupProject, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupProject), args.Error(1)
}

type AssessmentServiceMock struct {
	mock.Mock
}

var _ service.AssessmentService = (*AssessmentServiceMock)(nil)

func (m *AssessmentServiceMock) Initialize(ctx context.Context, item domain.StudentItem) (int, error) {
	args := m.Called(ctx, item)
	return args.Int(0), args.Error(1)
}

func (m *AssessmentServiceMock) NextAssignment(ctx context.Context, item domain.StudentItem) (*domain.GroupMember, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupMember), args.Error(1)
}

func (m *AssessmentServiceMock) RecordAssessment(
	ctx context.Context,
	item domain.StudentItem,
	optionsSelected map[string]string,
	criterionFeedback map[string]string,
	overallFeedback string,
	rub rubric.Rubric,
) (*domain.Assessment, error) {
	args := m.Called(ctx, item, optionsSelected, criterionFeedback, overallFeedback, rub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Assessment), args.Error(1)
}

func (m *AssessmentServiceMock) IsMemberDone(ctx context.Context, item domain.StudentItem) (bool, int, error) {
	args := m.Called(ctx, item)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *AssessmentServiceMock) IsSubmissionFullyAssessed(ctx context.Context, submissionUUID string) (bool, error) {
	args := m.Called(ctx, submissionUUID)
	return args.Bool(0), args.Error(1)
}

func (m *AssessmentServiceMock) MemberCount(ctx context.Context, item domain.StudentItem) (int, error) {
	args := m.Called(ctx, item)
	return args.Int(0), args.Error(1)
}
