package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/oa-labs/group-assessment-service/internal/repository"
	"github.com/stretchr/testify/mock"
)

type GroupRepositoryMock struct {
	mock.Mock
}

var _ repository.GroupRepository = (*GroupRepositoryMock)(nil)

func (m *GroupRepositoryMock) CreateGroupWithMember(ctx context.Context, item domain.StudentItem, studentName, studentEmail string) (*domain.GroupWithMembers, error) {
	args := m.Called(ctx, item, studentName, studentEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupWithMembers), args.Error(1)
}

func (m *GroupRepositoryMock) AddMemberToOpenGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string, groupSize int) (*domain.GroupWithMembers, error) {
	args := m.Called(ctx, item, studentName, studentEmail, groupSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupWithMembers), args.Error(1)
}

func (m *GroupRepositoryMock) GetGroupByStudent(ctx context.Context, item domain.StudentItem) (*domain.GroupWithMembers, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupWithMembers), args.Error(1)
}

func (m *GroupRepositoryMock) GetGroupByUUID(ctx context.Context, groupUUID string) (*domain.GroupWithMembers, error) {
	args := m.Called(ctx, groupUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupWithMembers), args.Error(1)
}

type ProjectRepositoryMock struct {
	mock.Mock
}

var _ repository.ProjectRepository = (*ProjectRepositoryMock)(nil)

func (m *ProjectRepositoryMock) CreateProject(ctx context.Context, project *domain.GroupProject) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *ProjectRepositoryMock) GetProjectByGroup(ctx context.Context, groupUUID, itemID, courseID string) (*domain.GroupProject, error) {
	args := m.Called(ctx, groupUUID, itemID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupProject), args.Error(1)
}

func (m *ProjectRepositoryMock) GetProjectBySubmission(ctx context.Context, submissionUUID string) (*domain.GroupProject, error) {
	args := m.Called(ctx, submissionUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupProject), args.Error(1)
}

func (m *ProjectRepositoryMock) GetProjectWithLock(ctx context.Context, tx *sqlx.Tx, groupUUID, itemID, courseID string) (*domain.GroupProject, error) {
	args := m.Called(ctx, tx, groupUUID, itemID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.GroupProject), args.Error(1)
}

func (m *ProjectRepositoryMock) AddPart(ctx context.Context, tx *sqlx.Tx, part *domain.ProjectPart) error {
	args := m.Called(ctx, tx, part)
	return args.Error(0)
}

func (m *ProjectRepositoryMock) SetRepresentativeSubmission(ctx context.Context, tx *sqlx.Tx, projectID int64, submissionUUID string) error {
	args := m.Called(ctx, tx, projectID, submissionUUID)
	return args.Error(0)
}

func (m *ProjectRepositoryMock) GetPartBySubmission(ctx context.Context, submissionUUID string) (*domain.ProjectPart, error) {
	args := m.Called(ctx, submissionUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ProjectPart), args.Error(1)
}

type WorkflowCommandRepositoryMock struct {
	mock.Mock
}

var _ repository.WorkflowCommandRepository = (*WorkflowCommandRepositoryMock)(nil)

func (m *WorkflowCommandRepositoryMock) CreateWorkflows(ctx context.Context, tx *sqlx.Tx, workflows []domain.MemberWorkflow) (int64, error) {
	args := m.Called(ctx, tx, workflows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WorkflowCommandRepositoryMock) GetWorkflowWithLock(ctx context.Context, tx *sqlx.Tx, item domain.StudentItem, projectUUID string) (*domain.MemberWorkflow, error) {
	args := m.Called(ctx, tx, item, projectUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.MemberWorkflow), args.Error(1)
}

func (m *WorkflowCommandRepositoryMock) CreateAssignment(ctx context.Context, tx *sqlx.Tx, assignment *domain.Assignment) error {
	args := m.Called(ctx, tx, assignment)
	return args.Error(0)
}

func (m *WorkflowCommandRepositoryMock) ResolveAssignment(ctx context.Context, tx *sqlx.Tx, assignmentID, assessmentID int64) error {
	args := m.Called(ctx, tx, assignmentID, assessmentID)
	return args.Error(0)
}

func (m *WorkflowCommandRepositoryMock) SetGradingCompleted(ctx context.Context, workflowID int64, completedAt time.Time) error {
	args := m.Called(ctx, workflowID, completedAt)
	return args.Error(0)
}

type WorkflowQueryRepositoryMock struct {
	mock.Mock
}

var _ repository.WorkflowQueryRepository = (*WorkflowQueryRepositoryMock)(nil)

func (m *WorkflowQueryRepositoryMock) GetWorkflow(ctx context.Context, ext sqlx.ExtContext, item domain.StudentItem, projectUUID string) (*domain.MemberWorkflow, error) {
	args := m.Called(ctx, ext, item, projectUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.MemberWorkflow), args.Error(1)
}

func (m *WorkflowQueryRepositoryMock) GetOpenAssignment(ctx context.Context, ext sqlx.ExtContext, scorerWorkflowID int64) (*domain.AssignmentWithAuthor, error) {
	args := m.Called(ctx, ext, scorerWorkflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AssignmentWithAuthor), args.Error(1)
}

func (m *WorkflowQueryRepositoryMock) GetResolvedAuthorIDs(ctx context.Context, ext sqlx.ExtContext, scorerWorkflowID int64) ([]string, error) {
	args := m.Called(ctx, ext, scorerWorkflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *WorkflowQueryRepositoryMock) CountResolvedByScorer(ctx context.Context, scorerWorkflowID int64) (int, error) {
	args := m.Called(ctx, scorerWorkflowID)
	return args.Int(0), args.Error(1)
}

func (m *WorkflowQueryRepositoryMock) CountResolvedByAuthor(ctx context.Context, authorWorkflowID int64) (int, error) {
	args := m.Called(ctx, authorWorkflowID)
	return args.Int(0), args.Error(1)
}

type AssessmentRepositoryMock struct {
	mock.Mock
}

var _ repository.AssessmentRepository = (*AssessmentRepositoryMock)(nil)

func (m *AssessmentRepositoryMock) CreateAssessment(ctx context.Context, tx *sqlx.Tx, assessment *domain.Assessment) (int64, error) {
	args := m.Called(ctx, tx, assessment)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AssessmentRepositoryMock) CreateParts(ctx context.Context, tx *sqlx.Tx, parts []domain.AssessmentPart) error {
	args := m.Called(ctx, tx, parts)
	return args.Error(0)
}

type TransactorMock struct {
	mock.Mock
}

func (m *TransactorMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	var tx *sqlx.Tx

	args := m.Called(ctx, opts)
	if args.Get(0) != nil {
		tx = args.Get(0).(*sqlx.Tx)
	}

	return tx, args.Error(1)
}
