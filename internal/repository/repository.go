// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the
// service layer; the assessment engine receives them as injected
// collaborators rather than performing ambient lookups.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oa-labs/group-assessment-service/internal/domain"
)

// GroupRepository is the work-group registry: it resolves a student identity
// to the group they belong to and the ordered set of members in that group.
// Member order is join order and is stable across calls.
type GroupRepository interface {
	// CreateGroupWithMember creates a new group with the given student as
	// its first member. The operation is transactional. It returns
	// apperrors.ErrAlreadyInGroup if the student already belongs to a group
	// at this location.
	CreateGroupWithMember(ctx context.Context, item domain.StudentItem, studentName, studentEmail string) (*domain.GroupWithMembers, error)

	// AddMemberToOpenGroup joins the student to the first group at this
	// location that has fewer than groupSize members. It returns (nil, nil)
	// when every group is full, and apperrors.ErrAlreadyInGroup if the
	// student is already a member of some group.
	AddMemberToOpenGroup(ctx context.Context, item domain.StudentItem, studentName, studentEmail string, groupSize int) (*domain.GroupWithMembers, error)

	// GetGroupByStudent returns the group the student belongs to for this
	// location, with members in join order.
	// It returns apperrors.ErrNotFound if the student is in no group.
	GetGroupByStudent(ctx context.Context, item domain.StudentItem) (*domain.GroupWithMembers, error)

	// GetGroupByUUID returns a group and its members by group UUID.
	GetGroupByUUID(ctx context.Context, groupUUID string) (*domain.GroupWithMembers, error)
}

// ProjectRepository is the project registry: it resolves groups to their
// shared project and anchors the project's representative submission.
type ProjectRepository interface {
	// CreateProject inserts a new project row. It returns
	// apperrors.ErrProjectExists if the group already has a project at
	// this location.
	CreateProject(ctx context.Context, project *domain.GroupProject) error

	// GetProjectByGroup returns the project of a group at a location, or
	// apperrors.ErrNotFound.
	GetProjectByGroup(ctx context.Context, groupUUID, itemID, courseID string) (*domain.GroupProject, error)

	// GetProjectBySubmission resolves a representative submission UUID to
	// its project, or apperrors.ErrNotFound.
	GetProjectBySubmission(ctx context.Context, submissionUUID string) (*domain.GroupProject, error)

	// GetProjectWithLock loads a project row under FOR UPDATE so part
	// submission and representative-submission anchoring serialize per
	// project.
	GetProjectWithLock(ctx context.Context, tx *sqlx.Tx, groupUUID, itemID, courseID string) (*domain.GroupProject, error)

	// AddPart inserts a project part. It returns
	// apperrors.ErrPartAlreadySubmitted when the part's order number is
	// already taken for this project.
	AddPart(ctx context.Context, tx *sqlx.Tx, part *domain.ProjectPart) error

	// SetRepresentativeSubmission anchors the project's representative
	// submission. It is a no-op if one is already set.
	SetRepresentativeSubmission(ctx context.Context, tx *sqlx.Tx, projectID int64, submissionUUID string) error

	// GetPartBySubmission resolves a submission UUID to the project part it
	// was recorded for, or apperrors.ErrNotFound.
	GetPartBySubmission(ctx context.Context, submissionUUID string) (*domain.ProjectPart, error)
}

// WorkflowCommandRepository covers write and locking operations on member
// workflows and assignments. All methods run within a transaction unless
// noted otherwise.
type WorkflowCommandRepository interface {
	// CreateWorkflows bulk-inserts member workflows, skipping rows whose
	// identity tuple already exists. It returns the number of rows
	// actually created, which makes initialization idempotent.
	CreateWorkflows(ctx context.Context, tx *sqlx.Tx, workflows []domain.MemberWorkflow) (int64, error)

	// GetWorkflowWithLock loads a member workflow by identity and acquires
	// a row-level lock. The lock is the per-scorer mutual exclusion for
	// the check-open-else-create sequence.
	// It returns apperrors.ErrWorkflowNotFound if no workflow exists.
	GetWorkflowWithLock(ctx context.Context, tx *sqlx.Tx, item domain.StudentItem, projectUUID string) (*domain.MemberWorkflow, error)

	// CreateAssignment inserts a new open assignment. It returns
	// apperrors.ErrConcurrencyViolation if the scorer already has an open
	// assignment (partial unique index).
	CreateAssignment(ctx context.Context, tx *sqlx.Tx, assignment *domain.Assignment) error

	// ResolveAssignment attaches an assessment to an open assignment. The
	// update is guarded on the assignment still being open; it returns
	// apperrors.ErrConcurrencyViolation when another writer resolved it
	// first.
	ResolveAssignment(ctx context.Context, tx *sqlx.Tx, assignmentID, assessmentID int64) error

	// SetGradingCompleted stamps the workflow's grading_completed_at the
	// first time the member's obligation is satisfied.
	SetGradingCompleted(ctx context.Context, workflowID int64, completedAt time.Time) error
}

// WorkflowQueryRepository covers read-only workflow and assignment lookups.
// Methods taking sqlx.ExtContext can run inside a transaction or directly
// on the connection pool.
type WorkflowQueryRepository interface {
	// GetWorkflow loads a member workflow by identity without locking.
	// It returns apperrors.ErrWorkflowNotFound if no workflow exists.
	GetWorkflow(ctx context.Context, ext sqlx.ExtContext, item domain.StudentItem, projectUUID string) (*domain.MemberWorkflow, error)

	// GetOpenAssignment returns the scorer's open assignment joined with
	// the author's student id, or (nil, nil) when the scorer has none.
	// "No open assignment" is normal control flow, not an error.
	GetOpenAssignment(ctx context.Context, ext sqlx.ExtContext, scorerWorkflowID int64) (*domain.AssignmentWithAuthor, error)

	// GetResolvedAuthorIDs returns the student ids of every author the
	// scorer has already assessed (assignments with an attached
	// assessment).
	GetResolvedAuthorIDs(ctx context.Context, ext sqlx.ExtContext, scorerWorkflowID int64) ([]string, error)

	// CountResolvedByScorer counts the scorer's resolved assignments.
	CountResolvedByScorer(ctx context.Context, scorerWorkflowID int64) (int, error)

	// CountResolvedByAuthor counts resolved assignments in which the given
	// workflow is the author being graded.
	CountResolvedByAuthor(ctx context.Context, authorWorkflowID int64) (int, error)
}

// AssessmentRepository persists completed assessments and their
// per-criterion parts. Assessments are immutable once written.
type AssessmentRepository interface {
	// CreateAssessment inserts an assessment row and returns its id.
	CreateAssessment(ctx context.Context, tx *sqlx.Tx, assessment *domain.Assessment) (int64, error)

	// CreateParts inserts the assessment's criterion selections.
	CreateParts(ctx context.Context, tx *sqlx.Tx, parts []domain.AssessmentPart) error
}
