package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/oa-labs/group-assessment-service/internal/apperrors"
	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/oa-labs/group-assessment-service/internal/repository"
	"github.com/oa-labs/group-assessment-service/internal/rubric"
	"github.com/oa-labs/group-assessment-service/pkg/logger/sl"
)

// GroupRegistry resolves student identities to work groups. The member
// lists it returns are in join order, which the round-robin scan depends on.
type GroupRegistry interface {
	GetGroupByStudent(ctx context.Context, item domain.StudentItem) (*domain.GroupWithMembers, error)
	GetGroupByUUID(ctx context.Context, groupUUID string) (*domain.GroupWithMembers, error)
}

// ProjectRegistry resolves student identities and submission UUIDs to group
// projects and their representative submissions.
type ProjectRegistry interface {
	GetProjectByGroup(ctx context.Context, groupUUID, itemID, courseID string) (*domain.GroupProject, error)
	GetProjectBySubmission(ctx context.Context, submissionUUID string) (*domain.GroupProject, error)
	GetPartBySubmission(ctx context.Context, submissionUUID string) (*domain.ProjectPart, error)
}

// AssessmentService is the group peer-assessment engine. It decides which
// group member a student assesses next, records completed assessments, and
// answers whether a member's grading obligation is satisfied.
type AssessmentService interface {
	// Initialize creates one member workflow per group member for the
	// student's project, skipping members whose workflow already exists.
	// It returns the number of workflows created.
	Initialize(ctx context.Context, item domain.StudentItem) (int, error)

	// NextAssignment returns the group member the student must assess
	// next, or nil when every peer has been assessed. Repeated calls with
	// no intervening RecordAssessment return the same peer.
	NextAssignment(ctx context.Context, item domain.StudentItem) (*domain.GroupMember, error)

	// RecordAssessment validates the rubric selections, persists the
	// assessment against the project's representative submission, and
	// resolves the scorer's open assignment.
	RecordAssessment(
		ctx context.Context,
		item domain.StudentItem,
		optionsSelected map[string]string,
		criterionFeedback map[string]string,
		overallFeedback string,
		rub rubric.Rubric,
	) (*domain.Assessment, error)

	// IsMemberDone reports whether the student has assessed every other
	// group member, together with the number of assessments completed.
	IsMemberDone(ctx context.Context, item domain.StudentItem) (bool, int, error)

	// IsSubmissionFullyAssessed reports whether every other group member
	// has assessed the given representative submission.
	IsSubmissionFullyAssessed(ctx context.Context, submissionUUID string) (bool, error)

	// MemberCount returns the size of the student's group.
	MemberCount(ctx context.Context, item domain.StudentItem) (int, error)
}

type AssessmentServiceImpl struct {
	BaseService
	wfCmd       repository.WorkflowCommandRepository
	wfQuery     repository.WorkflowQueryRepository
	assessments repository.AssessmentRepository
	groups      GroupRegistry
	projects    ProjectRegistry
}

func NewAssessmentService(
	db Transactor,
	log *slog.Logger,
	wfCmd repository.WorkflowCommandRepository,
	wfQuery repository.WorkflowQueryRepository,
	assessments repository.AssessmentRepository,
	groups GroupRegistry,
	projects ProjectRegistry,
) *AssessmentServiceImpl {
	return &AssessmentServiceImpl{
		BaseService: NewBaseService(db, log),
		wfCmd:       wfCmd,
		wfQuery:     wfQuery,
		assessments: assessments,
		groups:      groups,
		projects:    projects,
	}
}

func (s *AssessmentServiceImpl) Initialize(ctx context.Context, item domain.StudentItem) (int, error) {
	const op = "internal.service.assessment.Initialize"
	log := s.log.With(slog.String("op", op), slog.String("student_id", item.StudentID))

	group, project, err := s.resolveGroupProject(ctx, op, item)
	if err != nil {
		return 0, err
	}

	workflows := make([]domain.MemberWorkflow, len(group.Members))
	for i, member := range group.Members {
		workflows[i] = domain.MemberWorkflow{
			StudentID:   member.StudentID,
			CourseID:    member.CourseID,
			ItemID:      member.ItemID,
			ProjectUUID: project.UUID,
		}
	}

	var created int64

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		created, err = s.wfCmd.CreateWorkflows(ctx, tx, workflows)
		if err != nil {
			return fmt.Errorf("%s: failed to create workflows: %w", op, err)
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	log.Info("workflows initialized",
		slog.String("project_uuid", project.UUID),
		slog.Int64("created", created),
		slog.Int("group_size", len(group.Members)),
	)

	return int(created), nil
}

func (s *AssessmentServiceImpl) NextAssignment(ctx context.Context, item domain.StudentItem) (*domain.GroupMember, error) {
	const op = "internal.service.assessment.NextAssignment"
	log := s.log.With(slog.String("op", op), slog.String("student_id", item.StudentID))

	group, project, err := s.resolveGroupProject(ctx, op, item)
	if err != nil {
		return nil, err
	}

	var peer *domain.GroupMember

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		// The row lock on the scorer's workflow serializes concurrent
		// NextAssignment/RecordAssessment calls for one scorer.
		wf, err := s.wfCmd.GetWorkflowWithLock(ctx, tx, item, project.UUID)
		if err != nil {
			return fmt.Errorf("%s: failed to get scorer workflow: %w", op, err)
		}

		open, err := s.wfQuery.GetOpenAssignment(ctx, tx, wf.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to get open assignment: %w", op, err)
		}

		// An unresolved assignment is returned unchanged, so polling is
		// idempotent and a scorer is never mid-assessment on two peers.
		if open != nil {
			peer = findMember(group.Members, open.AuthorStudentID)
			if peer == nil {
				return fmt.Errorf("%s: %w", op, &apperrors.PeerWorkflowMissingError{StudentID: open.AuthorStudentID})
			}

			return nil
		}

		assessed, err := s.wfQuery.GetResolvedAuthorIDs(ctx, tx, wf.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to get resolved authors: %w", op, err)
		}

		candidate := selectNextPeer(group.Members, item.StudentID, assessed)
		if candidate == nil {
			// Group exhausted. Normal control flow, not an error.
			return nil
		}

		peerItem := domain.StudentItem{
			StudentID: candidate.StudentID,
			CourseID:  candidate.CourseID,
			ItemID:    candidate.ItemID,
		}

		peerWf, err := s.wfQuery.GetWorkflow(ctx, tx, peerItem, project.UUID)
		if err != nil {
			// Only a genuinely absent workflow is a data-integrity problem;
			// infrastructure failures pass through untouched.
			if errors.Is(err, apperrors.ErrWorkflowNotFound) {
				return fmt.Errorf("%s: %w", op, &apperrors.PeerWorkflowMissingError{StudentID: candidate.StudentID})
			}

			return fmt.Errorf("%s: failed to get peer workflow: %w", op, err)
		}

		assignment := &domain.Assignment{
			ScorerWorkflowID: wf.ID,
			AuthorWorkflowID: peerWf.ID,
			ProjectUUID:      project.UUID,
		}

		if err := s.wfCmd.CreateAssignment(ctx, tx, assignment); err != nil {
			return fmt.Errorf("%s: failed to create assignment: %w", op, err)
		}

		peer = candidate

		return nil
	})

	if err != nil {
		return nil, err
	}

	if peer == nil {
		log.Info("no members left to assess")
		return nil, nil
	}

	log.Info("next member to assess", slog.String("author_id", peer.StudentID))

	return peer, nil
}

func (s *AssessmentServiceImpl) RecordAssessment(
	ctx context.Context,
	item domain.StudentItem,
	optionsSelected map[string]string,
	criterionFeedback map[string]string,
	overallFeedback string,
	rub rubric.Rubric,
) (*domain.Assessment, error) {
	const op = "internal.service.assessment.RecordAssessment"
	log := s.log.With(slog.String("op", op), slog.String("student_id", item.StudentID))

	// Rubric resolution happens before any persistence so that an invalid
	// selection leaves no partial state behind.
	selections, err := rub.ResolveSelections(optionsSelected)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, project, err := s.resolveGroupProject(ctx, op, item)
	if err != nil {
		return nil, err
	}

	if project.RepSubmissionUUID == nil {
		return nil, fmt.Errorf("%s: %w: project '%s' has no representative submission", op, apperrors.ErrNotFound, project.UUID)
	}

	assessment := &domain.Assessment{
		SubmissionUUID: *project.RepSubmissionUUID,
		ScorerID:       item.StudentID,
		ScoreType:      domain.ScoreTypeGroup,
		Feedback:       truncateFeedback(overallFeedback),
		ScoredAt:       time.Now().UTC(),
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		wf, err := s.wfCmd.GetWorkflowWithLock(ctx, tx, item, project.UUID)
		if err != nil {
			return fmt.Errorf("%s: failed to get scorer workflow: %w", op, err)
		}

		open, err := s.wfQuery.GetOpenAssignment(ctx, tx, wf.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to get open assignment: %w", op, err)
		}

		if open == nil {
			return fmt.Errorf("%s: %w: scorer '%s'", op, apperrors.ErrNoPendingAssignment, item.StudentID)
		}

		assessmentID, err := s.assessments.CreateAssessment(ctx, tx, assessment)
		if err != nil {
			return fmt.Errorf("%s: failed to create assessment: %w", op, err)
		}

		assessment.ID = assessmentID

		parts := buildParts(assessmentID, selections, criterionFeedback)
		if err := s.assessments.CreateParts(ctx, tx, parts); err != nil {
			return fmt.Errorf("%s: failed to create assessment parts: %w", op, err)
		}

		if err := s.wfCmd.ResolveAssignment(ctx, tx, open.ID, assessmentID); err != nil {
			return fmt.Errorf("%s: failed to resolve assignment: %w", op, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Info("assessment recorded",
		slog.String("submission_uuid", assessment.SubmissionUUID),
		slog.Int64("assessment_id", assessment.ID),
	)

	return assessment, nil
}

func (s *AssessmentServiceImpl) IsMemberDone(ctx context.Context, item domain.StudentItem) (bool, int, error) {
	const op = "internal.service.assessment.IsMemberDone"

	group, project, err := s.resolveGroupProject(ctx, op, item)
	if err != nil {
		return false, 0, err
	}

	wf, err := s.wfQuery.GetWorkflow(ctx, nil, item, project.UUID)
	if err != nil {
		return false, 0, fmt.Errorf("%s: failed to get workflow: %w", op, err)
	}

	count, err := s.wfQuery.CountResolvedByScorer(ctx, wf.ID)
	if err != nil {
		return false, 0, fmt.Errorf("%s: failed to count resolved assignments: %w", op, err)
	}

	required := len(group.Members) - 1
	done := count >= required

	// Stamp the workflow the first time the obligation is satisfied.
	// Best effort: the completion answer does not depend on the stamp.
	if done && wf.GradingCompletedAt == nil {
		if err := s.wfCmd.SetGradingCompleted(ctx, wf.ID, time.Now().UTC()); err != nil {
			s.log.Error("failed to stamp grading completion", slog.String("op", op), sl.Err(err))
		}
	}

	return done, count, nil
}

func (s *AssessmentServiceImpl) IsSubmissionFullyAssessed(ctx context.Context, submissionUUID string) (bool, error) {
	const op = "internal.service.assessment.IsSubmissionFullyAssessed"

	project, err := s.projects.GetProjectBySubmission(ctx, submissionUUID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to resolve project: %w", op, err)
	}

	part, err := s.projects.GetPartBySubmission(ctx, submissionUUID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to resolve submission part: %w", op, err)
	}

	group, err := s.groups.GetGroupByUUID(ctx, project.GroupUUID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to resolve group: %w", op, err)
	}

	authorItem := domain.StudentItem{
		StudentID: part.StudentID,
		CourseID:  project.CourseID,
		ItemID:    project.ItemID,
	}

	wf, err := s.wfQuery.GetWorkflow(ctx, nil, authorItem, project.UUID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to get author workflow: %w", op, err)
	}

	count, err := s.wfQuery.CountResolvedByAuthor(ctx, wf.ID)
	if err != nil {
		return false, fmt.Errorf("%s: failed to count inbound assessments: %w", op, err)
	}

	return count >= len(group.Members)-1, nil
}

func (s *AssessmentServiceImpl) MemberCount(ctx context.Context, item domain.StudentItem) (int, error) {
	const op = "internal.service.assessment.MemberCount"

	group, err := s.groups.GetGroupByStudent(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to resolve group: %w", op, err)
	}

	return len(group.Members), nil
}

func (s *AssessmentServiceImpl) resolveGroupProject(ctx context.Context, op string, item domain.StudentItem) (*domain.GroupWithMembers, *domain.GroupProject, error) {
	group, err := s.groups.GetGroupByStudent(ctx, item)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to resolve group: %w", op, err)
	}

	project, err := s.projects.GetProjectByGroup(ctx, group.Group.UUID, item.ItemID, item.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to resolve project: %w", op, err)
	}

	return group, project, nil
}

// selectNextPeer walks the group's member list in join order and returns
// the first member who is neither the scorer nor already assessed by them.
func selectNextPeer(members []domain.GroupMember, scorerID string, assessed []string) *domain.GroupMember {
	assessedSet := make(map[string]struct{}, len(assessed))
	for _, id := range assessed {
		assessedSet[id] = struct{}{}
	}

	for i := range members {
		if members[i].StudentID == scorerID {
			continue
		}

		if _, ok := assessedSet[members[i].StudentID]; ok {
			continue
		}

		return &members[i]
	}

	return nil
}

func findMember(members []domain.GroupMember, studentID string) *domain.GroupMember {
	for i := range members {
		if members[i].StudentID == studentID {
			return &members[i]
		}
	}

	return nil
}

// truncateFeedback caps overall feedback at MaxOverallFeedbackLen
// characters, not bytes: the column is VARCHAR(10000), which counts
// characters, and a byte-level cut could split a multibyte rune.
func truncateFeedback(feedback string) string {
	if utf8.RuneCountInString(feedback) <= domain.MaxOverallFeedbackLen {
		return feedback
	}

	return string([]rune(feedback)[:domain.MaxOverallFeedbackLen])
}

func buildParts(assessmentID int64, selections []rubric.Selection, criterionFeedback map[string]string) []domain.AssessmentPart {
	parts := make([]domain.AssessmentPart, len(selections))
	for i, sel := range selections {
		parts[i] = domain.AssessmentPart{
			AssessmentID:  assessmentID,
			CriterionName: sel.CriterionName,
			OptionName:    sel.OptionName,
			Points:        sel.Points,
			// Feedback for criteria outside the rubric is dropped, not an
			// error: it matches selections one to one.
			Feedback: criterionFeedback[sel.CriterionName],
		}
	}

	return parts
}
