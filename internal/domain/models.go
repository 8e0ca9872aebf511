package domain

import "time"

// ScoreTypeGroup tags assessments produced by the group evaluation flow,
// as opposed to individual peer assessment.
const ScoreTypeGroup = "GE"

// MaxOverallFeedbackLen is the storage cap for overall assessment feedback.
// Longer feedback is truncated, not rejected.
const MaxOverallFeedbackLen = 10000

// StudentItem identifies a student at a particular location of a course.
// It is the lookup key for groups, projects and member workflows.
type StudentItem struct {
	StudentID string
	CourseID  string
	ItemID    string
}

type WorkGroup struct {
	ID        int64     `db:"id"`
	UUID      string    `db:"uuid"`
	ItemID    string    `db:"item_id"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
}

type GroupMember struct {
	ID           int64     `db:"id"`
	GroupID      int64     `db:"group_id"`
	StudentID    string    `db:"student_id"`
	ItemID       string    `db:"item_id"`
	CourseID     string    `db:"course_id"`
	StudentName  string    `db:"student_name"`
	StudentEmail string    `db:"student_email"`
	CreatedAt    time.Time `db:"created_at"`
}

// GroupWithMembers is a work group together with its member list in join
// order. Member order is significant: the round-robin scan in the
// assessment engine walks it front to back.
type GroupWithMembers struct {
	Group   WorkGroup
	Members []GroupMember
}

type GroupProject struct {
	ID                int64     `db:"id"`
	UUID              string    `db:"uuid"`
	GroupUUID         string    `db:"group_uuid"`
	RepSubmissionUUID *string   `db:"rep_submission_uuid"`
	ItemID            string    `db:"item_id"`
	CourseID          string    `db:"course_id"`
	CreatedAt         time.Time `db:"created_at"`
}

type ProjectPart struct {
	ID             int64     `db:"id"`
	ProjectID      int64     `db:"project_id"`
	StudentID      string    `db:"student_id"`
	SubmissionUUID string    `db:"submission_uuid"`
	OrderNum       int       `db:"order_num"`
	CreatedAt      time.Time `db:"created_at"`
}

// MemberWorkflow tracks one group member's grading obligations within a
// project. Exactly one exists per (student, course, item, project) tuple.
type MemberWorkflow struct {
	ID                 int64      `db:"id"`
	StudentID          string     `db:"student_id"`
	CourseID           string     `db:"course_id"`
	ItemID             string     `db:"item_id"`
	ProjectUUID        string     `db:"project_uuid"`
	CreatedAt          time.Time  `db:"created_at"`
	CompletedAt        *time.Time `db:"completed_at"`
	GradingCompletedAt *time.Time `db:"grading_completed_at"`
}

// Assignment is a directed scorer→author edge: "this member must assess
// that member". A nil AssessmentID means the assignment is still open.
type Assignment struct {
	ID               int64     `db:"id"`
	ScorerWorkflowID int64     `db:"scorer_workflow_id"`
	AuthorWorkflowID int64     `db:"author_workflow_id"`
	ProjectUUID      string    `db:"project_uuid"`
	StartedAt        time.Time `db:"started_at"`
	AssessmentID     *int64    `db:"assessment_id"`

	// Scored marks the assignment selected as authoritative for the
	// author's final score. Reserved for future aggregation.
	Scored bool `db:"scored"`
}

// AssignmentWithAuthor is an assignment joined with the author workflow's
// student id, which is what the selection flow reports back to the scorer.
type AssignmentWithAuthor struct {
	Assignment
	AuthorStudentID string `db:"author_student_id"`
}

// Assessment is the immutable record of one scorer's judgment. It is
// anchored to the project's representative submission so that feedback from
// all group members aggregates under a single identifier.
type Assessment struct {
	ID             int64     `db:"id"`
	SubmissionUUID string    `db:"submission_uuid"`
	ScorerID       string    `db:"scorer_id"`
	ScoreType      string    `db:"score_type"`
	Feedback       string    `db:"feedback"`
	ScoredAt       time.Time `db:"scored_at"`
}

// AssessmentPart is one criterion selection of an assessment: the chosen
// option, its point value and optional per-criterion feedback.
type AssessmentPart struct {
	ID            int64  `db:"id"`
	AssessmentID  int64  `db:"assessment_id"`
	CriterionName string `db:"criterion_name"`
	OptionName    string `db:"option_name"`
	Points        int    `db:"points"`
	Feedback      string `db:"feedback"`
}
