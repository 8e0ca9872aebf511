package http

import (
	"time"

	"github.com/oa-labs/group-assessment-service/internal/domain"
)

type groupResponse struct {
	GroupUUID string           `json:"group_uuid"`
	ItemID    string           `json:"item_id"`
	CourseID  string           `json:"course_id"`
	Members   []memberResponse `json:"members"`
}

type memberResponse struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

type projectResponse struct {
	ProjectUUID       string  `json:"project_uuid"`
	GroupUUID         string  `json:"group_uuid"`
	RepSubmissionUUID *string `json:"rep_submission_uuid,omitempty"`
}

type partResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	OrderNum       int    `json:"order_num"`
}

type initializeResponse struct {
	WorkflowsCreated int `json:"workflows_created"`
}

type nextAssignmentResponse struct {
	// Member is null when the student has no peers left to assess.
	Member *memberResponse `json:"member"`
	Done   bool            `json:"done"`
}

type assessmentResponse struct {
	AssessmentID   int64     `json:"assessment_id"`
	SubmissionUUID string    `json:"submission_uuid"`
	ScoreType      string    `json:"score_type"`
	ScoredAt       time.Time `json:"scored_at"`
}

type memberStatusResponse struct {
	Done          bool `json:"done"`
	GradedCount   int  `json:"graded_count"`
	RequiredCount int  `json:"required_count"`
}

type submissionStatusResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	FullyAssessed  bool   `json:"fully_assessed"`
}

func toGroupResponse(group *domain.GroupWithMembers) *groupResponse {
	members := make([]memberResponse, len(group.Members))
	for i, m := range group.Members {
		members[i] = memberResponse{
			StudentID:   m.StudentID,
			StudentName: m.StudentName,
		}
	}

	return &groupResponse{
		GroupUUID: group.Group.UUID,
		ItemID:    group.Group.ItemID,
		CourseID:  group.Group.CourseID,
		Members:   members,
	}
}

func toProjectResponse(project *domain.GroupProject) *projectResponse {
	return &projectResponse{
		ProjectUUID:       project.UUID,
		GroupUUID:         project.GroupUUID,
		RepSubmissionUUID: project.RepSubmissionUUID,
	}
}
