package http

import "github.com/oa-labs/group-assessment-service/internal/rubric"

// studentItemRequest is embedded in every request that acts on behalf of a
// student at a course location.
type studentItemRequest struct {
	StudentID string `json:"student_id" validate:"required,custom_id,min=1,max=40"`
	CourseID  string `json:"course_id" validate:"required,custom_id,min=1,max=40"`
	ItemID    string `json:"item_id" validate:"required,min=1,max=128"`
}

type createGroupRequest struct {
	studentItemRequest
	StudentName  string `json:"student_name" validate:"required,min=1,max=120"`
	StudentEmail string `json:"student_email" validate:"required,email,max=120"`
}

type joinGroupRequest struct {
	studentItemRequest
	StudentName  string `json:"student_name" validate:"required,min=1,max=120"`
	StudentEmail string `json:"student_email" validate:"required,email,max=120"`
	GroupSize    int    `json:"group_size" validate:"required,min=2,max=50"`
}

type createProjectRequest struct {
	studentItemRequest
}

type submitPartRequest struct {
	studentItemRequest
	OrderNum int `json:"order_num" validate:"min=0,max=100"`
}

type initializeRequest struct {
	studentItemRequest
}

type nextAssignmentRequest struct {
	studentItemRequest
}

type recordAssessmentRequest struct {
	studentItemRequest
	OptionsSelected   map[string]string `json:"options_selected" validate:"required,min=1"`
	CriterionFeedback map[string]string `json:"criterion_feedback"`
	OverallFeedback   string            `json:"overall_feedback"`
	Rubric            rubric.Rubric     `json:"rubric" validate:"required"`
}
