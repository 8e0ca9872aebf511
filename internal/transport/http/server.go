// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service
// methods, and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oa-labs/group-assessment-service/internal/apperrors"
	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/oa-labs/group-assessment-service/internal/service"
	"github.com/oa-labs/group-assessment-service/internal/validation"
	"github.com/oa-labs/group-assessment-service/pkg/logger/sl"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the dependencies for the HTTP server, including the logger
// and service interfaces.
type Server struct {
	log               *slog.Logger
	groupService      service.GroupService
	projectService    service.ProjectService
	assessmentService service.AssessmentService
}

// NewServer creates a new instance of the HTTP server.
func NewServer(
	log *slog.Logger,
	gs service.GroupService,
	ps service.ProjectService,
	as service.AssessmentService,
) *Server {
	return &Server{
		log:               log,
		groupService:      gs,
		projectService:    ps,
		assessmentService: as,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/group/create", s.createGroup)
	mux.Post("/group/join", s.joinGroup)
	mux.Get("/group", s.getGroup)

	mux.Post("/project/create", s.createProject)
	mux.Post("/project/submit-part", s.submitPart)
	mux.Get("/project", s.getProject)

	mux.Post("/assessment/initialize", s.initializeAssessment)
	mux.Post("/assessment/next", s.nextAssignment)
	mux.Post("/assessment/record", s.recordAssessment)
	mux.Get("/assessment/status", s.memberStatus)
	mux.Get("/assessment/submission-status", s.submissionStatus)

	return mux
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.createGroup"

	var req createGroupRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	group, err := s.groupService.CreateGroup(r.Context(), req.studentItem(), req.StudentName, req.StudentEmail)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*groupResponse{"group": toGroupResponse(group)})
}

func (s *Server) joinGroup(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.joinGroup"

	var req joinGroupRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	group, err := s.groupService.JoinGroup(r.Context(), req.studentItem(), req.StudentName, req.StudentEmail, req.GroupSize)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	if group == nil {
		// No group has a free seat; the client should create one instead.
		s.respond(w, http.StatusOK, map[string]*groupResponse{"group": nil})
		return
	}

	s.respond(w, http.StatusOK, map[string]*groupResponse{"group": toGroupResponse(group)})
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getGroup"

	item, err := studentItemFromQuery(r)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	group, err := s.groupService.GetGroup(r.Context(), item)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*groupResponse{"group": toGroupResponse(group)})
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.createProject"

	var req createProjectRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	project, err := s.projectService.CreateProject(r.Context(), req.studentItem())
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*projectResponse{"project": toProjectResponse(project)})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getProject"

	item, err := studentItemFromQuery(r)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	project, err := s.projectService.GetProject(r.Context(), item)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*projectResponse{"project": toProjectResponse(project)})
}

func (s *Server) submitPart(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.submitPart"

	var req submitPartRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	part, err := s.projectService.SubmitPart(r.Context(), req.studentItem(), req.OrderNum)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*partResponse{
		"part": {
			SubmissionUUID: part.SubmissionUUID,
			OrderNum:       part.OrderNum,
		},
	})
}

func (s *Server) initializeAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.initializeAssessment"

	var req initializeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	created, err := s.assessmentService.Initialize(r.Context(), req.studentItem())
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusOK, initializeResponse{WorkflowsCreated: created})
}

func (s *Server) nextAssignment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.nextAssignment"

	var req nextAssignmentRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	peer, err := s.assessmentService.NextAssignment(r.Context(), req.studentItem())
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	resp := nextAssignmentResponse{Done: peer == nil}
	if peer != nil {
		resp.Member = &memberResponse{
			StudentID:   peer.StudentID,
			StudentName: peer.StudentName,
		}
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) recordAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.recordAssessment"

	var req recordAssessmentRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	assessment, err := s.assessmentService.RecordAssessment(
		r.Context(),
		req.studentItem(),
		req.OptionsSelected,
		req.CriterionFeedback,
		req.OverallFeedback,
		req.Rubric,
	)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]assessmentResponse{
		"assessment": {
			AssessmentID:   assessment.ID,
			SubmissionUUID: assessment.SubmissionUUID,
			ScoreType:      assessment.ScoreType,
			ScoredAt:       assessment.ScoredAt,
		},
	})
}

func (s *Server) memberStatus(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.memberStatus"

	item, err := studentItemFromQuery(r)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	done, count, err := s.assessmentService.IsMemberDone(r.Context(), item)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	memberCount, err := s.assessmentService.MemberCount(r.Context(), item)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusOK, memberStatusResponse{
		Done:          done,
		GradedCount:   count,
		RequiredCount: memberCount - 1,
	})
}

func (s *Server) submissionStatus(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.submissionStatus"

	submissionUUID := r.URL.Query().Get("submission_uuid")
	if submissionUUID == "" {
		s.handleServiceError(w, op, fmt.Errorf("%w: submission_uuid is required", apperrors.ErrInvalidRequest))
		return
	}

	fullyAssessed, err := s.assessmentService.IsSubmissionFullyAssessed(r.Context(), submissionUUID)
	if err != nil {
		s.handleServiceError(w, op, err)
		return
	}

	s.respond(w, http.StatusOK, submissionStatusResponse{
		SubmissionUUID: submissionUUID,
		FullyAssessed:  fullyAssessed,
	})
}

func (r studentItemRequest) studentItem() domain.StudentItem {
	return domain.StudentItem{
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		ItemID:    r.ItemID,
	}
}

func studentItemFromQuery(r *http.Request) (domain.StudentItem, error) {
	q := r.URL.Query()

	item := domain.StudentItem{
		StudentID: q.Get("student_id"),
		CourseID:  q.Get("course_id"),
		ItemID:    q.Get("item_id"),
	}

	if item.StudentID == "" || item.CourseID == "" || item.ItemID == "" {
		return domain.StudentItem{}, fmt.Errorf("%w: student_id, course_id and item_id are required", apperrors.ErrInvalidRequest)
	}

	return item, nil
}

// respond is a helper function to encode data to JSON and write it to the
// response. It centralizes setting the Content-Type header and writing the
// status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// respondError is a convenience wrapper around respond for sending simple
// error messages.
func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// decodeAndValidate deserializes a JSON request body into a struct and then
// runs validation checks on it.
func (s *Server) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// handleServiceError provides centralized error handling for all HTTP
// handlers. It logs the internal error and maps it to a user-facing HTTP
// response.
func (s *Server) handleServiceError(w http.ResponseWriter, op string, err error) {
	log := s.log.With(slog.String("op", op))
	log.Error("service error occurred", sl.Err(err))

	var validationErr *validation.ValidationError

	switch {
	case errors.As(err, &validationErr):
		s.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, apperrors.ErrInvalidRubricSelection):
		s.respondError(w, http.StatusBadRequest, "invalid rubric selection")
	case errors.Is(err, apperrors.ErrAlreadyInGroup):
		s.respondError(w, http.StatusConflict, apperrors.ErrAlreadyInGroup.Error())
	case errors.Is(err, apperrors.ErrProjectExists):
		s.respondError(w, http.StatusConflict, apperrors.ErrProjectExists.Error())
	case errors.Is(err, apperrors.ErrPartAlreadySubmitted):
		s.respondError(w, http.StatusConflict, apperrors.ErrPartAlreadySubmitted.Error())
	case errors.Is(err, apperrors.ErrNoPendingAssignment):
		s.respondError(w, http.StatusConflict, apperrors.ErrNoPendingAssignment.Error())
	case errors.Is(err, apperrors.ErrConcurrencyViolation):
		s.respondError(w, http.StatusConflict, apperrors.ErrConcurrencyViolation.Error())
	case errors.Is(err, apperrors.ErrPeerWorkflowMissing):
		// Data-integrity failure: initialization skipped a member.
		s.respondError(w, http.StatusInternalServerError, "group assessment state is inconsistent")
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "resource not found")
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
