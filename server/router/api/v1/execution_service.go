package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

type runCodeRequest struct {
	ProblemSlug string `json:"problem_slug"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

func (r *runCodeRequest) normalize() {
	if r.Language == "" {
		r.Language = string(store.Python)
	}
}

// RunCode executes code against the problem's visible test cases.
func (s *APIV1Service) RunCode(c echo.Context) error {
	ctx := c.Request().Context()

	if !s.executionLimiter.Allow(currentUserID(c)) {
		return errorResponse(c, apperrors.RateLimitExceeded("too many execution requests, slow down"))
	}

	var req runCodeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed run request"))
	}
	req.normalize()

	result, err := s.ExecutionService.RunCode(ctx, req.ProblemSlug, store.Language(req.Language), req.Code)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// SubmitCode executes code against all test cases, records the submission,
// and reports any review-ledger change.
func (s *APIV1Service) SubmitCode(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	if !s.executionLimiter.Allow(userID) {
		return errorResponse(c, apperrors.RateLimitExceeded("too many execution requests, slow down"))
	}

	var req runCodeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed submit request"))
	}
	req.normalize()

	result, err := s.ExecutionService.SubmitCode(ctx, userID, req.ProblemSlug, store.Language(req.Language), req.Code)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type submissionResponse struct {
	ID             string `json:"id"`
	ProblemID      string `json:"problem_id"`
	ProblemTitle   string `json:"problem_title"`
	Code           string `json:"code"`
	Language       string `json:"language"`
	Passed         bool   `json:"passed"`
	RuntimeMs      *int32 `json:"runtime_ms"`
	MemoryKb       *int32 `json:"memory_kb"`
	TotalTestCases int32  `json:"total_test_cases"`
	PassedCount    int32  `json:"passed_count"`
	SubmittedTs    int64  `json:"submitted_ts"`
}

// ListSubmissions returns the caller's submission history for a problem,
// most recent first.
func (s *APIV1Service) ListSubmissions(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)
	problemID := c.Param("problemID")

	problem, err := s.Store.GetProblem(ctx, &store.FindProblem{ID: &problemID})
	if err != nil {
		return errorResponse(c, err)
	}
	if problem == nil {
		return errorResponse(c, apperrors.NotFound("problem not found"))
	}

	submissions, err := s.Store.ListSubmissions(ctx, &store.FindSubmission{UserID: &userID, ProblemID: &problemID})
	if err != nil {
		return errorResponse(c, err)
	}

	response := make([]*submissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		response = append(response, &submissionResponse{
			ID:             submission.ID,
			ProblemID:      submission.ProblemID,
			ProblemTitle:   problem.Title,
			Code:           submission.Code,
			Language:       string(submission.Language),
			Passed:         submission.Passed,
			RuntimeMs:      submission.RuntimeMs,
			MemoryKb:       submission.MemoryKb,
			TotalTestCases: submission.TotalTestCases,
			PassedCount:    submission.PassedCount,
			SubmittedTs:    submission.SubmittedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}
