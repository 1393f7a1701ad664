package v1

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/acodeaday/acodeaday/plugin/markdown"
	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/server/service/review"
	"github.com/acodeaday/acodeaday/store"
)

// visibleTestCasePreview is how many test cases the problem detail exposes.
const visibleTestCasePreview = 3

type problemResponse struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Difficulty     string          `json:"difficulty"`
	Pattern        string          `json:"pattern"`
	SequenceNumber int32           `json:"sequence_number"`
	Constraints    []string        `json:"constraints"`
	Examples       json.RawMessage `json:"examples,omitempty"`
	CreatedTs      int64           `json:"created_ts"`
}

type problemLanguageResponse struct {
	Language          string          `json:"language"`
	StarterCode       string          `json:"starter_code"`
	FunctionSignature json.RawMessage `json:"function_signature"`
}

type testCaseResponse struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
	Sequence int32           `json:"sequence"`
}

type problemDetailResponse struct {
	problemResponse
	Description     string                     `json:"description"`
	DescriptionHTML string                     `json:"description_html"`
	Languages       []*problemLanguageResponse `json:"languages"`
	TestCases       []*testCaseResponse        `json:"test_cases"`
	UserCode        *string                    `json:"user_code"`
	IsDue           bool                       `json:"is_due"`
}

func toProblemResponse(problem *store.Problem) problemResponse {
	resp := problemResponse{
		ID:             problem.ID,
		Title:          problem.Title,
		Slug:           problem.Slug,
		Difficulty:     string(problem.Difficulty),
		Pattern:        problem.Pattern,
		SequenceNumber: problem.SequenceNumber,
		Constraints:    problem.Constraints,
		CreatedTs:      problem.CreatedTs,
	}
	if resp.Constraints == nil {
		resp.Constraints = []string{}
	}
	if json.Valid([]byte(problem.Examples)) {
		resp.Examples = json.RawMessage(problem.Examples)
	}
	return resp
}

// ListProblems returns the catalog ordered by sequence number. An optional
// CEL `filter` query parameter narrows the list.
func (s *APIV1Service) ListProblems(c echo.Context) error {
	ctx := c.Request().Context()

	problems, err := s.Store.ListProblems(ctx, &store.FindProblem{})
	if err != nil {
		return errorResponse(c, err)
	}

	if expression := c.QueryParam("filter"); expression != "" {
		matches, err := compileProblemFilter(expression)
		if err != nil {
			return errorResponse(c, err)
		}
		filtered := make([]*store.Problem, 0, len(problems))
		for _, problem := range problems {
			matched, err := matches(problem)
			if err != nil {
				return errorResponse(c, err)
			}
			if matched {
				filtered = append(filtered, problem)
			}
		}
		problems = filtered
	}

	response := make([]problemResponse, 0, len(problems))
	for _, problem := range problems {
		response = append(response, toProblemResponse(problem))
	}
	return c.JSON(http.StatusOK, response)
}

// GetProblem returns the full problem detail: languages, a preview of the
// visible test cases, the caller's saved code, and whether a review is due.
func (s *APIV1Service) GetProblem(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)
	slug := c.Param("slug")

	problem, err := s.Store.GetProblem(ctx, &store.FindProblem{Slug: &slug})
	if err != nil {
		return errorResponse(c, err)
	}
	if problem == nil {
		return errorResponse(c, apperrors.NotFound("problem not found: "+slug))
	}

	descriptionHTML, err := markdown.Render(problem.Description)
	if err != nil {
		return errorResponse(c, err)
	}

	languages, err := s.Store.ListProblemLanguages(ctx, &store.FindProblemLanguage{ProblemID: &problem.ID})
	if err != nil {
		return errorResponse(c, err)
	}
	languageResponses := make([]*problemLanguageResponse, 0, len(languages))
	for _, lang := range languages {
		languageResponses = append(languageResponses, &problemLanguageResponse{
			Language:          string(lang.Language),
			StarterCode:       lang.StarterCode,
			FunctionSignature: json.RawMessage(lang.FunctionSignature),
		})
	}

	hidden := false
	testCases, err := s.Store.ListTestCases(ctx, &store.FindTestCase{ProblemID: &problem.ID, IsHidden: &hidden})
	if err != nil {
		return errorResponse(c, err)
	}
	if len(testCases) > visibleTestCasePreview {
		testCases = testCases[:visibleTestCasePreview]
	}
	testCaseResponses := make([]*testCaseResponse, 0, len(testCases))
	for _, tc := range testCases {
		testCaseResponses = append(testCaseResponses, &testCaseResponse{
			Input:    json.RawMessage(tc.Input),
			Expected: json.RawMessage(tc.Expected),
			Sequence: tc.Sequence,
		})
	}

	language := string(store.Python)
	userCode, err := s.Store.GetUserCode(ctx, &store.FindUserCode{
		UserID:    &userID,
		ProblemID: &problem.ID,
		Language:  &language,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	var savedCode *string
	if userCode != nil {
		savedCode = &userCode.Code
	}

	isDue, err := s.isDueForReview(c, userID, problem.ID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &problemDetailResponse{
		problemResponse: toProblemResponse(problem),
		Description:     problem.Description,
		DescriptionHTML: descriptionHTML,
		Languages:       languageResponses,
		TestCases:       testCaseResponses,
		UserCode:        savedCode,
		IsDue:           isDue,
	})
}

func (s *APIV1Service) isDueForReview(c echo.Context, userID, problemID string) (bool, error) {
	ctx := c.Request().Context()
	progress, err := s.Store.GetUserProgress(ctx, &store.FindUserProgress{UserID: &userID, ProblemID: &problemID})
	if err != nil || progress == nil {
		return false, err
	}
	if progress.IsMastered || progress.NextReviewDate == nil {
		return false, nil
	}
	return *progress.NextReviewDate <= store.FormatDate(timeNow()), nil
}

type rateProblemRequest struct {
	Rating string `json:"rating"`
}

type rateProblemResponse struct {
	Success        bool    `json:"success"`
	IntervalDays   int32   `json:"interval_days"`
	EaseFactor     float64 `json:"ease_factor"`
	NextReviewDate *string `json:"next_review_date"`
	IsMastered     bool    `json:"is_mastered"`
	ReviewCount    int32   `json:"review_count"`
	TimesSolved    int32   `json:"times_solved"`
}

// RateProblem applies a difficulty rating to the review schedule.
func (s *APIV1Service) RateProblem(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)
	problemID := c.Param("problemID")

	var req rateProblemRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed rating request"))
	}

	result, err := s.ReviewService.ApplyRating(ctx, userID, problemID, review.Rating(req.Rating))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &rateProblemResponse{
		Success:        true,
		IntervalDays:   result.IntervalDays,
		EaseFactor:     result.EaseFactor,
		NextReviewDate: result.NextReviewDate,
		IsMastered:     result.IsMastered,
		ReviewCount:    result.ReviewCount,
		TimesSolved:    result.TimesSolved,
	})
}
