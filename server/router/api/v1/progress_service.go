package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/acodeaday/acodeaday/store"
)

type progressSummary struct {
	TimesSolved    int32   `json:"times_solved"`
	LastSolvedTs   *int64  `json:"last_solved_ts"`
	NextReviewDate *string `json:"next_review_date"`
	IsMastered     bool    `json:"is_mastered"`
	ShowAgain      bool    `json:"show_again"`
	EaseFactor     float64 `json:"ease_factor"`
	IntervalDays   int32   `json:"interval_days"`
	ReviewCount    int32   `json:"review_count"`
}

func toProgressSummary(progress *store.UserProgress) *progressSummary {
	if progress == nil {
		return nil
	}
	return &progressSummary{
		TimesSolved:    progress.TimesSolved,
		LastSolvedTs:   progress.LastSolvedTs,
		NextReviewDate: progress.NextReviewDate,
		IsMastered:     progress.IsMastered,
		ShowAgain:      progress.ShowAgain,
		EaseFactor:     progress.EaseFactor,
		IntervalDays:   progress.IntervalDays,
		ReviewCount:    progress.ReviewCount,
	}
}

type reviewItemResponse struct {
	Problem  problemResponse  `json:"problem"`
	Progress *progressSummary `json:"user_progress"`
}

type todayResponse struct {
	ReviewProblems []*reviewItemResponse `json:"review_problems"`
	NewProblem     *problemResponse      `json:"new_problem"`
	TotalMastered  int                   `json:"total_mastered"`
	TotalSolved    int                   `json:"total_solved"`
}

// GetToday returns the daily session: up to two due reviews plus one new problem.
func (s *APIV1Service) GetToday(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	session, err := s.ReviewService.GetTodaysProblems(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}
	stats, err := s.ReviewService.GetUserProgressStats(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	reviews := make([]*reviewItemResponse, 0, len(session.Reviews))
	for _, item := range session.Reviews {
		reviews = append(reviews, &reviewItemResponse{
			Problem:  toProblemResponse(item.Problem),
			Progress: toProgressSummary(item.Progress),
		})
	}
	var newProblem *problemResponse
	if session.NewProblem != nil {
		resp := toProblemResponse(session.NewProblem)
		newProblem = &resp
	}

	return c.JSON(http.StatusOK, &todayResponse{
		ReviewProblems: reviews,
		NewProblem:     newProblem,
		TotalMastered:  stats.MasteredCount,
		TotalSolved:    stats.SolvedCount,
	})
}

type progressResponse struct {
	Problems          []*reviewItemResponse    `json:"problems"`
	TotalProblems     int                      `json:"total_problems"`
	CompletedProblems int                      `json:"completed_problems"`
	MasteredProblems  int                      `json:"mastered_problems"`
	DueCount          int                      `json:"due_count"`
	ByDifficulty      map[store.Difficulty]int `json:"mastered_by_difficulty"`
	ByPattern         map[string]int           `json:"mastered_by_pattern"`
}

// GetProgress returns every catalog problem with the caller's ledger entry.
func (s *APIV1Service) GetProgress(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	problems, err := s.ReviewService.GetAllProblemsWithProgress(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}
	stats, err := s.ReviewService.GetUserProgressStats(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	items := make([]*reviewItemResponse, 0, len(problems))
	for _, entry := range problems {
		items = append(items, &reviewItemResponse{
			Problem:  toProblemResponse(entry.Problem),
			Progress: toProgressSummary(entry.Progress),
		})
	}

	return c.JSON(http.StatusOK, &progressResponse{
		Problems:          items,
		TotalProblems:     stats.TotalProblems,
		CompletedProblems: stats.SolvedCount,
		MasteredProblems:  stats.MasteredCount,
		DueCount:          stats.DueCount,
		ByDifficulty:      stats.ByDifficulty,
		ByPattern:         stats.ByPattern,
	})
}

type masteredItemResponse struct {
	Problem        problemResponse     `json:"problem"`
	Progress       *progressSummary    `json:"user_progress"`
	LastSubmission *submissionResponse `json:"last_submission"`
}

type masteredResponse struct {
	MasteredProblems []*masteredItemResponse `json:"mastered_problems"`
}

// GetMastered lists mastered problems with their most recent submission.
func (s *APIV1Service) GetMastered(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	mastered, err := s.ReviewService.GetMasteredProblems(ctx, userID)
	if err != nil {
		return errorResponse(c, err)
	}

	items := make([]*masteredItemResponse, 0, len(mastered))
	for _, item := range mastered {
		entry := &masteredItemResponse{
			Problem:  toProblemResponse(item.Problem),
			Progress: toProgressSummary(item.Progress),
		}
		submission, err := s.Store.GetLastSubmission(ctx, &store.FindSubmission{
			UserID:    &userID,
			ProblemID: &item.Problem.ID,
		})
		if err != nil {
			return errorResponse(c, err)
		}
		if submission != nil {
			entry.LastSubmission = &submissionResponse{
				ID:             submission.ID,
				ProblemID:      submission.ProblemID,
				ProblemTitle:   item.Problem.Title,
				Code:           submission.Code,
				Language:       string(submission.Language),
				Passed:         submission.Passed,
				RuntimeMs:      submission.RuntimeMs,
				MemoryKb:       submission.MemoryKb,
				TotalTestCases: submission.TotalTestCases,
				PassedCount:    submission.PassedCount,
				SubmittedTs:    submission.SubmittedTs,
			}
		}
		items = append(items, entry)
	}

	return c.JSON(http.StatusOK, &masteredResponse{MasteredProblems: items})
}

type showAgainResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Progress *progressSummary `json:"user_progress"`
}

// ShowAgain re-enrolls a mastered problem into the review rotation.
func (s *APIV1Service) ShowAgain(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)
	problemID := c.Param("problemID")

	info, err := s.ReviewService.MarkShowAgain(ctx, userID, problemID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &showAgainResponse{
		Success: true,
		Message: "Problem re-added to rotation",
		Progress: &progressSummary{
			TimesSolved:    info.TimesSolved,
			NextReviewDate: info.NextReviewDate,
			IsMastered:     info.IsMastered,
			ShowAgain:      info.ShowAgain,
			EaseFactor:     info.EaseFactor,
			IntervalDays:   info.IntervalDays,
			ReviewCount:    info.ReviewCount,
		},
	})
}
