package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

const (
	// MaxDailyReviews caps how many due reviews a daily session contains.
	MaxDailyReviews = 2
)

// Store is the interface for store operations needed by the review service.
type Store interface {
	GetProblem(ctx context.Context, find *store.FindProblem) (*store.Problem, error)
	CountProblems(ctx context.Context) (int, error)
	CreateUserProgress(ctx context.Context, create *store.UserProgress) (*store.UserProgress, error)
	ListUserProgress(ctx context.Context, find *store.FindUserProgress) ([]*store.UserProgress, error)
	GetUserProgress(ctx context.Context, find *store.FindUserProgress) (*store.UserProgress, error)
	UpdateUserProgress(ctx context.Context, update *store.UpdateUserProgress) error
	ListProblemsWithProgress(ctx context.Context, userID string) ([]*store.ProblemWithProgress, error)
	GetNextUnsolvedProblem(ctx context.Context, userID string) (*store.Problem, error)
}

// Service owns the review ledger: it decides when a rating is owed, applies
// ratings to the schedule, and assembles the daily session.
type Service struct {
	store Store

	// now is injectable so date arithmetic is testable.
	now func() time.Time
}

// NewService creates a new review service.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// today returns the current UTC calendar date.
func (s *Service) today() string {
	return store.FormatDate(s.now())
}

// ProgressInfo is the ledger state returned to a caller after a submission,
// along with whether the client should prompt for a rating.
type ProgressInfo struct {
	NeedsRating    bool    `json:"needs_rating"`
	TimesSolved    int32   `json:"times_solved"`
	NextReviewDate *string `json:"next_review_date"`
	IsMastered     bool    `json:"is_mastered"`
	ShowAgain      bool    `json:"show_again"`
	EaseFactor     float64 `json:"ease_factor"`
	IntervalDays   int32   `json:"interval_days"`
	ReviewCount    int32   `json:"review_count"`
}

// RatingResult is the schedule state after a rating has been applied.
type RatingResult struct {
	IntervalDays   int32
	EaseFactor     float64
	IsMastered     bool
	ReviewCount    int32
	TimesSolved    int32
	NextReviewDate *string
}

// ReviewItem pairs a due problem with its ledger entry.
type ReviewItem struct {
	Problem  *store.Problem
	Progress *store.UserProgress
}

// TodaysProblems is the daily session: at most two due reviews, oldest
// overdue first, plus at most one never-attempted problem.
type TodaysProblems struct {
	Reviews    []*ReviewItem
	NewProblem *store.Problem
}

// Stats aggregates the user's ledger against the catalog.
type Stats struct {
	TotalProblems   int
	SolvedCount     int
	MasteredCount   int
	InProgressCount int
	UnsolvedCount   int
	DueCount        int
	ByDifficulty    map[store.Difficulty]int
	ByPattern       map[string]int
}

// UpdateUserProgress records a submission outcome against the ledger. It
// creates the entry on first success and decides whether the client should
// prompt for a difficulty rating. It never mutates schedule fields; only
// ApplyRating does that.
func (s *Service) UpdateUserProgress(ctx context.Context, userID, problemID string, passed bool) (*ProgressInfo, error) {
	if !passed {
		return &ProgressInfo{NeedsRating: false, EaseFactor: DefaultEaseFactor}, nil
	}

	entry, err := s.store.GetUserProgress(ctx, &store.FindUserProgress{UserID: &userID, ProblemID: &problemID})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		// First success always prompts a rating.
		entry, err = s.store.CreateUserProgress(ctx, &store.UserProgress{
			ID:         uuid.NewString(),
			UserID:     userID,
			ProblemID:  problemID,
			EaseFactor: DefaultEaseFactor,
		})
		if err != nil {
			return nil, err
		}
		return progressInfo(entry, true), nil
	}

	if entry.IsMastered && !entry.ShowAgain {
		// Mastered problems never reprompt unless re-enrolled.
		return progressInfo(entry, false), nil
	}

	// Due means unrated (no next review date) or scheduled on or before today.
	due := entry.NextReviewDate == nil || *entry.NextReviewDate <= s.today()
	return progressInfo(entry, due), nil
}

// ApplyRating runs the interval calculator against a ledger entry and
// persists the resulting schedule. It is the sole mutator of schedule fields;
// each call advances state, so callers must not retry blindly.
func (s *Service) ApplyRating(ctx context.Context, userID, problemID string, rating Rating) (*RatingResult, error) {
	if !rating.IsValid() {
		return nil, apperrors.InvalidRating(string(rating))
	}

	entry, err := s.store.GetUserProgress(ctx, &store.FindUserProgress{UserID: &userID, ProblemID: &problemID})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.NotFound("no progress entry to rate; submit a passing solution first")
	}

	newInterval, newEase, mastered := CalculateNextReview(entry.IntervalDays, entry.EaseFactor, rating)

	now := s.now()
	lastSolvedTs := now.Unix()
	reviewCount := entry.ReviewCount + 1
	timesSolved := entry.TimesSolved + 1
	showAgain := false

	update := &store.UpdateUserProgress{
		ID:           entry.ID,
		TimesSolved:  &timesSolved,
		LastSolvedTs: &lastSolvedTs,
		IsMastered:   &mastered,
		ShowAgain:    &showAgain,
		EaseFactor:   &newEase,
		IntervalDays: &newInterval,
		ReviewCount:  &reviewCount,
	}

	result := &RatingResult{
		IntervalDays: newInterval,
		EaseFactor:   newEase,
		IsMastered:   mastered,
		ReviewCount:  reviewCount,
		TimesSolved:  timesSolved,
	}
	if mastered {
		update.ClearNextReviewDate = true
	} else {
		nextReview := store.FormatDate(now.AddDate(0, 0, int(newInterval)))
		update.NextReviewDate = &nextReview
		result.NextReviewDate = &nextReview
	}

	if err := s.store.UpdateUserProgress(ctx, update); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTodaysProblems builds the daily session: due reviews ordered oldest
// first, capped at MaxDailyReviews, plus the lowest-sequence problem the user
// has never attempted. Pure read, never more than three problems total.
func (s *Service) GetTodaysProblems(ctx context.Context, userID string) (*TodaysProblems, error) {
	notMastered := false
	today := s.today()
	limit := MaxDailyReviews
	dueEntries, err := s.store.ListUserProgress(ctx, &store.FindUserProgress{
		UserID:        &userID,
		IsMastered:    &notMastered,
		DueOnOrBefore: &today,
		Limit:         &limit,
	})
	if err != nil {
		return nil, err
	}

	session := &TodaysProblems{Reviews: make([]*ReviewItem, 0, len(dueEntries))}
	for _, entry := range dueEntries {
		problem, err := s.store.GetProblem(ctx, &store.FindProblem{ID: &entry.ProblemID})
		if err != nil {
			return nil, err
		}
		if problem == nil {
			continue
		}
		session.Reviews = append(session.Reviews, &ReviewItem{Problem: problem, Progress: entry})
	}

	newProblem, err := s.store.GetNextUnsolvedProblem(ctx, userID)
	if err != nil {
		return nil, err
	}
	session.NewProblem = newProblem
	return session, nil
}

// GetUserProgressStats aggregates the ledger against the catalog.
func (s *Service) GetUserProgressStats(ctx context.Context, userID string) (*Stats, error) {
	total, err := s.store.CountProblems(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.store.ListProblemsWithProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalProblems: total,
		ByDifficulty:  map[store.Difficulty]int{},
		ByPattern:     map[string]int{},
	}
	today := s.today()
	for _, item := range list {
		if item.Progress == nil {
			continue
		}
		stats.SolvedCount++
		stats.ByDifficulty[item.Problem.Difficulty]++
		stats.ByPattern[item.Problem.Pattern]++
		if item.Progress.IsMastered {
			stats.MasteredCount++
		} else if item.Progress.NextReviewDate != nil && *item.Progress.NextReviewDate <= today {
			stats.DueCount++
		}
	}
	stats.InProgressCount = stats.SolvedCount - stats.MasteredCount
	stats.UnsolvedCount = total - stats.SolvedCount
	return stats, nil
}

// MarkShowAgain re-enrolls a mastered problem into the rotation with a full
// reset of the learning curve. Counters are left untouched.
func (s *Service) MarkShowAgain(ctx context.Context, userID, problemID string) (*ProgressInfo, error) {
	entry, err := s.store.GetUserProgress(ctx, &store.FindUserProgress{UserID: &userID, ProblemID: &problemID})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.NotFound("no progress entry for this problem")
	}
	if !entry.IsMastered {
		return nil, apperrors.NotMastered("problem is not mastered; only mastered problems can be re-enrolled")
	}

	today := s.today()
	showAgain := true
	notMastered := false
	easeFactor := DefaultEaseFactor
	var intervalDays int32
	if err := s.store.UpdateUserProgress(ctx, &store.UpdateUserProgress{
		ID:             entry.ID,
		NextReviewDate: &today,
		IsMastered:     &notMastered,
		ShowAgain:      &showAgain,
		EaseFactor:     &easeFactor,
		IntervalDays:   &intervalDays,
	}); err != nil {
		return nil, err
	}

	entry.NextReviewDate = &today
	entry.IsMastered = false
	entry.ShowAgain = true
	entry.EaseFactor = easeFactor
	entry.IntervalDays = 0
	return progressInfo(entry, false), nil
}

// GetMasteredProblems lists the user's mastered problems with their ledger
// entries, most recently solved first.
func (s *Service) GetMasteredProblems(ctx context.Context, userID string) ([]*ReviewItem, error) {
	mastered := true
	entries, err := s.store.ListUserProgress(ctx, &store.FindUserProgress{
		UserID:                &userID,
		IsMastered:            &mastered,
		OrderByLastSolvedDesc: true,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*ReviewItem, 0, len(entries))
	for _, entry := range entries {
		problem, err := s.store.GetProblem(ctx, &store.FindProblem{ID: &entry.ProblemID})
		if err != nil {
			return nil, err
		}
		if problem == nil {
			continue
		}
		items = append(items, &ReviewItem{Problem: problem, Progress: entry})
	}
	return items, nil
}

// GetAllProblemsWithProgress returns the catalog joined with the user's
// ledger, ordered by sequence number.
func (s *Service) GetAllProblemsWithProgress(ctx context.Context, userID string) ([]*store.ProblemWithProgress, error) {
	return s.store.ListProblemsWithProgress(ctx, userID)
}

func progressInfo(entry *store.UserProgress, needsRating bool) *ProgressInfo {
	return &ProgressInfo{
		NeedsRating:    needsRating,
		TimesSolved:    entry.TimesSolved,
		NextReviewDate: entry.NextReviewDate,
		IsMastered:     entry.IsMastered,
		ShowAgain:      entry.ShowAgain,
		EaseFactor:     entry.EaseFactor,
		IntervalDays:   entry.IntervalDays,
		ReviewCount:    entry.ReviewCount,
	}
}
