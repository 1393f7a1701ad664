package store

import (
	"context"
)

// UserProgress is the spaced-repetition ledger entry for one (user, problem) pair.
// It is created lazily on the first passing submission and never hard-deleted.
type UserProgress struct {
	ID        string
	UserID    string
	ProblemID string
	// TimesSolved counts applied ratings, not passing submissions.
	TimesSolved int32
	// LastSolvedTs is the unix timestamp of the most recent rated solve.
	LastSolvedTs *int64
	// NextReviewDate is a UTC calendar date (DateLayout). Nil means the entry
	// is unrated or mastered.
	NextReviewDate *string
	// IsMastered entries are out of rotation until re-enrolled.
	IsMastered bool
	// ShowAgain is set while a mastered entry is re-enrolled but not yet re-rated.
	ShowAgain bool
	// EaseFactor starts at 2.5 and never drops below 1.3.
	EaseFactor   float64
	IntervalDays int32
	ReviewCount  int32
	CreatedTs    int64
}

// FindUserProgress is the find condition for ledger entries.
type FindUserProgress struct {
	UserID     *string
	ProblemID  *string
	IsMastered *bool
	// DueOnOrBefore matches entries whose next_review_date is set and on or
	// before the given calendar date. Results are ordered by next_review_date
	// ascending.
	DueOnOrBefore *string
	// OrderByLastSolvedDesc orders results by last_solved_ts descending,
	// most recently solved first.
	OrderByLastSolvedDesc bool
	Limit                 *int
}

// UpdateUserProgress is the update request for a ledger entry.
// Nil fields are left untouched.
type UpdateUserProgress struct {
	ID             string
	TimesSolved    *int32
	LastSolvedTs   *int64
	NextReviewDate *string
	// ClearNextReviewDate sets next_review_date to NULL. Takes precedence
	// over NextReviewDate.
	ClearNextReviewDate bool
	IsMastered          *bool
	ShowAgain           *bool
	EaseFactor          *float64
	IntervalDays        *int32
	ReviewCount         *int32
}

// ProblemWithProgress pairs a catalog problem with the user's ledger entry, if any.
type ProblemWithProgress struct {
	Problem  *Problem
	Progress *UserProgress
}

// CreateUserProgress inserts a ledger entry. The insert ignores conflicts on
// (user_id, problem_id) so concurrent first-solve requests cannot create
// duplicate rows; callers re-read the entry afterwards.
func (s *Store) CreateUserProgress(ctx context.Context, create *UserProgress) (*UserProgress, error) {
	return s.driver.CreateUserProgress(ctx, create)
}

func (s *Store) ListUserProgress(ctx context.Context, find *FindUserProgress) ([]*UserProgress, error) {
	return s.driver.ListUserProgress(ctx, find)
}

// GetUserProgress gets a ledger entry by find condition, or nil when absent.
func (s *Store) GetUserProgress(ctx context.Context, find *FindUserProgress) (*UserProgress, error) {
	list, err := s.driver.ListUserProgress(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateUserProgress(ctx context.Context, update *UpdateUserProgress) error {
	return s.driver.UpdateUserProgress(ctx, update)
}

// ListProblemsWithProgress lists the full catalog (sequence order) with the
// user's ledger entries left-joined.
func (s *Store) ListProblemsWithProgress(ctx context.Context, userID string) ([]*ProblemWithProgress, error) {
	return s.driver.ListProblemsWithProgress(ctx, userID)
}

// GetNextUnsolvedProblem returns the lowest-sequence catalog problem with no
// ledger entry for the user, or nil when every problem has been attempted.
func (s *Store) GetNextUnsolvedProblem(ctx context.Context, userID string) (*Problem, error) {
	return s.driver.GetNextUnsolvedProblem(ctx, userID)
}
