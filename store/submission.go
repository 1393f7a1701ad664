package store

import (
	"context"
)

// Submission is one code submission attempt against all test cases.
type Submission struct {
	ID        string
	UserID    string
	ProblemID string
	Code      string
	Language  Language
	Passed    bool
	RuntimeMs *int32
	MemoryKb  *int32

	// Test result summary for "X / Y testcases passed".
	TotalTestCases int32
	PassedCount    int32

	// First failed test details, nil if all passed.
	FailedTestNumber *int32
	FailedInput      *string
	FailedOutput     *string
	FailedExpected   *string
	FailedIsHidden   bool

	SubmittedTs int64
}

// FindSubmission is the find condition for submissions.
// Results are ordered by submitted_ts descending.
type FindSubmission struct {
	UserID    *string
	ProblemID *string
	Passed    *bool
	Limit     *int
}

func (s *Store) CreateSubmission(ctx context.Context, create *Submission) (*Submission, error) {
	return s.driver.CreateSubmission(ctx, create)
}

func (s *Store) ListSubmissions(ctx context.Context, find *FindSubmission) ([]*Submission, error) {
	return s.driver.ListSubmissions(ctx, find)
}

// GetLastSubmission returns the most recent submission matching find, or nil.
func (s *Store) GetLastSubmission(ctx context.Context, find *FindSubmission) (*Submission, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListSubmissions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
