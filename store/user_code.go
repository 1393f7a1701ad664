package store

import (
	"context"
)

// UserCode stores the user's current draft code for a problem and language.
type UserCode struct {
	ID        string
	UserID    string
	ProblemID string
	Language  string
	Code      string
	UpdatedTs int64
}

// UpsertUserCode creates the draft or replaces it when one already exists for
// the same (user_id, problem_id, language).
type UpsertUserCode struct {
	UserID    string
	ProblemID string
	Language  string
	Code      string
}

// FindUserCode is the find condition for code drafts.
type FindUserCode struct {
	UserID    *string
	ProblemID *string
	Language  *string
}

// DeleteUserCode is the delete request for a code draft.
type DeleteUserCode struct {
	UserID    string
	ProblemID string
	Language  string
}

func (s *Store) UpsertUserCode(ctx context.Context, upsert *UpsertUserCode) (*UserCode, error) {
	return s.driver.UpsertUserCode(ctx, upsert)
}

// GetUserCode gets a code draft, or nil when the user has none saved.
func (s *Store) GetUserCode(ctx context.Context, find *FindUserCode) (*UserCode, error) {
	list, err := s.driver.ListUserCodes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteUserCode(ctx context.Context, delete *DeleteUserCode) error {
	return s.driver.DeleteUserCode(ctx, delete)
}
