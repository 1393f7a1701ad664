package store

import (
	"context"
)

// Problem is the object representing a coding problem in the catalog.
type Problem struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Difficulty  Difficulty
	Pattern     string
	// SequenceNumber determines the catalog order and is used to pick the
	// "next unsolved problem" for a user.
	SequenceNumber int32
	// Constraints is a list of human-readable constraint strings.
	Constraints []string
	// Examples is a raw JSON document with input/output/explanation entries.
	Examples  string
	CreatedTs int64
}

// ProblemLanguage holds language-specific code for a problem.
type ProblemLanguage struct {
	ID                string
	ProblemID         string
	Language          Language
	StarterCode       string
	ReferenceSolution string
	// FunctionSignature is a raw JSON document: {"name": ..., "params": [...], "return_type": ...}.
	FunctionSignature string
	CreatedTs         int64
}

// TestCase is a single test input/expected pair for a problem.
type TestCase struct {
	ID        string
	ProblemID string
	// Input is a raw JSON array of call arguments.
	Input string
	// Expected is the raw JSON expected output.
	Expected string
	// IsHidden test cases only run on submit, never shown on "Run Code".
	IsHidden  bool
	Sequence  int32
	CreatedTs int64
}

// FindProblem is the find condition for problems.
// Results are always ordered by sequence_number ascending.
type FindProblem struct {
	ID         *string
	Slug       *string
	Difficulty *Difficulty
	Pattern    *string
	Limit      *int
}

// FindProblemLanguage is the find condition for problem languages.
type FindProblemLanguage struct {
	ProblemID *string
	Language  *Language
}

// FindTestCase is the find condition for test cases.
// Results are always ordered by sequence ascending.
type FindTestCase struct {
	ProblemID *string
	IsHidden  *bool
}

// DeleteProblem is the delete request for a problem.
// Language rows and test cases are removed by cascade.
type DeleteProblem struct {
	ID string
}

func (s *Store) CreateProblem(ctx context.Context, create *Problem) (*Problem, error) {
	problem, err := s.driver.CreateProblem(ctx, create)
	if err != nil {
		return nil, err
	}
	s.problemCache.Set(problem.Slug, problem)
	return problem, nil
}

func (s *Store) ListProblems(ctx context.Context, find *FindProblem) ([]*Problem, error) {
	return s.driver.ListProblems(ctx, find)
}

// GetProblem gets a single problem by find condition.
func (s *Store) GetProblem(ctx context.Context, find *FindProblem) (*Problem, error) {
	if find.Slug != nil && find.ID == nil && find.Difficulty == nil && find.Pattern == nil {
		if cached, ok := s.problemCache.Get(*find.Slug); ok {
			return cached.(*Problem), nil
		}
	}
	list, err := s.driver.ListProblems(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	problem := list[0]
	s.problemCache.Set(problem.Slug, problem)
	return problem, nil
}

func (s *Store) CountProblems(ctx context.Context) (int, error) {
	return s.driver.CountProblems(ctx)
}

func (s *Store) DeleteProblem(ctx context.Context, delete *DeleteProblem) error {
	if err := s.driver.DeleteProblem(ctx, delete); err != nil {
		return err
	}
	// Catalog writes are rare; dropping the whole cache is cheaper than
	// tracking which slug maps to the deleted id.
	s.problemCache.Clear()
	return nil
}

func (s *Store) CreateProblemLanguage(ctx context.Context, create *ProblemLanguage) (*ProblemLanguage, error) {
	return s.driver.CreateProblemLanguage(ctx, create)
}

func (s *Store) ListProblemLanguages(ctx context.Context, find *FindProblemLanguage) ([]*ProblemLanguage, error) {
	return s.driver.ListProblemLanguages(ctx, find)
}

// GetProblemLanguage gets the language config for a problem, or nil if unsupported.
func (s *Store) GetProblemLanguage(ctx context.Context, find *FindProblemLanguage) (*ProblemLanguage, error) {
	list, err := s.driver.ListProblemLanguages(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) CreateTestCase(ctx context.Context, create *TestCase) (*TestCase, error) {
	return s.driver.CreateTestCase(ctx, create)
}

func (s *Store) ListTestCases(ctx context.Context, find *FindTestCase) ([]*TestCase, error) {
	return s.driver.ListTestCases(ctx, find)
}
