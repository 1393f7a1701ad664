package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodeaday/acodeaday/plugin/judge0"
	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/server/service/review"
	"github.com/acodeaday/acodeaday/store"
)

type mockExecutionStore struct {
	problem     *store.Problem
	language    *store.ProblemLanguage
	testCases   []*store.TestCase
	submissions []*store.Submission
}

func (m *mockExecutionStore) GetProblem(_ context.Context, find *store.FindProblem) (*store.Problem, error) {
	if m.problem != nil && find.Slug != nil && m.problem.Slug == *find.Slug {
		return m.problem, nil
	}
	return nil, nil
}

func (m *mockExecutionStore) GetProblemLanguage(context.Context, *store.FindProblemLanguage) (*store.ProblemLanguage, error) {
	return m.language, nil
}

func (m *mockExecutionStore) ListTestCases(context.Context, *store.FindTestCase) ([]*store.TestCase, error) {
	return m.testCases, nil
}

func (m *mockExecutionStore) CreateSubmission(_ context.Context, create *store.Submission) (*store.Submission, error) {
	create.SubmittedTs = 1700000000
	m.submissions = append(m.submissions, create)
	return create, nil
}

type fakeJudge struct {
	result *judge0.Result
	err    error
	source string
}

func (f *fakeJudge) Execute(_ context.Context, sourceCode string, _ int, _ string) (*judge0.Result, error) {
	f.source = sourceCode
	return f.result, f.err
}

type fakeReviewer struct {
	calls int
	info  *review.ProgressInfo
}

func (f *fakeReviewer) UpdateUserProgress(context.Context, string, string, bool) (*review.ProgressInfo, error) {
	f.calls++
	return f.info, nil
}

func newExecutionFixture() *mockExecutionStore {
	return &mockExecutionStore{
		problem: &store.Problem{ID: "p1", Slug: "two-sum", SequenceNumber: 1},
		language: &store.ProblemLanguage{
			ID: "pl1", ProblemID: "p1", Language: store.Python,
			FunctionSignature: `{"name": "twoSum", "params": [{"name": "nums"}, {"name": "target"}]}`,
		},
		testCases: []*store.TestCase{
			{ID: "t1", ProblemID: "p1", Input: `[[2, 7], 9]`, Expected: `[0, 1]`, Sequence: 1},
			{ID: "t2", ProblemID: "p1", Input: `[[3, 3], 6]`, Expected: `[0, 1]`, IsHidden: true, Sequence: 2},
		},
	}
}

func acceptedResult(stdout string) *judge0.Result {
	return &judge0.Result{
		Status:   judge0.Status{ID: judge0.StatusAccepted, Description: "Accepted"},
		Stdout:   stdout,
		TimeSec:  "0.042",
		MemoryKb: 12345,
	}
}

func TestRunCode(t *testing.T) {
	ctx := context.Background()

	t.Run("runs only visible test cases and reports success", func(t *testing.T) {
		mock := newExecutionFixture()
		judge := &fakeJudge{result: acceptedResult(`[{"test_number": 1, "passed": true, "output": [0, 1], "expected": [0, 1], "is_hidden": false}]`)}
		svc := NewService(mock, judge, &fakeReviewer{})

		result, err := svc.RunCode(ctx, "two-sum", store.Python, "class Solution:\n    pass")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, Summary{Total: 1, Passed: 1}, result.Summary)
		// Only the visible test case reaches the harness.
		assert.NotContains(t, judge.source, `[3, 3]`)
	})

	t.Run("unknown problem", func(t *testing.T) {
		svc := NewService(&mockExecutionStore{}, &fakeJudge{}, &fakeReviewer{})

		_, err := svc.RunCode(ctx, "missing", store.Python, "code")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("javascript execution is rejected", func(t *testing.T) {
		svc := NewService(newExecutionFixture(), &fakeJudge{}, &fakeReviewer{})

		_, err := svc.RunCode(ctx, "two-sum", store.JavaScript, "code")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
	})

	t.Run("compile errors surface without test results", func(t *testing.T) {
		mock := newExecutionFixture()
		judge := &fakeJudge{result: &judge0.Result{
			Status:        judge0.Status{ID: judge0.StatusCompilationError, Description: "Compilation Error"},
			CompileOutput: "SyntaxError: invalid syntax",
		}}
		svc := NewService(mock, judge, &fakeReviewer{})

		result, err := svc.RunCode(ctx, "two-sum", store.Python, "def broken(")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "SyntaxError: invalid syntax", result.CompileError)
		assert.Empty(t, result.Results)
	})

	t.Run("judge outage maps to a judge unavailable error", func(t *testing.T) {
		mock := newExecutionFixture()
		judge := &fakeJudge{err: assert.AnError}
		svc := NewService(mock, judge, &fakeReviewer{})

		_, err := svc.RunCode(ctx, "two-sum", store.Python, "code")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeJudgeUnavailable))
	})
}

func TestSubmitCode(t *testing.T) {
	ctx := context.Background()

	t.Run("full pass persists submission and updates progress", func(t *testing.T) {
		mock := newExecutionFixture()
		judge := &fakeJudge{result: acceptedResult(
			`[{"test_number": 1, "passed": true, "is_hidden": false}, {"test_number": 2, "passed": true, "is_hidden": true}]`,
		)}
		reviewer := &fakeReviewer{info: &review.ProgressInfo{NeedsRating: true, EaseFactor: 2.5}}
		svc := NewService(mock, judge, reviewer)

		result, err := svc.SubmitCode(ctx, "user-1", "two-sum", store.Python, "class Solution:\n    pass")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.SubmissionID)
		require.NotNil(t, result.Progress)
		assert.True(t, result.Progress.NeedsRating)
		assert.Equal(t, 1, reviewer.calls)

		require.Len(t, mock.submissions, 1)
		sub := mock.submissions[0]
		assert.True(t, sub.Passed)
		assert.Equal(t, int32(2), sub.TotalTestCases)
		assert.Equal(t, int32(2), sub.PassedCount)
		require.NotNil(t, sub.RuntimeMs)
		assert.Equal(t, int32(42), *sub.RuntimeMs)
		require.NotNil(t, sub.MemoryKb)
		assert.Equal(t, int32(12345), *sub.MemoryKb)
		assert.Nil(t, sub.FailedTestNumber)
	})

	t.Run("failure records first failed test and skips progress", func(t *testing.T) {
		mock := newExecutionFixture()
		judge := &fakeJudge{result: acceptedResult(
			`[{"test_number": 1, "passed": true, "is_hidden": false}, {"test_number": 2, "passed": false, "input": [[3, 3], 6], "output": [1, 1], "expected": [0, 1], "is_hidden": true}]`,
		)}
		reviewer := &fakeReviewer{}
		svc := NewService(mock, judge, reviewer)

		result, err := svc.SubmitCode(ctx, "user-1", "two-sum", store.Python, "class Solution:\n    pass")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Nil(t, result.Progress)
		assert.Equal(t, 0, reviewer.calls)

		sub := mock.submissions[0]
		assert.False(t, sub.Passed)
		require.NotNil(t, sub.FailedTestNumber)
		assert.Equal(t, int32(2), *sub.FailedTestNumber)
		assert.True(t, sub.FailedIsHidden)
		assert.JSONEq(t, `[0, 1]`, *sub.FailedExpected)
		assert.JSONEq(t, `[1, 1]`, *sub.FailedOutput)
	})

	t.Run("runtime error in harness records the error text", func(t *testing.T) {
		mock := newExecutionFixture()
		judge := &fakeJudge{result: acceptedResult(
			`[{"test_number": 1, "passed": false, "input": [[2, 7], 9], "error": "division by zero", "error_type": "ZeroDivisionError", "expected": [0, 1], "is_hidden": false}]`,
		)}
		svc := NewService(mock, judge, &fakeReviewer{})

		result, err := svc.SubmitCode(ctx, "user-1", "two-sum", store.Python, "class Solution:\n    pass")
		require.NoError(t, err)
		assert.False(t, result.Success)

		sub := mock.submissions[0]
		require.NotNil(t, sub.FailedOutput)
		assert.Equal(t, "division by zero", *sub.FailedOutput)
	})
}

func TestParseRuntimeMs(t *testing.T) {
	assert.Nil(t, ParseRuntimeMs(""))
	assert.Nil(t, ParseRuntimeMs("not-a-number"))
	require.NotNil(t, ParseRuntimeMs("0.5"))
	assert.Equal(t, int32(500), *ParseRuntimeMs("0.5"))
}
