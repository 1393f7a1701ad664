package execution

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/acodeaday/acodeaday/plugin/judge0"
	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/server/service/review"
	"github.com/acodeaday/acodeaday/store"
)

// Judge runs wrapped source code in a sandbox.
type Judge interface {
	Execute(ctx context.Context, sourceCode string, languageID int, stdin string) (*judge0.Result, error)
}

// Store is the interface for store operations needed by the execution service.
type Store interface {
	GetProblem(ctx context.Context, find *store.FindProblem) (*store.Problem, error)
	GetProblemLanguage(ctx context.Context, find *store.FindProblemLanguage) (*store.ProblemLanguage, error)
	ListTestCases(ctx context.Context, find *store.FindTestCase) ([]*store.TestCase, error)
	CreateSubmission(ctx context.Context, create *store.Submission) (*store.Submission, error)
}

// Reviewer records passing submissions against the review ledger.
type Reviewer interface {
	UpdateUserProgress(ctx context.Context, userID, problemID string, passed bool) (*review.ProgressInfo, error)
}

// Service executes user code against a problem's test cases.
type Service struct {
	store    Store
	judge    Judge
	reviewer Reviewer
}

// NewService creates a new execution service.
func NewService(store Store, judge Judge, reviewer Reviewer) *Service {
	return &Service{
		store:    store,
		judge:    judge,
		reviewer: reviewer,
	}
}

// TestResult is the outcome of one test case.
type TestResult struct {
	TestNumber int32           `json:"test_number"`
	Passed     bool            `json:"passed"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Expected   json.RawMessage `json:"expected,omitempty"`
	Error      *string         `json:"error,omitempty"`
	ErrorType  *string         `json:"error_type,omitempty"`
	IsHidden   bool            `json:"is_hidden"`
	Stdout     *string         `json:"stdout,omitempty"`
}

// Summary counts test outcomes.
type Summary struct {
	Total  int32 `json:"total"`
	Passed int32 `json:"passed"`
	Failed int32 `json:"failed"`
}

// RunResult is the outcome of running code against visible test cases.
type RunResult struct {
	Success      bool          `json:"success"`
	CompileError string        `json:"compile_error,omitempty"`
	RuntimeError string        `json:"runtime_error,omitempty"`
	Results      []*TestResult `json:"results"`
	Summary      Summary       `json:"summary"`
	Stderr       string        `json:"stderr,omitempty"`
}

// SubmitResult is the outcome of a full submission, including the persisted
// submission id and any review-ledger change.
type SubmitResult struct {
	RunResult
	SubmissionID string               `json:"submission_id"`
	RuntimeMs    *int32               `json:"runtime_ms,omitempty"`
	MemoryKb     *int32               `json:"memory_kb,omitempty"`
	Progress     *review.ProgressInfo `json:"progress,omitempty"`
}

// RunCode executes code against the problem's visible test cases only. It
// records nothing: this is the fast feedback loop before a real submission.
func (s *Service) RunCode(ctx context.Context, problemSlug string, language store.Language, code string) (*RunResult, error) {
	_, functionName, testCases, err := s.loadProblem(ctx, problemSlug, language)
	if err != nil {
		return nil, err
	}

	visible := make([]*store.TestCase, 0, len(testCases))
	for _, tc := range testCases {
		if !tc.IsHidden {
			visible = append(visible, tc)
		}
	}
	if len(visible) == 0 {
		return nil, apperrors.InvalidArgument("no visible test cases found for this problem")
	}

	runResult, _, err := s.execute(ctx, code, functionName, visible, false)
	return runResult, err
}

// SubmitCode executes code against all test cases, persists the submission,
// and on a full pass records it against the review ledger.
func (s *Service) SubmitCode(ctx context.Context, userID, problemSlug string, language store.Language, code string) (*SubmitResult, error) {
	problem, functionName, testCases, err := s.loadProblem(ctx, problemSlug, language)
	if err != nil {
		return nil, err
	}
	if len(testCases) == 0 {
		return nil, apperrors.InvalidArgument("no test cases found for this problem")
	}

	runResult, judgeResult, err := s.execute(ctx, code, functionName, testCases, true)
	if err != nil {
		return nil, err
	}

	submission := &store.Submission{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProblemID:      problem.ID,
		Code:           code,
		Language:       language,
		Passed:         runResult.Success,
		RuntimeMs:      ParseRuntimeMs(judgeResult.TimeSec),
		TotalTestCases: int32(len(testCases)),
		PassedCount:    runResult.Summary.Passed,
	}
	if judgeResult.MemoryKb > 0 {
		memoryKb := int32(judgeResult.MemoryKb)
		submission.MemoryKb = &memoryKb
	}
	for _, result := range runResult.Results {
		if result.Passed {
			continue
		}
		testNumber := result.TestNumber
		submission.FailedTestNumber = &testNumber
		submission.FailedInput = rawMessageString(result.Input)
		submission.FailedExpected = rawMessageString(result.Expected)
		submission.FailedIsHidden = result.IsHidden
		if result.Error != nil {
			submission.FailedOutput = result.Error
		} else {
			submission.FailedOutput = rawMessageString(result.Output)
		}
		break
	}

	submission, err = s.store.CreateSubmission(ctx, submission)
	if err != nil {
		return nil, err
	}

	submitResult := &SubmitResult{
		RunResult:    *runResult,
		SubmissionID: submission.ID,
		RuntimeMs:    submission.RuntimeMs,
		MemoryKb:     submission.MemoryKb,
	}

	if runResult.Success {
		progress, err := s.reviewer.UpdateUserProgress(ctx, userID, problem.ID, true)
		if err != nil {
			return nil, err
		}
		submitResult.Progress = progress
	}
	return submitResult, nil
}

func (s *Service) loadProblem(ctx context.Context, problemSlug string, language store.Language) (*store.Problem, string, []*store.TestCase, error) {
	if !language.IsValid() {
		return nil, "", nil, apperrors.InvalidArgument("unsupported language: " + string(language))
	}
	if language != store.Python {
		// The JavaScript harness is not implemented yet; problems may still
		// carry javascript starter code for the editor.
		return nil, "", nil, apperrors.InvalidArgument("execution is only supported for python")
	}

	problem, err := s.store.GetProblem(ctx, &store.FindProblem{Slug: &problemSlug})
	if err != nil {
		return nil, "", nil, err
	}
	if problem == nil {
		return nil, "", nil, apperrors.NotFound("problem not found: " + problemSlug)
	}

	problemLang, err := s.store.GetProblemLanguage(ctx, &store.FindProblemLanguage{
		ProblemID: &problem.ID,
		Language:  &language,
	})
	if err != nil {
		return nil, "", nil, err
	}
	if problemLang == nil {
		return nil, "", nil, apperrors.InvalidArgument("language not supported for this problem: " + string(language))
	}

	var signature struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(problemLang.FunctionSignature), &signature); err != nil || signature.Name == "" {
		return nil, "", nil, apperrors.InvalidArgument("problem configuration error: missing function name")
	}

	testCases, err := s.store.ListTestCases(ctx, &store.FindTestCase{ProblemID: &problem.ID})
	if err != nil {
		return nil, "", nil, err
	}
	return problem, signature.Name, testCases, nil
}

func (s *Service) execute(ctx context.Context, code, functionName string, testCases []*store.TestCase, earlyExit bool) (*RunResult, *judge0.Result, error) {
	wrapped, err := GeneratePythonHarness(code, functionName, testCases, earlyExit)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "failed to build test harness")
	}

	slog.Info("executing code", "function", functionName, "test_count", len(testCases))

	result, err := s.judge.Execute(ctx, wrapped, judge0.LanguagePythonID, "")
	if err != nil {
		return nil, nil, apperrors.JudgeUnavailable("code execution backend unavailable", err)
	}

	return parseJudgeResult(result, len(testCases)), result, nil
}

// parseJudgeResult maps the sandbox outcome onto per-test results. Compile
// and whole-process runtime failures short-circuit: the harness never got to
// print its JSON line in those cases.
func parseJudgeResult(result *judge0.Result, totalTests int) *RunResult {
	total := int32(totalTests)

	if result.CompileError() {
		message := result.CompileOutput
		if message == "" {
			message = result.Stderr
		}
		return &RunResult{
			CompileError: message,
			Results:      []*TestResult{},
			Summary:      Summary{Total: total, Failed: total},
		}
	}
	if result.RuntimeError() {
		message := result.Stderr
		if message == "" {
			message = result.Status.Description
		}
		return &RunResult{
			RuntimeError: message,
			Results:      []*TestResult{},
			Summary:      Summary{Total: total, Failed: total},
		}
	}

	var testResults []*TestResult
	if err := json.Unmarshal([]byte(result.Stdout), &testResults); err != nil {
		slog.Error("failed to parse harness output", "error", err)
		return &RunResult{
			RuntimeError: "failed to parse test results: " + truncate(result.Stdout, 200),
			Results:      []*TestResult{},
			Summary:      Summary{Total: total, Failed: total},
		}
	}

	var passed int32
	for _, tr := range testResults {
		if tr.Passed {
			passed++
		}
	}
	runResult := &RunResult{
		Success: passed == total && total > 0,
		Results: testResults,
		Summary: Summary{Total: total, Passed: passed, Failed: total - passed},
		Stderr:  result.Stderr,
	}
	return runResult
}

func rawMessageString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ParseRuntimeMs converts Judge0's wall time (seconds as a decimal string)
// into milliseconds.
func ParseRuntimeMs(timeSec string) *int32 {
	if timeSec == "" {
		return nil
	}
	seconds, err := strconv.ParseFloat(timeSec, 64)
	if err != nil {
		return nil
	}
	ms := int32(seconds * 1000)
	return &ms
}
