package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Problem catalog related methods.
	CreateProblem(ctx context.Context, create *Problem) (*Problem, error)
	ListProblems(ctx context.Context, find *FindProblem) ([]*Problem, error)
	CountProblems(ctx context.Context) (int, error)
	DeleteProblem(ctx context.Context, delete *DeleteProblem) error

	CreateProblemLanguage(ctx context.Context, create *ProblemLanguage) (*ProblemLanguage, error)
	ListProblemLanguages(ctx context.Context, find *FindProblemLanguage) ([]*ProblemLanguage, error)

	CreateTestCase(ctx context.Context, create *TestCase) (*TestCase, error)
	ListTestCases(ctx context.Context, find *FindTestCase) ([]*TestCase, error)

	// UserProgress (review ledger) related methods.
	CreateUserProgress(ctx context.Context, create *UserProgress) (*UserProgress, error)
	ListUserProgress(ctx context.Context, find *FindUserProgress) ([]*UserProgress, error)
	UpdateUserProgress(ctx context.Context, update *UpdateUserProgress) error
	ListProblemsWithProgress(ctx context.Context, userID string) ([]*ProblemWithProgress, error)
	GetNextUnsolvedProblem(ctx context.Context, userID string) (*Problem, error)

	// Submission related methods.
	CreateSubmission(ctx context.Context, create *Submission) (*Submission, error)
	ListSubmissions(ctx context.Context, find *FindSubmission) ([]*Submission, error)

	// UserCode related methods.
	UpsertUserCode(ctx context.Context, upsert *UpsertUserCode) (*UserCode, error)
	ListUserCodes(ctx context.Context, find *FindUserCode) ([]*UserCode, error)
	DeleteUserCode(ctx context.Context, delete *DeleteUserCode) error

	// Chat related methods.
	CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error)
	ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error)
	UpdateChatSession(ctx context.Context, update *UpdateChatSession) error
	DeleteChatSession(ctx context.Context, delete *DeleteChatSession) error
	CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)
}
