package review

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

// mockReviewStore is an in-memory implementation of the Store interface.
type mockReviewStore struct {
	problems []*store.Problem
	progress []*store.UserProgress
}

func (m *mockReviewStore) GetProblem(_ context.Context, find *store.FindProblem) (*store.Problem, error) {
	for _, p := range m.problems {
		if find.ID != nil && p.ID != *find.ID {
			continue
		}
		if find.Slug != nil && p.Slug != *find.Slug {
			continue
		}
		return p, nil
	}
	return nil, nil
}

func (m *mockReviewStore) CountProblems(context.Context) (int, error) {
	return len(m.problems), nil
}

func (m *mockReviewStore) CreateUserProgress(_ context.Context, create *store.UserProgress) (*store.UserProgress, error) {
	for _, entry := range m.progress {
		if entry.UserID == create.UserID && entry.ProblemID == create.ProblemID {
			return entry, nil
		}
	}
	m.progress = append(m.progress, create)
	return create, nil
}

func (m *mockReviewStore) ListUserProgress(_ context.Context, find *store.FindUserProgress) ([]*store.UserProgress, error) {
	result := make([]*store.UserProgress, 0)
	for _, entry := range m.progress {
		if find.UserID != nil && entry.UserID != *find.UserID {
			continue
		}
		if find.ProblemID != nil && entry.ProblemID != *find.ProblemID {
			continue
		}
		if find.IsMastered != nil && entry.IsMastered != *find.IsMastered {
			continue
		}
		if find.DueOnOrBefore != nil {
			if entry.NextReviewDate == nil || *entry.NextReviewDate > *find.DueOnOrBefore {
				continue
			}
		}
		result = append(result, entry)
	}
	if find.DueOnOrBefore != nil {
		sort.SliceStable(result, func(i, j int) bool {
			return *result[i].NextReviewDate < *result[j].NextReviewDate
		})
	}
	if find.OrderByLastSolvedDesc {
		sort.SliceStable(result, func(i, j int) bool {
			if result[i].LastSolvedTs == nil {
				return false
			}
			if result[j].LastSolvedTs == nil {
				return true
			}
			return *result[i].LastSolvedTs > *result[j].LastSolvedTs
		})
	}
	if find.Limit != nil && len(result) > *find.Limit {
		result = result[:*find.Limit]
	}
	return result, nil
}

func (m *mockReviewStore) GetUserProgress(ctx context.Context, find *store.FindUserProgress) (*store.UserProgress, error) {
	list, err := m.ListUserProgress(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (m *mockReviewStore) UpdateUserProgress(_ context.Context, update *store.UpdateUserProgress) error {
	for _, entry := range m.progress {
		if entry.ID != update.ID {
			continue
		}
		if update.TimesSolved != nil {
			entry.TimesSolved = *update.TimesSolved
		}
		if update.LastSolvedTs != nil {
			entry.LastSolvedTs = update.LastSolvedTs
		}
		if update.ClearNextReviewDate {
			entry.NextReviewDate = nil
		} else if update.NextReviewDate != nil {
			entry.NextReviewDate = update.NextReviewDate
		}
		if update.IsMastered != nil {
			entry.IsMastered = *update.IsMastered
		}
		if update.ShowAgain != nil {
			entry.ShowAgain = *update.ShowAgain
		}
		if update.EaseFactor != nil {
			entry.EaseFactor = *update.EaseFactor
		}
		if update.IntervalDays != nil {
			entry.IntervalDays = *update.IntervalDays
		}
		if update.ReviewCount != nil {
			entry.ReviewCount = *update.ReviewCount
		}
		return nil
	}
	return nil
}

func (m *mockReviewStore) ListProblemsWithProgress(_ context.Context, userID string) ([]*store.ProblemWithProgress, error) {
	problems := make([]*store.Problem, len(m.problems))
	copy(problems, m.problems)
	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].SequenceNumber < problems[j].SequenceNumber
	})

	result := make([]*store.ProblemWithProgress, 0, len(problems))
	for _, p := range problems {
		item := &store.ProblemWithProgress{Problem: p}
		for _, entry := range m.progress {
			if entry.UserID == userID && entry.ProblemID == p.ID {
				item.Progress = entry
				break
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func (m *mockReviewStore) GetNextUnsolvedProblem(ctx context.Context, userID string) (*store.Problem, error) {
	list, err := m.ListProblemsWithProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, item := range list {
		if item.Progress == nil {
			return item.Problem, nil
		}
	}
	return nil, nil
}

const testUserID = "user-1"

// testDate is the fixed "today" used by all service tests.
var testDate = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestService(mock *mockReviewStore) *Service {
	svc := NewService(mock)
	svc.now = func() time.Time { return testDate }
	return svc
}

func testProblem(id string, seq int32, difficulty store.Difficulty, pattern string) *store.Problem {
	return &store.Problem{
		ID:             id,
		Title:          "Problem " + id,
		Slug:           "problem-" + id,
		Difficulty:     difficulty,
		Pattern:        pattern,
		SequenceNumber: seq,
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestUpdateUserProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("failed submission changes nothing", func(t *testing.T) {
		mock := &mockReviewStore{problems: []*store.Problem{testProblem("p1", 1, store.Easy, "arrays")}}
		svc := newTestService(mock)

		info, err := svc.UpdateUserProgress(ctx, testUserID, "p1", false)
		require.NoError(t, err)
		assert.False(t, info.NeedsRating)
		assert.Empty(t, mock.progress)
	})

	t.Run("first pass creates entry with defaults and prompts", func(t *testing.T) {
		mock := &mockReviewStore{problems: []*store.Problem{testProblem("p1", 1, store.Easy, "arrays")}}
		svc := newTestService(mock)

		info, err := svc.UpdateUserProgress(ctx, testUserID, "p1", true)
		require.NoError(t, err)
		assert.True(t, info.NeedsRating)
		assert.Equal(t, int32(0), info.IntervalDays)
		assert.InDelta(t, DefaultEaseFactor, info.EaseFactor, 1e-9)
		assert.Equal(t, int32(0), info.ReviewCount)
		assert.Nil(t, info.NextReviewDate)
		require.Len(t, mock.progress, 1)
	})

	t.Run("mastered without re-enrollment never reprompts", func(t *testing.T) {
		mock := &mockReviewStore{
			problems: []*store.Problem{testProblem("p1", 1, store.Easy, "arrays")},
			progress: []*store.UserProgress{{
				ID: "e1", UserID: testUserID, ProblemID: "p1",
				IsMastered: true, EaseFactor: 2.5, IntervalDays: 32, ReviewCount: 5,
			}},
		}
		svc := newTestService(mock)

		info, err := svc.UpdateUserProgress(ctx, testUserID, "p1", true)
		require.NoError(t, err)
		assert.False(t, info.NeedsRating)
		assert.True(t, info.IsMastered)
	})

	t.Run("due entry prompts for a rating", func(t *testing.T) {
		mock := &mockReviewStore{
			problems: []*store.Problem{testProblem("p1", 1, store.Easy, "arrays")},
			progress: []*store.UserProgress{{
				ID: "e1", UserID: testUserID, ProblemID: "p1",
				NextReviewDate: strPtr("2024-03-15"), EaseFactor: 2.5, IntervalDays: 3,
			}},
		}
		svc := newTestService(mock)

		info, err := svc.UpdateUserProgress(ctx, testUserID, "p1", true)
		require.NoError(t, err)
		assert.True(t, info.NeedsRating)
	})

	t.Run("unrated entry with no next review date is due", func(t *testing.T) {
		mock := &mockReviewStore{
			problems: []*store.Problem{testProblem("p1", 1, store.Easy, "arrays")},
			progress: []*store.UserProgress{{
				ID: "e1", UserID: testUserID, ProblemID: "p1", EaseFactor: 2.5,
			}},
		}
		svc := newTestService(mock)

		info, err := svc.UpdateUserProgress(ctx, testUserID, "p1", true)
		require.NoError(t, err)
		assert.True(t, info.NeedsRating)
	})

	t.Run("not yet due entry keeps its schedule", func(t *testing.T) {
		mock := &mockReviewStore{
			problems: []*store.Problem{testProblem("p1", 1, store.Easy, "arrays")},
			progress: []*store.UserProgress{{
				ID: "e1", UserID: testUserID, ProblemID: "p1",
				NextReviewDate: strPtr("2024-03-20"), EaseFactor: 2.5, IntervalDays: 7,
			}},
		}
		svc := newTestService(mock)

		info, err := svc.UpdateUserProgress(ctx, testUserID, "p1", true)
		require.NoError(t, err)
		assert.False(t, info.NeedsRating)
		assert.Equal(t, "2024-03-20", *mock.progress[0].NextReviewDate)
	})
}

func TestApplyRating(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown ratings", func(t *testing.T) {
		svc := newTestService(&mockReviewStore{})

		_, err := svc.ApplyRating(ctx, testUserID, "p1", Rating("easy"))
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRating))
	})

	t.Run("rejects rating without a ledger entry", func(t *testing.T) {
		svc := newTestService(&mockReviewStore{})

		_, err := svc.ApplyRating(ctx, testUserID, "p1", RatingGood)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("first good rating schedules three days out", func(t *testing.T) {
		mock := &mockReviewStore{progress: []*store.UserProgress{{
			ID: "e1", UserID: testUserID, ProblemID: "p1", EaseFactor: 2.5,
		}}}
		svc := newTestService(mock)

		result, err := svc.ApplyRating(ctx, testUserID, "p1", RatingGood)
		require.NoError(t, err)
		assert.Equal(t, int32(3), result.IntervalDays)
		assert.InDelta(t, 2.5, result.EaseFactor, 1e-9)
		assert.False(t, result.IsMastered)
		assert.Equal(t, int32(1), result.ReviewCount)
		assert.Equal(t, int32(1), result.TimesSolved)
		require.NotNil(t, result.NextReviewDate)
		assert.Equal(t, "2024-03-18", *result.NextReviewDate)

		entry := mock.progress[0]
		assert.Equal(t, int32(3), entry.IntervalDays)
		assert.Equal(t, "2024-03-18", *entry.NextReviewDate)
		require.NotNil(t, entry.LastSolvedTs)
		assert.Equal(t, testDate.Unix(), *entry.LastSolvedTs)
	})

	t.Run("mastered rating clears the next review date", func(t *testing.T) {
		mock := &mockReviewStore{progress: []*store.UserProgress{{
			ID: "e1", UserID: testUserID, ProblemID: "p1",
			NextReviewDate: strPtr("2024-03-15"), EaseFactor: 2.1, IntervalDays: 7, ReviewCount: 3, TimesSolved: 3,
		}}}
		svc := newTestService(mock)

		result, err := svc.ApplyRating(ctx, testUserID, "p1", RatingMastered)
		require.NoError(t, err)
		assert.True(t, result.IsMastered)
		assert.Equal(t, int32(0), result.IntervalDays)
		assert.Nil(t, result.NextReviewDate)
		assert.Equal(t, int32(4), result.ReviewCount)

		entry := mock.progress[0]
		assert.True(t, entry.IsMastered)
		assert.Nil(t, entry.NextReviewDate)
	})

	t.Run("good rating crossing the threshold auto-masters", func(t *testing.T) {
		mock := &mockReviewStore{progress: []*store.UserProgress{{
			ID: "e1", UserID: testUserID, ProblemID: "p1",
			NextReviewDate: strPtr("2024-03-15"), EaseFactor: 1.3, IntervalDays: 25, ReviewCount: 8, TimesSolved: 8,
		}}}
		svc := newTestService(mock)

		result, err := svc.ApplyRating(ctx, testUserID, "p1", RatingGood)
		require.NoError(t, err)
		assert.True(t, result.IsMastered)
		assert.Equal(t, int32(32), result.IntervalDays)
		assert.Nil(t, result.NextReviewDate)
		assert.Nil(t, mock.progress[0].NextReviewDate)
	})

	t.Run("any rating clears the show again flag", func(t *testing.T) {
		mock := &mockReviewStore{progress: []*store.UserProgress{{
			ID: "e1", UserID: testUserID, ProblemID: "p1",
			NextReviewDate: strPtr("2024-03-15"), EaseFactor: 2.5, ShowAgain: true,
		}}}
		svc := newTestService(mock)

		_, err := svc.ApplyRating(ctx, testUserID, "p1", RatingAgain)
		require.NoError(t, err)
		assert.False(t, mock.progress[0].ShowAgain)
	})
}

func TestGetTodaysProblems(t *testing.T) {
	ctx := context.Background()

	t.Run("caps reviews at two ordered oldest first plus one new", func(t *testing.T) {
		mock := &mockReviewStore{
			problems: []*store.Problem{
				testProblem("p1", 1, store.Easy, "arrays"),
				testProblem("p2", 2, store.Easy, "arrays"),
				testProblem("p3", 3, store.Medium, "two-pointers"),
				testProblem("p4", 4, store.Medium, "two-pointers"),
				testProblem("p5", 5, store.Hard, "dp"),
			},
			progress: []*store.UserProgress{
				{ID: "e1", UserID: testUserID, ProblemID: "p1", NextReviewDate: strPtr("2024-03-10"), EaseFactor: 2.5},
				{ID: "e2", UserID: testUserID, ProblemID: "p2", NextReviewDate: strPtr("2024-03-14"), EaseFactor: 2.5},
				{ID: "e3", UserID: testUserID, ProblemID: "p3", NextReviewDate: strPtr("2024-03-12"), EaseFactor: 2.5},
			},
		}
		svc := newTestService(mock)

		session, err := svc.GetTodaysProblems(ctx, testUserID)
		require.NoError(t, err)
		require.Len(t, session.Reviews, 2)
		assert.Equal(t, "p1", session.Reviews[0].Problem.ID)
		assert.Equal(t, "p3", session.Reviews[1].Problem.ID)
		require.NotNil(t, session.NewProblem)
		assert.Equal(t, "p4", session.NewProblem.ID)
	})

	t.Run("mastered and future entries are not due", func(t *testing.T) {
		mock := &mockReviewStore{
			problems: []*store.Problem{
				testProblem("p1", 1, store.Easy, "arrays"),
				testProblem("p2", 2, store.Easy, "arrays"),
			},
			progress: []*store.UserProgress{
				{ID: "e1", UserID: testUserID, ProblemID: "p1", IsMastered: true, EaseFactor: 2.5},
				{ID: "e2", UserID: testUserID, ProblemID: "p2", NextReviewDate: strPtr("2024-04-01"), EaseFactor: 2.5},
			},
		}
		svc := newTestService(mock)

		session, err := svc.GetTodaysProblems(ctx, testUserID)
		require.NoError(t, err)
		assert.Empty(t, session.Reviews)
		assert.Nil(t, session.NewProblem)
	})

	t.Run("attempted problems are never selected as new", func(t *testing.T) {
		mock := &mockReviewStore{
			problems: []*store.Problem{
				testProblem("p1", 1, store.Easy, "arrays"),
				testProblem("p2", 2, store.Easy, "arrays"),
			},
			progress: []*store.UserProgress{
				{ID: "e1", UserID: testUserID, ProblemID: "p1", NextReviewDate: strPtr("2024-04-01"), EaseFactor: 2.5},
			},
		}
		svc := newTestService(mock)

		session, err := svc.GetTodaysProblems(ctx, testUserID)
		require.NoError(t, err)
		require.NotNil(t, session.NewProblem)
		assert.Equal(t, "p2", session.NewProblem.ID)
	})
}

func TestGetUserProgressStats(t *testing.T) {
	ctx := context.Background()
	mock := &mockReviewStore{
		problems: []*store.Problem{
			testProblem("p1", 1, store.Easy, "arrays"),
			testProblem("p2", 2, store.Easy, "arrays"),
			testProblem("p3", 3, store.Medium, "two-pointers"),
			testProblem("p4", 4, store.Hard, "dp"),
			testProblem("p5", 5, store.Hard, "dp"),
		},
		progress: []*store.UserProgress{
			{ID: "e1", UserID: testUserID, ProblemID: "p1", IsMastered: true, EaseFactor: 2.5},
			{ID: "e2", UserID: testUserID, ProblemID: "p2", NextReviewDate: strPtr("2024-03-10"), EaseFactor: 2.5},
			{ID: "e3", UserID: testUserID, ProblemID: "p4", NextReviewDate: strPtr("2024-04-01"), EaseFactor: 2.5},
		},
	}
	svc := newTestService(mock)

	stats, err := svc.GetUserProgressStats(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalProblems)
	assert.Equal(t, 3, stats.SolvedCount)
	assert.Equal(t, 1, stats.MasteredCount)
	assert.Equal(t, 2, stats.InProgressCount)
	assert.Equal(t, 2, stats.UnsolvedCount)
	assert.Equal(t, 1, stats.DueCount)
	assert.Equal(t, map[store.Difficulty]int{store.Easy: 2, store.Hard: 1}, stats.ByDifficulty)
	assert.Equal(t, map[string]int{"arrays": 2, "dp": 1}, stats.ByPattern)
}

func TestMarkShowAgain(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown entries", func(t *testing.T) {
		svc := newTestService(&mockReviewStore{})

		_, err := svc.MarkShowAgain(ctx, testUserID, "p1")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("rejects non-mastered entries", func(t *testing.T) {
		mock := &mockReviewStore{progress: []*store.UserProgress{{
			ID: "e1", UserID: testUserID, ProblemID: "p1", EaseFactor: 2.5,
		}}}
		svc := newTestService(mock)

		_, err := svc.MarkShowAgain(ctx, testUserID, "p1")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotMastered))
	})

	t.Run("re-enrollment fully resets the learning curve", func(t *testing.T) {
		mock := &mockReviewStore{progress: []*store.UserProgress{{
			ID: "e1", UserID: testUserID, ProblemID: "p1",
			IsMastered: true, EaseFactor: 1.7, IntervalDays: 32, ReviewCount: 9, TimesSolved: 9,
		}}}
		svc := newTestService(mock)

		info, err := svc.MarkShowAgain(ctx, testUserID, "p1")
		require.NoError(t, err)
		assert.False(t, info.IsMastered)
		assert.True(t, info.ShowAgain)
		assert.Equal(t, int32(0), info.IntervalDays)
		assert.InDelta(t, DefaultEaseFactor, info.EaseFactor, 1e-9)
		assert.Equal(t, "2024-03-15", *info.NextReviewDate)
		// Counters survive re-enrollment.
		assert.Equal(t, int32(9), info.ReviewCount)
		assert.Equal(t, int32(9), info.TimesSolved)

		// The next good rating behaves as a first-ever review again.
		result, err := svc.ApplyRating(ctx, testUserID, "p1", RatingGood)
		require.NoError(t, err)
		assert.Equal(t, int32(3), result.IntervalDays)
		assert.InDelta(t, DefaultEaseFactor, result.EaseFactor, 1e-9)
		assert.False(t, result.IsMastered)
		assert.False(t, mock.progress[0].ShowAgain)
	})
}

func TestGetMasteredProblems(t *testing.T) {
	ctx := context.Background()
	mock := &mockReviewStore{
		problems: []*store.Problem{
			testProblem("p1", 1, store.Easy, "arrays"),
			testProblem("p2", 2, store.Medium, "dp"),
		},
		progress: []*store.UserProgress{
			{ID: "e1", UserID: testUserID, ProblemID: "p1", IsMastered: true, EaseFactor: 2.5},
			{ID: "e2", UserID: testUserID, ProblemID: "p2", NextReviewDate: strPtr("2024-03-10"), EaseFactor: 2.5},
		},
	}
	svc := newTestService(mock)

	items, err := svc.GetMasteredProblems(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].Problem.ID)
	assert.True(t, items[0].Progress.IsMastered)
}

func TestGetMasteredProblemsOrder(t *testing.T) {
	ctx := context.Background()
	// e1 was created first but e2 was solved more recently.
	mock := &mockReviewStore{
		problems: []*store.Problem{
			testProblem("p1", 1, store.Easy, "arrays"),
			testProblem("p2", 2, store.Medium, "dp"),
			testProblem("p3", 3, store.Hard, "graphs"),
		},
		progress: []*store.UserProgress{
			{ID: "e1", UserID: testUserID, ProblemID: "p1", IsMastered: true, LastSolvedTs: int64Ptr(1000), CreatedTs: 1, EaseFactor: 2.5},
			{ID: "e2", UserID: testUserID, ProblemID: "p2", IsMastered: true, LastSolvedTs: int64Ptr(2000), CreatedTs: 2, EaseFactor: 2.5},
			{ID: "e3", UserID: testUserID, ProblemID: "p3", IsMastered: true, CreatedTs: 3, EaseFactor: 2.5},
		},
	}
	svc := newTestService(mock)

	items, err := svc.GetMasteredProblems(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "p2", items[0].Problem.ID)
	assert.Equal(t, "p1", items[1].Problem.ID)
	assert.Equal(t, "p3", items[2].Problem.ID)
}
