package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acodeaday/acodeaday/store"
)

func (d *DB) CreateUserProgress(ctx context.Context, create *store.UserProgress) (*store.UserProgress, error) {
	fields := []string{
		"id", "user_id", "problem_id",
		"times_solved", "last_solved_ts", "next_review_date",
		"is_mastered", "show_again", "ease_factor", "interval_days", "review_count",
	}
	placeholderValues := []any{
		create.ID, create.UserID, create.ProblemID,
		create.TimesSolved, create.LastSolvedTs, create.NextReviewDate,
		create.IsMastered, create.ShowAgain, create.EaseFactor, create.IntervalDays, create.ReviewCount,
	}

	// ON CONFLICT DO NOTHING keeps concurrent first-touch creation race-free:
	// the caller re-reads the row afterwards either way.
	stmt := `INSERT INTO user_progress (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		ON CONFLICT (user_id, problem_id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, placeholderValues...); err != nil {
		return nil, fmt.Errorf("failed to create user progress: %w", err)
	}

	list, err := d.ListUserProgress(ctx, &store.FindUserProgress{UserID: &create.UserID, ProblemID: &create.ProblemID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("user progress not found after create")
	}
	return list[0], nil
}

func (d *DB) ListUserProgress(ctx context.Context, find *store.FindUserProgress) ([]*store.UserProgress, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_progress.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ProblemID; v != nil {
		where, args = append(where, "user_progress.problem_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IsMastered; v != nil {
		where, args = append(where, "user_progress.is_mastered = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DueOnOrBefore; v != nil {
		where, args = append(where, "user_progress.next_review_date IS NOT NULL AND user_progress.next_review_date <= "+placeholder(len(args)+1)), append(args, *v)
	}

	orderBy := "ORDER BY user_progress.created_ts DESC"
	if find.DueOnOrBefore != nil {
		// Dates are ISO strings so lexicographic order is chronological.
		orderBy = "ORDER BY user_progress.next_review_date ASC"
	}
	if find.OrderByLastSolvedDesc {
		orderBy = "ORDER BY user_progress.last_solved_ts DESC NULLS LAST"
	}

	query := `
		SELECT
			id, user_id, problem_id,
			times_solved, last_solved_ts, next_review_date,
			is_mastered, show_again, ease_factor, interval_days, review_count,
			created_ts
		FROM user_progress
		WHERE ` + strings.Join(where, " AND ") + " " + orderBy
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user progress: %w", err)
	}
	defer rows.Close()

	list := make([]*store.UserProgress, 0)
	for rows.Next() {
		var progress store.UserProgress
		if err := rows.Scan(
			&progress.ID,
			&progress.UserID,
			&progress.ProblemID,
			&progress.TimesSolved,
			&progress.LastSolvedTs,
			&progress.NextReviewDate,
			&progress.IsMastered,
			&progress.ShowAgain,
			&progress.EaseFactor,
			&progress.IntervalDays,
			&progress.ReviewCount,
			&progress.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user progress: %w", err)
		}
		list = append(list, &progress)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user progress: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateUserProgress(ctx context.Context, update *store.UpdateUserProgress) error {
	set, args := []string{}, []any{}

	if v := update.TimesSolved; v != nil {
		set, args = append(set, "times_solved = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.LastSolvedTs; v != nil {
		set, args = append(set, "last_solved_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if update.ClearNextReviewDate {
		set = append(set, "next_review_date = NULL")
	} else if v := update.NextReviewDate; v != nil {
		set, args = append(set, "next_review_date = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.IsMastered; v != nil {
		set, args = append(set, "is_mastered = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ShowAgain; v != nil {
		set, args = append(set, "show_again = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.EaseFactor; v != nil {
		set, args = append(set, "ease_factor = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.IntervalDays; v != nil {
		set, args = append(set, "interval_days = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ReviewCount; v != nil {
		set, args = append(set, "review_count = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	stmt := `UPDATE user_progress SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)+1)
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update user progress: %w", err)
	}
	return nil
}

func (d *DB) ListProblemsWithProgress(ctx context.Context, userID string) ([]*store.ProblemWithProgress, error) {
	query := `
		SELECT
			problem.id, problem.title, problem.slug, problem.description, problem.difficulty,
			problem.pattern, problem.sequence_number, problem.constraints, problem.examples, problem.created_ts,
			user_progress.id, user_progress.times_solved, user_progress.last_solved_ts,
			user_progress.next_review_date, user_progress.is_mastered, user_progress.show_again,
			user_progress.ease_factor, user_progress.interval_days, user_progress.review_count
		FROM problem
		LEFT JOIN user_progress
			ON user_progress.problem_id = problem.id AND user_progress.user_id = ` + placeholder(1) + `
		ORDER BY problem.sequence_number ASC`

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query problems with progress: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ProblemWithProgress, 0)
	for rows.Next() {
		item, err := scanProblemWithProgress(rows.Scan, userID)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate problems with progress: %w", err)
	}
	return list, nil
}

func (d *DB) GetNextUnsolvedProblem(ctx context.Context, userID string) (*store.Problem, error) {
	// A problem is unattempted while no progress ledger row exists for it.
	query := `
		SELECT
			problem.id, problem.title, problem.slug, problem.description, problem.difficulty,
			problem.pattern, problem.sequence_number, problem.constraints, problem.examples, problem.created_ts
		FROM problem
		LEFT JOIN user_progress
			ON user_progress.problem_id = problem.id AND user_progress.user_id = ` + placeholder(1) + `
		WHERE user_progress.id IS NULL
		ORDER BY problem.sequence_number ASC
		LIMIT 1`

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query next unsolved problem: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate next unsolved problem: %w", err)
		}
		return nil, nil
	}
	return scanProblem(rows.Scan)
}

// scanProblemWithProgress handles the nullable progress side of the join by
// scanning into pointers first and materializing a ledger row only when one exists.
func scanProblemWithProgress(scan func(dest ...any) error, userID string) (*store.ProblemWithProgress, error) {
	item := store.ProblemWithProgress{Problem: &store.Problem{}}
	var constraints string
	var progressID *string
	var timesSolved, reviewCount, intervalDays *int32
	var lastSolvedTs *int64
	var nextReviewDate *string
	var isMastered, showAgain *bool
	var easeFactor *float64
	if err := scan(
		&item.Problem.ID,
		&item.Problem.Title,
		&item.Problem.Slug,
		&item.Problem.Description,
		&item.Problem.Difficulty,
		&item.Problem.Pattern,
		&item.Problem.SequenceNumber,
		&constraints,
		&item.Problem.Examples,
		&item.Problem.CreatedTs,
		&progressID,
		&timesSolved,
		&lastSolvedTs,
		&nextReviewDate,
		&isMastered,
		&showAgain,
		&easeFactor,
		&intervalDays,
		&reviewCount,
	); err != nil {
		return nil, fmt.Errorf("failed to scan problem with progress: %w", err)
	}
	if err := json.Unmarshal([]byte(constraints), &item.Problem.Constraints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal constraints: %w", err)
	}
	if progressID != nil {
		item.Progress = &store.UserProgress{
			ID:             *progressID,
			UserID:         userID,
			ProblemID:      item.Problem.ID,
			TimesSolved:    *timesSolved,
			LastSolvedTs:   lastSolvedTs,
			NextReviewDate: nextReviewDate,
			IsMastered:     *isMastered,
			ShowAgain:      *showAgain,
			EaseFactor:     *easeFactor,
			IntervalDays:   *intervalDays,
			ReviewCount:    *reviewCount,
		}
	}
	return &item, nil
}
