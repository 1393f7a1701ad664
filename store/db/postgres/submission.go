package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/acodeaday/acodeaday/store"
)

func (d *DB) CreateSubmission(ctx context.Context, create *store.Submission) (*store.Submission, error) {
	fields := []string{
		"id", "user_id", "problem_id", "code", "language", "passed",
		"runtime_ms", "memory_kb", "total_test_cases", "passed_count",
		"failed_test_number", "failed_input", "failed_output", "failed_expected", "failed_is_hidden",
	}
	placeholderValues := []any{
		create.ID, create.UserID, create.ProblemID, create.Code, create.Language, create.Passed,
		create.RuntimeMs, create.MemoryKb, create.TotalTestCases, create.PassedCount,
		create.FailedTestNumber, create.FailedInput, create.FailedOutput, create.FailedExpected, create.FailedIsHidden,
	}

	stmt := `INSERT INTO submission (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING submitted_ts`
	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(&create.SubmittedTs); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return create, nil
}

func (d *DB) ListSubmissions(ctx context.Context, find *store.FindSubmission) ([]*store.Submission, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "submission.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ProblemID; v != nil {
		where, args = append(where, "submission.problem_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Passed; v != nil {
		where, args = append(where, "submission.passed = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, user_id, problem_id, code, language, passed,
			runtime_ms, memory_kb, total_test_cases, passed_count,
			failed_test_number, failed_input, failed_output, failed_expected, failed_is_hidden,
			submitted_ts
		FROM submission
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY submission.submitted_ts DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Submission, 0)
	for rows.Next() {
		var submission store.Submission
		if err := rows.Scan(
			&submission.ID,
			&submission.UserID,
			&submission.ProblemID,
			&submission.Code,
			&submission.Language,
			&submission.Passed,
			&submission.RuntimeMs,
			&submission.MemoryKb,
			&submission.TotalTestCases,
			&submission.PassedCount,
			&submission.FailedTestNumber,
			&submission.FailedInput,
			&submission.FailedOutput,
			&submission.FailedExpected,
			&submission.FailedIsHidden,
			&submission.SubmittedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		list = append(list, &submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return list, nil
}
