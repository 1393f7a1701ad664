package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acodeaday/acodeaday/store"
)

func (d *DB) CreateProblem(ctx context.Context, create *store.Problem) (*store.Problem, error) {
	constraints, err := json.Marshal(create.Constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal constraints: %w", err)
	}
	if create.Examples == "" {
		create.Examples = "[]"
	}

	fields := []string{"id", "title", "slug", "description", "difficulty", "pattern", "sequence_number", "constraints", "examples"}
	args := []any{create.ID, create.Title, create.Slug, create.Description, create.Difficulty, create.Pattern, create.SequenceNumber, string(constraints), create.Examples}

	stmt := `INSERT INTO problem (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}
	return create, nil
}

func (d *DB) ListProblems(ctx context.Context, find *store.FindProblem) ([]*store.Problem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "problem.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Slug; v != nil {
		where, args = append(where, "problem.slug = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Difficulty; v != nil {
		where, args = append(where, "problem.difficulty = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Pattern; v != nil {
		where, args = append(where, "problem.pattern = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, title, slug, description, difficulty, pattern,
			sequence_number, constraints, examples, created_ts
		FROM problem
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY problem.sequence_number ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query problems: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Problem, 0)
	for rows.Next() {
		problem, err := scanProblem(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, problem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate problems: %w", err)
	}
	return list, nil
}

func (d *DB) CountProblems(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM problem").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count problems: %w", err)
	}
	return count, nil
}

func (d *DB) DeleteProblem(ctx context.Context, delete *store.DeleteProblem) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM problem WHERE id = "+placeholder(1), delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete problem: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("problem not found")
	}
	return nil
}

// scanProblem scans one problem row. The scan argument order must match the
// SELECT column order used by the problem queries.
func scanProblem(scan func(dest ...any) error) (*store.Problem, error) {
	var problem store.Problem
	var constraints string
	if err := scan(
		&problem.ID,
		&problem.Title,
		&problem.Slug,
		&problem.Description,
		&problem.Difficulty,
		&problem.Pattern,
		&problem.SequenceNumber,
		&constraints,
		&problem.Examples,
		&problem.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to scan problem: %w", err)
	}
	if err := json.Unmarshal([]byte(constraints), &problem.Constraints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal constraints: %w", err)
	}
	return &problem, nil
}

func (d *DB) CreateProblemLanguage(ctx context.Context, create *store.ProblemLanguage) (*store.ProblemLanguage, error) {
	fields := []string{"id", "problem_id", "language", "starter_code", "reference_solution", "function_signature"}
	args := []any{create.ID, create.ProblemID, create.Language, create.StarterCode, create.ReferenceSolution, create.FunctionSignature}

	stmt := `INSERT INTO problem_language (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create problem language: %w", err)
	}
	return create, nil
}

func (d *DB) ListProblemLanguages(ctx context.Context, find *store.FindProblemLanguage) ([]*store.ProblemLanguage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ProblemID; v != nil {
		where, args = append(where, "problem_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Language; v != nil {
		where, args = append(where, "language = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, problem_id, language, starter_code, reference_solution, function_signature, created_ts
		FROM problem_language
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY language ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query problem languages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ProblemLanguage, 0)
	for rows.Next() {
		var lang store.ProblemLanguage
		if err := rows.Scan(
			&lang.ID,
			&lang.ProblemID,
			&lang.Language,
			&lang.StarterCode,
			&lang.ReferenceSolution,
			&lang.FunctionSignature,
			&lang.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan problem language: %w", err)
		}
		list = append(list, &lang)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate problem languages: %w", err)
	}
	return list, nil
}

func (d *DB) CreateTestCase(ctx context.Context, create *store.TestCase) (*store.TestCase, error) {
	fields := []string{"id", "problem_id", "input", "expected", "is_hidden", "sequence"}
	args := []any{create.ID, create.ProblemID, create.Input, create.Expected, create.IsHidden, create.Sequence}

	stmt := `INSERT INTO test_case (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create test case: %w", err)
	}
	return create, nil
}

func (d *DB) ListTestCases(ctx context.Context, find *store.FindTestCase) ([]*store.TestCase, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ProblemID; v != nil {
		where, args = append(where, "problem_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IsHidden; v != nil {
		where, args = append(where, "is_hidden = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, problem_id, input, expected, is_hidden, sequence, created_ts
		FROM test_case
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY sequence ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test cases: %w", err)
	}
	defer rows.Close()

	list := make([]*store.TestCase, 0)
	for rows.Next() {
		var testCase store.TestCase
		if err := rows.Scan(
			&testCase.ID,
			&testCase.ProblemID,
			&testCase.Input,
			&testCase.Expected,
			&testCase.IsHidden,
			&testCase.Sequence,
			&testCase.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan test case: %w", err)
		}
		list = append(list, &testCase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate test cases: %w", err)
	}
	return list, nil
}
