package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/acodeaday/acodeaday/store"
)

func (d *DB) UpsertUserCode(ctx context.Context, upsert *store.UpsertUserCode) (*store.UserCode, error) {
	userCode := store.UserCode{
		ID:        uuid.NewString(),
		UserID:    upsert.UserID,
		ProblemID: upsert.ProblemID,
		Language:  upsert.Language,
		Code:      upsert.Code,
	}

	stmt := `INSERT INTO user_code (id, user_id, problem_id, language, code)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (user_id, problem_id, language) DO UPDATE SET
			code = EXCLUDED.code,
			updated_ts = EXTRACT(EPOCH FROM NOW())::BIGINT
		RETURNING id, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		userCode.ID, userCode.UserID, userCode.ProblemID, userCode.Language, userCode.Code,
	).Scan(&userCode.ID, &userCode.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert user code: %w", err)
	}
	return &userCode, nil
}

func (d *DB) ListUserCodes(ctx context.Context, find *store.FindUserCode) ([]*store.UserCode, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ProblemID; v != nil {
		where, args = append(where, "problem_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Language; v != nil {
		where, args = append(where, "language = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, user_id, problem_id, language, code, updated_ts
		FROM user_code
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY updated_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user codes: %w", err)
	}
	defer rows.Close()

	list := make([]*store.UserCode, 0)
	for rows.Next() {
		var userCode store.UserCode
		if err := rows.Scan(
			&userCode.ID,
			&userCode.UserID,
			&userCode.ProblemID,
			&userCode.Language,
			&userCode.Code,
			&userCode.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user code: %w", err)
		}
		list = append(list, &userCode)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user codes: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteUserCode(ctx context.Context, delete *store.DeleteUserCode) error {
	stmt := `DELETE FROM user_code
		WHERE user_id = ` + placeholder(1) + ` AND problem_id = ` + placeholder(2) + ` AND language = ` + placeholder(3)
	if _, err := d.db.ExecContext(ctx, stmt, delete.UserID, delete.ProblemID, delete.Language); err != nil {
		return fmt.Errorf("failed to delete user code: %w", err)
	}
	return nil
}
