package v1

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

// problemFilterEnv declares the identifiers available in a problem list
// filter expression, e.g. `difficulty == "easy" && pattern == "two-pointers"`.
var problemFilterEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("slug", cel.StringType),
		cel.Variable("difficulty", cel.StringType),
		cel.Variable("pattern", cel.StringType),
		cel.Variable("sequence_number", cel.IntType),
	)
	if err != nil {
		panic(errors.Wrap(err, "failed to create problem filter env"))
	}
	return env
}()

// compileProblemFilter compiles a filter expression into a per-problem
// predicate. An invalid expression is an INVALID_ARGUMENT domain error.
func compileProblemFilter(expression string) (func(*store.Problem) (bool, error), error) {
	ast, issues := problemFilterEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, apperrors.InvalidArgument("invalid filter: " + issues.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperrors.InvalidArgument("invalid filter: expression must evaluate to a boolean")
	}
	program, err := problemFilterEnv.Program(ast)
	if err != nil {
		return nil, apperrors.InvalidArgument("invalid filter: " + err.Error())
	}

	return func(problem *store.Problem) (bool, error) {
		out, _, err := program.Eval(map[string]any{
			"title":           problem.Title,
			"slug":            problem.Slug,
			"difficulty":      string(problem.Difficulty),
			"pattern":         problem.Pattern,
			"sequence_number": int64(problem.SequenceNumber),
		})
		if err != nil {
			return false, apperrors.InvalidArgument("invalid filter: " + err.Error())
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return false, apperrors.InvalidArgument("invalid filter: expression must evaluate to a boolean")
		}
		return matched, nil
	}, nil
}
