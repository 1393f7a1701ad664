// Package execution wraps user code in a test harness, runs it on the judge,
// and turns the sandbox output into structured per-test results.
package execution

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/acodeaday/acodeaday/store"
)

var pythonIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type harnessTestCase struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
	IsHidden bool            `json:"is_hidden"`
}

// GeneratePythonHarness wraps the user's Solution class with a test driver
// that calls the target method per test case, captures user prints, and emits
// a single JSON result line on stdout.
//
// Test data is embedded base64-encoded so user-controlled values can never
// escape into the generated source.
func GeneratePythonHarness(userCode, functionName string, testCases []*store.TestCase, earlyExit bool) (string, error) {
	if !pythonIdentifier.MatchString(functionName) {
		return "", errors.Errorf("invalid function name: %s", functionName)
	}

	cases := make([]harnessTestCase, 0, len(testCases))
	for _, tc := range testCases {
		cases = append(cases, harnessTestCase{
			Input:    json.RawMessage(tc.Input),
			Expected: json.RawMessage(tc.Expected),
			IsHidden: tc.IsHidden,
		})
	}
	payload, err := json.Marshal(cases)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal test cases")
	}
	encoded := base64.StdEncoding.EncodeToString(payload)

	earlyExitLiteral := "False"
	if earlyExit {
		earlyExitLiteral = "True"
	}

	var b strings.Builder
	b.WriteString("from typing import List, Optional, Dict, Tuple, Set, Any\n\n")
	b.WriteString(userCode)
	b.WriteString("\n\n")
	b.WriteString("import base64\nimport io\nimport json\nimport sys\n\n")
	b.WriteString("if __name__ == \"__main__\":\n")
	fmt.Fprintf(&b, "    test_cases = json.loads(base64.b64decode(%q).decode())\n", encoded)
	fmt.Fprintf(&b, "    early_exit = %s\n", earlyExitLiteral)
	b.WriteString(`    results = []

    _original_stdout = sys.stdout

    for i, test in enumerate(test_cases):
        _captured_stdout = io.StringIO()
        sys.stdout = _captured_stdout

        args = test["input"] if isinstance(test["input"], list) else [test["input"]]

        try:
            solution = Solution()
`)
	fmt.Fprintf(&b, "            result = solution.%s(*args)\n", functionName)
	b.WriteString(`            passed = result == test["expected"]
            stdout_content = _captured_stdout.getvalue()

            results.append({
                "test_number": i + 1,
                "passed": passed,
                "input": args,
                "output": result,
                "expected": test["expected"],
                "is_hidden": test["is_hidden"],
                "stdout": stdout_content if stdout_content else None
            })

            if early_exit and not passed:
                break

        except Exception as e:
            stdout_content = _captured_stdout.getvalue()

            results.append({
                "test_number": i + 1,
                "passed": False,
                "input": args,
                "error": str(e),
                "error_type": type(e).__name__,
                "expected": test["expected"],
                "is_hidden": test["is_hidden"],
                "stdout": stdout_content if stdout_content else None
            })

            if early_exit:
                break

    sys.stdout = _original_stdout

    print(json.dumps(results, default=str))
`)

	return b.String(), nil
}
