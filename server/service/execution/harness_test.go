package execution

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodeaday/acodeaday/store"
)

func TestGeneratePythonHarness(t *testing.T) {
	userCode := "class Solution:\n    def twoSum(self, nums, target):\n        return [0, 1]"
	testCases := []*store.TestCase{
		{Input: `[[2, 7, 11, 15], 9]`, Expected: `[0, 1]`, IsHidden: false, Sequence: 1},
		{Input: `[[3, 3], 6]`, Expected: `[0, 1]`, IsHidden: true, Sequence: 2},
	}

	harness, err := GeneratePythonHarness(userCode, "twoSum", testCases, false)
	require.NoError(t, err)

	assert.Contains(t, harness, userCode)
	assert.Contains(t, harness, "solution.twoSum(*args)")
	assert.Contains(t, harness, "early_exit = False")
	assert.Contains(t, harness, `if __name__ == "__main__":`)

	// The embedded payload must round-trip back to the test cases.
	matches := regexp.MustCompile(`base64\.b64decode\("([^"]+)"\)`).FindStringSubmatch(harness)
	require.Len(t, matches, 2)
	payload, err := base64.StdEncoding.DecodeString(matches[1])
	require.NoError(t, err)

	var decoded []harnessTestCase
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Len(t, decoded, 2)
	assert.JSONEq(t, `[[2, 7, 11, 15], 9]`, string(decoded[0].Input))
	assert.JSONEq(t, `[0, 1]`, string(decoded[0].Expected))
	assert.False(t, decoded[0].IsHidden)
	assert.True(t, decoded[1].IsHidden)
}

func TestGeneratePythonHarnessEarlyExit(t *testing.T) {
	harness, err := GeneratePythonHarness("class Solution:\n    pass", "solve", nil, true)
	require.NoError(t, err)
	assert.Contains(t, harness, "early_exit = True")
}

func TestGeneratePythonHarnessRejectsInvalidFunctionNames(t *testing.T) {
	for _, name := range []string{"", "2sum", "two-sum", "foo bar", "foo()", "a.b"} {
		_, err := GeneratePythonHarness("class Solution:\n    pass", name, nil, false)
		assert.Error(t, err, "name %q", name)
	}
}

func TestGeneratePythonHarnessCodeCannotEscapePayload(t *testing.T) {
	// Hostile test data stays inside the base64 payload.
	testCases := []*store.TestCase{
		{Input: `["\"); import os #"]`, Expected: `"x"`, Sequence: 1},
	}
	harness, err := GeneratePythonHarness("class Solution:\n    pass", "solve", testCases, false)
	require.NoError(t, err)
	assert.False(t, strings.Contains(harness, "import os #"))
}
