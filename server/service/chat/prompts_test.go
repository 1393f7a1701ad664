package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acodeaday/acodeaday/store"
)

func TestBuildContextMessage(t *testing.T) {
	problem := &store.Problem{
		Title:       "Two Sum",
		Description: "Find two numbers that add to target.",
		Constraints: []string{"2 <= nums.length <= 10^4"},
		Examples:    `{"examples": [{"input": "nums = [2,7], target = 9", "output": "[0,1]"}]}`,
	}

	t.Run("hidden test failures are redacted", func(t *testing.T) {
		failedTest := int32(7)
		input := `[999]`
		msg := buildContextMessage(problem, "", &store.Submission{
			Passed:           false,
			FailedTestNumber: &failedTest,
			FailedInput:      &input,
			FailedIsHidden:   true,
		})
		assert.Contains(t, msg, "Failed on test case 7")
		assert.NotContains(t, msg, "[999]")
	})

	t.Run("long code is truncated in the middle", func(t *testing.T) {
		head := strings.Repeat("a", codeTruncateHead)
		middle := strings.Repeat("m", 5000)
		tail := strings.Repeat("z", codeTruncateTail)
		msg := buildContextMessage(problem, head+middle+tail, nil)
		assert.Contains(t, msg, "[code truncated]")
		assert.Contains(t, msg, head)
		assert.Contains(t, msg, tail)
		assert.NotContains(t, msg, strings.Repeat("m", 600))
	})

	t.Run("no submission means no test results section", func(t *testing.T) {
		msg := buildContextMessage(problem, "", nil)
		assert.NotContains(t, msg, "Latest Test Results")
		assert.Contains(t, msg, "2 <= nums.length <= 10^4")
	})
}
