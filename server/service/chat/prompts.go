package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acodeaday/acodeaday/store"
)

// socraticSystemPrompt guides without giving answers away.
const socraticSystemPrompt = `You are a Socratic tutor helping a programmer solve coding problems through guided discovery.

RULES:
- NEVER give direct answers or show complete solutions
- Ask guiding questions that lead the user to insights
- Celebrate breakthroughs and correct reasoning
- If user is stuck, give progressively more specific hints
- Always respond in Markdown format
- Use code blocks for code examples (but only fragments, never full solutions)
- Be encouraging and patient

APPROACH:
1. First understand what the user has tried
2. Identify misconceptions or gaps in understanding
3. Ask questions that guide them to the right path
4. Help them break down the problem into smaller pieces

Remember: Your goal is to help them learn by thinking through the problem themselves.`

// directSystemPrompt answers plainly, solutions allowed.
const directSystemPrompt = `You are a helpful programming assistant for a coding practice platform.

RULES:
- Give clear, direct explanations
- You CAN show code examples and solutions
- Explain bugs and errors directly
- Always respond in Markdown format
- Use proper code blocks with syntax highlighting
- Be concise but thorough

APPROACH:
1. Understand the user's question or issue
2. Provide clear explanations with code examples
3. Point out specific bugs or issues in their code
4. Suggest improvements or alternative approaches

Remember: Help them understand by explaining clearly and showing examples.`

// systemPrompt returns the system prompt for a chat mode.
func systemPrompt(mode store.ChatMode) string {
	if mode == store.ChatModeDirect {
		return directSystemPrompt
	}
	return socraticSystemPrompt
}

const (
	codeTruncateLimit = 3000
	codeTruncateHead  = 2000
	codeTruncateTail  = 500
)

// buildContextMessage assembles the problem statement, the user's current
// code, and the latest submission outcome into one context block for the LLM.
func buildContextMessage(problem *store.Problem, currentCode string, lastSubmission *store.Submission) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Problem: %s\n\n%s\n\n**Constraints:**\n", problem.Title, problem.Description)
	for _, constraint := range problem.Constraints {
		fmt.Fprintf(&b, "- %s\n", constraint)
	}

	b.WriteString("\n**Examples:**\n")
	for i, example := range parseExamples(problem.Examples) {
		fmt.Fprintf(&b, "\nExample %d:\n", i+1)
		fmt.Fprintf(&b, "- Input: `%s`\n", example.Input)
		fmt.Fprintf(&b, "- Output: `%s`\n", example.Output)
		if example.Explanation != "" {
			fmt.Fprintf(&b, "- Explanation: %s\n", example.Explanation)
		}
	}

	if currentCode != "" {
		code := currentCode
		if len(code) > codeTruncateLimit {
			code = code[:codeTruncateHead] + "\n\n... [code truncated] ...\n\n" + code[len(code)-codeTruncateTail:]
		}
		fmt.Fprintf(&b, "\n\n**Current Code:**\n```python\n%s\n```\n", code)
	}

	if lastSubmission != nil {
		b.WriteString("\n**Latest Test Results:**\n")
		if lastSubmission.Passed {
			b.WriteString("- Status: Passed\n")
		} else {
			b.WriteString("- Status: Failed\n")
			if lastSubmission.FailedTestNumber != nil {
				fmt.Fprintf(&b, "- Failed on test case %d\n", *lastSubmission.FailedTestNumber)
				if !lastSubmission.FailedIsHidden {
					if lastSubmission.FailedInput != nil {
						fmt.Fprintf(&b, "  - Input: `%s`\n", *lastSubmission.FailedInput)
					}
					if lastSubmission.FailedExpected != nil {
						fmt.Fprintf(&b, "  - Expected: `%s`\n", *lastSubmission.FailedExpected)
					}
					if lastSubmission.FailedOutput != nil {
						fmt.Fprintf(&b, "  - Got: `%s`\n", *lastSubmission.FailedOutput)
					}
				}
			}
		}
	}

	return b.String()
}

type problemExample struct {
	Input       string
	Output      string
	Explanation string
}

// parseExamples reads the problem's raw examples document. Both the wrapped
// form {"examples": [...]} and a bare array are accepted.
func parseExamples(raw string) []problemExample {
	if raw == "" {
		return nil
	}

	var wrapped struct {
		Examples []map[string]json.RawMessage `json:"examples"`
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Examples) > 0 {
		entries = wrapped.Examples
	} else if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}

	examples := make([]problemExample, 0, len(entries))
	for _, entry := range entries {
		examples = append(examples, problemExample{
			Input:       rawToText(entry["input"]),
			Output:      rawToText(entry["output"]),
			Explanation: rawToText(entry["explanation"]),
		})
	}
	return examples
}

// rawToText renders a JSON value as display text, unquoting plain strings.
func rawToText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
