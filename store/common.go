package store

import "time"

// Difficulty is the difficulty level of a problem.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func (d Difficulty) String() string {
	return string(d)
}

// IsValid returns true if the difficulty is a recognized value.
func (d Difficulty) IsValid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// Language is a supported programming language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
)

// IsValid returns true if the language is a recognized value.
func (l Language) IsValid() bool {
	switch l {
	case Python, JavaScript:
		return true
	}
	return false
}

// ChatMode is the chat assistant mode.
type ChatMode string

const (
	ChatModeSocratic ChatMode = "socratic"
	ChatModeDirect   ChatMode = "direct"
)

// IsValid returns true if the chat mode is a recognized value.
func (m ChatMode) IsValid() bool {
	return m == ChatModeSocratic || m == ChatModeDirect
}

// MessageRole is the role of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// DateLayout is the calendar date format used for review dates.
// Dates are UTC calendar dates; the lexicographic order of this layout
// matches chronological order, which the drivers rely on for comparisons.
const DateLayout = "2006-01-02"

// FormatDate formats a time as a UTC calendar date string.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
