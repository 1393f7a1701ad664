package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodeaday/acodeaday/plugin/llm"
	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

type mockChatStore struct {
	problems       []*store.Problem
	sessions       []*store.ChatSession
	messages       []*store.ChatMessage
	lastSubmission *store.Submission
}

func (m *mockChatStore) GetProblem(_ context.Context, find *store.FindProblem) (*store.Problem, error) {
	for _, p := range m.problems {
		if find.ID != nil && p.ID != *find.ID {
			continue
		}
		if find.Slug != nil && p.Slug != *find.Slug {
			continue
		}
		return p, nil
	}
	return nil, nil
}

func (m *mockChatStore) GetLastSubmission(context.Context, *store.FindSubmission) (*store.Submission, error) {
	return m.lastSubmission, nil
}

func (m *mockChatStore) CreateChatSession(_ context.Context, create *store.ChatSession) (*store.ChatSession, error) {
	m.sessions = append(m.sessions, create)
	return create, nil
}

func (m *mockChatStore) ListChatSessions(_ context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	result := make([]*store.ChatSession, 0)
	for _, s := range m.sessions {
		if find.ID != nil && s.ID != *find.ID {
			continue
		}
		if find.UserID != nil && s.UserID != *find.UserID {
			continue
		}
		if find.ProblemID != nil && s.ProblemID != *find.ProblemID {
			continue
		}
		if find.IsActive != nil && s.IsActive != *find.IsActive {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockChatStore) GetChatSession(ctx context.Context, find *store.FindChatSession) (*store.ChatSession, error) {
	list, err := m.ListChatSessions(ctx, find)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (m *mockChatStore) UpdateChatSession(_ context.Context, update *store.UpdateChatSession) error {
	for _, s := range m.sessions {
		if s.ID != update.ID {
			continue
		}
		if update.Title != nil {
			s.Title = update.Title
		}
		if update.Mode != nil {
			s.Mode = *update.Mode
		}
		if update.Model != nil {
			s.Model = update.Model
		}
		if update.IsActive != nil {
			s.IsActive = *update.IsActive
		}
	}
	return nil
}

func (m *mockChatStore) CreateChatMessage(_ context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	m.messages = append(m.messages, create)
	return create, nil
}

func (m *mockChatStore) ListChatMessages(_ context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	result := make([]*store.ChatMessage, 0)
	for _, msg := range m.messages {
		if find.SessionID != nil && msg.SessionID != *find.SessionID {
			continue
		}
		result = append(result, msg)
	}
	return result, nil
}

type fakeProvider struct {
	reply      string
	title      string
	streamErr  error
	titleCalls int
	messages   []llm.Message
}

func (f *fakeProvider) DefaultModel() string { return "gpt-4o-mini" }

func (f *fakeProvider) ChatStream(_ context.Context, _ string, messages []llm.Message, onDelta func(string) error) (string, error) {
	if f.streamErr != nil {
		return "", f.streamErr
	}
	f.messages = messages
	if onDelta != nil {
		for _, part := range strings.SplitAfter(f.reply, " ") {
			if err := onDelta(part); err != nil {
				return "", err
			}
		}
	}
	return f.reply, nil
}

func (f *fakeProvider) GenerateTitle(context.Context, string) (string, error) {
	f.titleCalls++
	return f.title, nil
}

func newChatFixture() *mockChatStore {
	return &mockChatStore{
		problems: []*store.Problem{{
			ID: "p1", Title: "Two Sum", Slug: "two-sum",
			Description: "Find two numbers that add to target.",
			Constraints: []string{"2 <= nums.length <= 10^4"},
			Examples:    `{"examples": [{"input": "nums = [2,7], target = 9", "output": "[0,1]"}]}`,
		}},
	}
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects invalid modes", func(t *testing.T) {
		svc := NewService(newChatFixture(), &fakeProvider{})

		_, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatMode("tutor"), "")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))
	})

	t.Run("rejects unknown problems", func(t *testing.T) {
		svc := NewService(newChatFixture(), &fakeProvider{})

		_, err := svc.CreateSession(ctx, "user-1", "missing", store.ChatModeSocratic, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("numbers default titles per problem and fills the default model", func(t *testing.T) {
		mock := newChatFixture()
		svc := NewService(mock, &fakeProvider{})

		first, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeSocratic, "")
		require.NoError(t, err)
		assert.Equal(t, "Chat 1", *first.Title)
		assert.Equal(t, "gpt-4o-mini", *first.Model)
		assert.True(t, first.IsActive)

		second, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeDirect, "gpt-4o")
		require.NoError(t, err)
		assert.Equal(t, "Chat 2", *second.Title)
		assert.Equal(t, "gpt-4o", *second.Model)
	})
}

func TestGetSessionScopedToUser(t *testing.T) {
	ctx := context.Background()
	mock := newChatFixture()
	svc := NewService(mock, &fakeProvider{})

	session, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeSocratic, "")
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, "someone-else", session.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	loaded, err := svc.GetSession(ctx, "user-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.Session.ID)
	assert.Empty(t, loaded.Messages)
}

func TestDeleteSessionDeactivates(t *testing.T) {
	ctx := context.Background()
	mock := newChatFixture()
	svc := NewService(mock, &fakeProvider{})

	session, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeSocratic, "")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSession(ctx, "user-1", session.ID))

	assert.False(t, mock.sessions[0].IsActive)

	sessions, err := svc.ListSessionsForProblem(ctx, "user-1", "two-sum")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStreamReply(t *testing.T) {
	ctx := context.Background()

	t.Run("persists both sides and auto-titles the first exchange", func(t *testing.T) {
		mock := newChatFixture()
		provider := &fakeProvider{reply: "What happens with duplicates?", title: "Two Sum Duplicates"}
		svc := NewService(mock, provider)

		session, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeSocratic, "")
		require.NoError(t, err)

		var streamed strings.Builder
		reply, err := svc.StreamReply(ctx, "user-1", session.ID, "I am stuck on **duplicates**", "def solve(): pass", func(delta string) error {
			streamed.WriteString(delta)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "What happens with duplicates?", reply.Content)
		assert.Equal(t, "What happens with duplicates?", streamed.String())

		require.Len(t, mock.messages, 2)
		assert.Equal(t, store.RoleUser, mock.messages[0].Role)
		require.NotNil(t, mock.messages[0].CodeSnapshot)
		assert.Equal(t, store.RoleAssistant, mock.messages[1].Role)

		assert.Equal(t, 1, provider.titleCalls)
		assert.Equal(t, "Two Sum Duplicates", *mock.sessions[0].Title)

		// First message of the conversation carries the socratic system prompt
		// and the problem context.
		require.NotEmpty(t, provider.messages)
		assert.Equal(t, string(store.RoleSystem), provider.messages[0].Role)
		assert.Contains(t, provider.messages[0].Content, "Socratic tutor")
		assert.Contains(t, provider.messages[1].Content, "## Problem: Two Sum")
		assert.Contains(t, provider.messages[1].Content, "nums = [2,7], target = 9")
	})

	t.Run("later exchanges keep history and merge context into the question", func(t *testing.T) {
		mock := newChatFixture()
		provider := &fakeProvider{reply: "Consider a hash map."}
		svc := NewService(mock, provider)

		session, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeSocratic, "")
		require.NoError(t, err)

		_, err = svc.StreamReply(ctx, "user-1", session.ID, "first question", "", nil)
		require.NoError(t, err)
		_, err = svc.StreamReply(ctx, "user-1", session.ID, "second question", "", nil)
		require.NoError(t, err)

		// No title regeneration after the first exchange.
		assert.Equal(t, 1, provider.titleCalls)

		last := provider.messages[len(provider.messages)-1]
		assert.Contains(t, last.Content, "## Problem: Two Sum")
		assert.Contains(t, last.Content, "second question")
	})

	t.Run("failed submissions feed the context", func(t *testing.T) {
		mock := newChatFixture()
		failedTest := int32(2)
		expected := `[0, 1]`
		got := `[1, 1]`
		mock.lastSubmission = &store.Submission{
			Passed:           false,
			FailedTestNumber: &failedTest,
			FailedExpected:   &expected,
			FailedOutput:     &got,
		}
		provider := &fakeProvider{reply: "Look at test two."}
		svc := NewService(mock, provider)

		session, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeDirect, "")
		require.NoError(t, err)
		_, err = svc.StreamReply(ctx, "user-1", session.ID, "why does it fail?", "", nil)
		require.NoError(t, err)

		contextMsg := provider.messages[1].Content
		assert.Contains(t, contextMsg, "Failed on test case 2")
		assert.Contains(t, contextMsg, "[0, 1]")
	})

	t.Run("provider outage maps to an llm unavailable error", func(t *testing.T) {
		mock := newChatFixture()
		svc := NewService(mock, &fakeProvider{streamErr: assert.AnError})

		session, err := svc.CreateSession(ctx, "user-1", "two-sum", store.ChatModeSocratic, "")
		require.NoError(t, err)

		_, err = svc.StreamReply(ctx, "user-1", session.ID, "hello", "", nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeLLMUnavailable))
	})
}

func TestParseExamples(t *testing.T) {
	wrapped := parseExamples(`{"examples": [{"input": "a", "output": "b", "explanation": "c"}]}`)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "a", wrapped[0].Input)
	assert.Equal(t, "c", wrapped[0].Explanation)

	bare := parseExamples(`[{"input": [1, 2], "output": 3}]`)
	require.Len(t, bare, 1)
	assert.Equal(t, "[1, 2]", bare[0].Input)
	assert.Equal(t, "3", bare[0].Output)

	assert.Empty(t, parseExamples(""))
	assert.Empty(t, parseExamples("not json"))
}
