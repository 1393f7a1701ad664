// Package chat manages assistant conversations: session lifecycle, message
// persistence, problem-aware prompt assembly, and streamed responses.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/acodeaday/acodeaday/plugin/llm"
	"github.com/acodeaday/acodeaday/plugin/markdown"
	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

// historyLimit bounds how many prior messages travel to the LLM.
const historyLimit = 20

// Provider generates chat completions.
type Provider interface {
	DefaultModel() string
	ChatStream(ctx context.Context, model string, messages []llm.Message, onDelta func(delta string) error) (string, error)
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}

// Store is the interface for store operations needed by the chat service.
type Store interface {
	GetProblem(ctx context.Context, find *store.FindProblem) (*store.Problem, error)
	GetLastSubmission(ctx context.Context, find *store.FindSubmission) (*store.Submission, error)
	CreateChatSession(ctx context.Context, create *store.ChatSession) (*store.ChatSession, error)
	ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error)
	GetChatSession(ctx context.Context, find *store.FindChatSession) (*store.ChatSession, error)
	UpdateChatSession(ctx context.Context, update *store.UpdateChatSession) error
	CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error)
	ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error)
}

// Service owns chat sessions and their conversations.
type Service struct {
	store    Store
	provider Provider
}

// NewService creates a new chat service.
func NewService(store Store, provider Provider) *Service {
	return &Service{
		store:    store,
		provider: provider,
	}
}

// SessionWithMessages pairs a session with its ordered messages.
type SessionWithMessages struct {
	Session  *store.ChatSession
	Messages []*store.ChatMessage
}

// CreateSession starts a new conversation for a problem.
func (s *Service) CreateSession(ctx context.Context, userID, problemSlug string, mode store.ChatMode, model string) (*store.ChatSession, error) {
	if !mode.IsValid() {
		return nil, apperrors.InvalidArgument("invalid chat mode: " + string(mode))
	}

	problem, err := s.store.GetProblem(ctx, &store.FindProblem{Slug: &problemSlug})
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, apperrors.NotFound("problem not found: " + problemSlug)
	}

	existing, err := s.store.ListChatSessions(ctx, &store.FindChatSession{UserID: &userID, ProblemID: &problem.ID})
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Chat %d", len(existing)+1)

	if model == "" {
		model = s.provider.DefaultModel()
	}
	session := &store.ChatSession{
		ID:        shortuuid.New(),
		UserID:    userID,
		ProblemID: problem.ID,
		Title:     &title,
		Mode:      mode,
		Model:     &model,
		IsActive:  true,
	}
	session, err = s.store.CreateChatSession(ctx, session)
	if err != nil {
		return nil, err
	}

	slog.Info("chat session created", "session_id", session.ID, "mode", mode, "model", model)
	return session, nil
}

// GetSession loads a session and its messages. Sessions are private to their
// creator, so a mismatched user behaves like a missing session.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*SessionWithMessages, error) {
	session, err := s.store.GetChatSession(ctx, &store.FindChatSession{ID: &sessionID, UserID: &userID})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NotFound("chat session not found")
	}

	messages, err := s.store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: &session.ID})
	if err != nil {
		return nil, err
	}
	return &SessionWithMessages{Session: session, Messages: messages}, nil
}

// ListSessionsForProblem returns the user's active sessions for a problem,
// most recently updated first.
func (s *Service) ListSessionsForProblem(ctx context.Context, userID, problemSlug string) ([]*store.ChatSession, error) {
	problem, err := s.store.GetProblem(ctx, &store.FindProblem{Slug: &problemSlug})
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return []*store.ChatSession{}, nil
	}

	active := true
	return s.store.ListChatSessions(ctx, &store.FindChatSession{
		UserID:    &userID,
		ProblemID: &problem.ID,
		IsActive:  &active,
	})
}

// UpdateSession changes a session's title, mode, or model.
func (s *Service) UpdateSession(ctx context.Context, userID, sessionID string, update *store.UpdateChatSession) (*store.ChatSession, error) {
	session, err := s.store.GetChatSession(ctx, &store.FindChatSession{ID: &sessionID, UserID: &userID})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NotFound("chat session not found")
	}
	if update.Mode != nil && !update.Mode.IsValid() {
		return nil, apperrors.InvalidArgument("invalid chat mode: " + string(*update.Mode))
	}

	update.ID = session.ID
	if err := s.store.UpdateChatSession(ctx, update); err != nil {
		return nil, err
	}
	return s.store.GetChatSession(ctx, &store.FindChatSession{ID: &sessionID})
}

// DeleteSession deactivates a session. History stays in place; the session
// just disappears from listings.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.store.GetChatSession(ctx, &store.FindChatSession{ID: &sessionID, UserID: &userID})
	if err != nil {
		return err
	}
	if session == nil {
		return apperrors.NotFound("chat session not found")
	}

	inactive := false
	return s.store.UpdateChatSession(ctx, &store.UpdateChatSession{ID: session.ID, IsActive: &inactive})
}

// StreamReply persists the user's message, streams the assistant's reply via
// onDelta, persists the full reply, and auto-titles the session on the first
// exchange. It returns the stored assistant message.
func (s *Service) StreamReply(ctx context.Context, userID, sessionID, userMessage, currentCode string, onDelta func(delta string) error) (*store.ChatMessage, error) {
	session, err := s.store.GetChatSession(ctx, &store.FindChatSession{ID: &sessionID, UserID: &userID})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NotFound("chat session not found")
	}

	problem, err := s.store.GetProblem(ctx, &store.FindProblem{ID: &session.ProblemID})
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, apperrors.NotFound("problem not found for chat session")
	}

	history, err := s.store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: &session.ID})
	if err != nil {
		return nil, err
	}

	userMsg := &store.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      store.RoleUser,
		Content:   userMessage,
	}
	if currentCode != "" {
		userMsg.CodeSnapshot = &currentCode
	}
	if _, err := s.store.CreateChatMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	lastSubmission, err := s.store.GetLastSubmission(ctx, &store.FindSubmission{UserID: &userID, ProblemID: &problem.ID})
	if err != nil {
		return nil, err
	}

	messages := s.buildMessages(session, problem, history, userMessage, currentCode, lastSubmission)

	model := ""
	if session.Model != nil {
		model = *session.Model
	}
	reply, err := s.provider.ChatStream(ctx, model, messages, onDelta)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeLLMUnavailable, "chat completion failed")
	}

	assistantMsg := &store.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      store.RoleAssistant,
		Content:   reply,
	}
	if _, err := s.store.CreateChatMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	if err := s.store.UpdateChatSession(ctx, &store.UpdateChatSession{ID: session.ID}); err != nil {
		slog.Warn("failed to bump chat session", "session_id", session.ID, "error", err)
	}

	if len(history) == 0 {
		s.generateTitle(ctx, session.ID, userMessage)
	}
	return assistantMsg, nil
}

// buildMessages assembles the system prompt, recent history, and the
// context-wrapped user message.
func (s *Service) buildMessages(session *store.ChatSession, problem *store.Problem, history []*store.ChatMessage, userMessage, currentCode string, lastSubmission *store.Submission) []llm.Message {
	contextMsg := buildContextMessage(problem, currentCode, lastSubmission)

	messages := []llm.Message{{Role: string(store.RoleSystem), Content: systemPrompt(session.Mode)}}

	if len(history) == 0 {
		messages = append(messages,
			llm.Message{Role: string(store.RoleUser), Content: contextMsg},
			llm.Message{Role: string(store.RoleUser), Content: userMessage},
		)
		return messages
	}

	start := 0
	if len(history) > historyLimit {
		start = len(history) - historyLimit
	}
	for _, msg := range history[start:] {
		if msg.Role == store.RoleSystem {
			continue
		}
		messages = append(messages, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, llm.Message{
		Role:    string(store.RoleUser),
		Content: contextMsg + "\n\n---\n\n" + userMessage,
	})
	return messages
}

// generateTitle replaces the placeholder title after the first exchange.
// Failures keep the placeholder; the conversation is unaffected.
func (s *Service) generateTitle(ctx context.Context, sessionID, firstMessage string) {
	title, err := s.provider.GenerateTitle(ctx, markdown.Strip(firstMessage))
	if err != nil || title == "" {
		slog.Warn("title generation failed", "session_id", sessionID, "error", err)
		return
	}
	if err := s.store.UpdateChatSession(ctx, &store.UpdateChatSession{ID: sessionID, Title: &title}); err != nil {
		slog.Warn("failed to save generated title", "session_id", sessionID, "error", err)
	}
}
