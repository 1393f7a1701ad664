package store

import (
	"context"
)

// ChatSession is an assistant conversation scoped to one problem.
type ChatSession struct {
	ID        string
	UserID    string
	ProblemID string
	Title     *string
	Mode      ChatMode
	Model     *string
	IsActive  bool
	CreatedTs int64
	UpdatedTs int64
}

// ChatMessage is a message within a chat session.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      MessageRole
	Content   string
	// CodeSnapshot is the user's editor content at send time, if provided.
	CodeSnapshot *string
	CreatedTs    int64
}

// FindChatSession is the find condition for chat sessions.
// Results are ordered by updated_ts descending.
type FindChatSession struct {
	ID        *string
	UserID    *string
	ProblemID *string
	IsActive  *bool
}

// UpdateChatSession is the update request for a chat session.
type UpdateChatSession struct {
	ID        string
	Title     *string
	Mode      *ChatMode
	Model     *string
	IsActive  *bool
	UpdatedTs *int64
}

// DeleteChatSession is the delete request for a chat session.
// Messages are removed by cascade.
type DeleteChatSession struct {
	ID string
}

// FindChatMessage is the find condition for chat messages.
// Results are ordered by created_ts ascending.
type FindChatMessage struct {
	SessionID *string
	Limit     *int
}

func (s *Store) CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error) {
	return s.driver.CreateChatSession(ctx, create)
}

func (s *Store) ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error) {
	return s.driver.ListChatSessions(ctx, find)
}

// GetChatSession gets a chat session by find condition, or nil when absent.
func (s *Store) GetChatSession(ctx context.Context, find *FindChatSession) (*ChatSession, error) {
	list, err := s.driver.ListChatSessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateChatSession(ctx context.Context, update *UpdateChatSession) error {
	return s.driver.UpdateChatSession(ctx, update)
}

func (s *Store) DeleteChatSession(ctx context.Context, delete *DeleteChatSession) error {
	return s.driver.DeleteChatSession(ctx, delete)
}

func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}
