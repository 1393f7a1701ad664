package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

type chatModelResponse struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// ListChatModels returns the models offered to clients. The first one is the
// default.
func (s *APIV1Service) ListChatModels(c echo.Context) error {
	if s.ChatService == nil {
		return errorResponse(c, apperrors.LLMUnavailable("chat assistant is not configured"))
	}

	models := s.Profile.ChatModels()
	response := make([]*chatModelResponse, 0, len(models))
	for i, model := range models {
		response = append(response, &chatModelResponse{Name: model, IsDefault: i == 0})
	}
	return c.JSON(http.StatusOK, response)
}

type chatSessionResponse struct {
	ID        string  `json:"id"`
	ProblemID string  `json:"problem_id"`
	Title     *string `json:"title"`
	Mode      string  `json:"mode"`
	Model     *string `json:"model"`
	IsActive  bool    `json:"is_active"`
	CreatedTs int64   `json:"created_ts"`
	UpdatedTs int64   `json:"updated_ts"`
}

func toChatSessionResponse(session *store.ChatSession) *chatSessionResponse {
	return &chatSessionResponse{
		ID:        session.ID,
		ProblemID: session.ProblemID,
		Title:     session.Title,
		Mode:      string(session.Mode),
		Model:     session.Model,
		IsActive:  session.IsActive,
		CreatedTs: session.CreatedTs,
		UpdatedTs: session.UpdatedTs,
	}
}

type chatMessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

type createChatSessionRequest struct {
	ProblemSlug string `json:"problem_slug"`
	Mode        string `json:"mode"`
	Model       string `json:"model"`
}

// CreateChatSession starts a new conversation for a problem.
func (s *APIV1Service) CreateChatSession(c echo.Context) error {
	if s.ChatService == nil {
		return errorResponse(c, apperrors.LLMUnavailable("chat assistant is not configured"))
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req createChatSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed session request"))
	}
	if req.Mode == "" {
		req.Mode = string(store.ChatModeSocratic)
	}

	session, err := s.ChatService.CreateSession(ctx, userID, req.ProblemSlug, store.ChatMode(req.Mode), req.Model)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toChatSessionResponse(session))
}

// ListChatSessions lists the caller's active sessions for a problem slug.
func (s *APIV1Service) ListChatSessions(c echo.Context) error {
	if s.ChatService == nil {
		return errorResponse(c, apperrors.LLMUnavailable("chat assistant is not configured"))
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	sessions, err := s.ChatService.ListSessionsForProblem(ctx, userID, c.Param("slug"))
	if err != nil {
		return errorResponse(c, err)
	}
	response := make([]*chatSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, toChatSessionResponse(session))
	}
	return c.JSON(http.StatusOK, response)
}

type chatSessionDetailResponse struct {
	chatSessionResponse
	Messages []*chatMessageResponse `json:"messages"`
}

// GetChatSession returns a session and its messages.
func (s *APIV1Service) GetChatSession(c echo.Context) error {
	if s.ChatService == nil {
		return errorResponse(c, apperrors.LLMUnavailable("chat assistant is not configured"))
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	detail, err := s.ChatService.GetSession(ctx, userID, c.Param("sessionID"))
	if err != nil {
		return errorResponse(c, err)
	}

	messages := make([]*chatMessageResponse, 0, len(detail.Messages))
	for _, msg := range detail.Messages {
		messages = append(messages, &chatMessageResponse{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedTs: msg.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, &chatSessionDetailResponse{
		chatSessionResponse: *toChatSessionResponse(detail.Session),
		Messages:            messages,
	})
}

type updateChatSessionRequest struct {
	Title *string `json:"title"`
	Mode  *string `json:"mode"`
	Model *string `json:"model"`
}

// UpdateChatSession renames a session or switches its mode or model.
func (s *APIV1Service) UpdateChatSession(c echo.Context) error {
	if s.ChatService == nil {
		return errorResponse(c, apperrors.LLMUnavailable("chat assistant is not configured"))
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req updateChatSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed update request"))
	}

	update := &store.UpdateChatSession{Title: req.Title, Model: req.Model}
	if req.Mode != nil {
		mode := store.ChatMode(*req.Mode)
		update.Mode = &mode
	}
	session, err := s.ChatService.UpdateSession(ctx, userID, c.Param("sessionID"), update)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toChatSessionResponse(session))
}

// DeleteChatSession soft-deletes a session.
func (s *APIV1Service) DeleteChatSession(c echo.Context) error {
	if s.ChatService == nil {
		return errorResponse(c, apperrors.LLMUnavailable("chat assistant is not configured"))
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	if err := s.ChatService.DeleteSession(ctx, userID, c.Param("sessionID")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type chatMessageRequest struct {
	Message     string `json:"message"`
	CurrentCode string `json:"current_code"`
}

type chatStreamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// StreamChatMessage streams the assistant's reply over SSE. Each delta is a
// `data:` event with type "delta"; the stream ends with a "done" event
// carrying the stored message ID, or an "error" event.
func (s *APIV1Service) StreamChatMessage(c echo.Context) error {
	if s.ChatService == nil {
		return errorResponse(c, apperrors.LLMUnavailable("chat assistant is not configured"))
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req chatMessageRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed message request"))
	}
	if req.Message == "" {
		return errorResponse(c, apperrors.InvalidArgument("message must not be empty"))
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)

	writeEvent := func(event *chatStreamEvent) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
			return err
		}
		resp.Flush()
		return nil
	}

	reply, err := s.ChatService.StreamReply(ctx, userID, c.Param("sessionID"), req.Message, req.CurrentCode, func(delta string) error {
		return writeEvent(&chatStreamEvent{Type: "delta", Content: delta})
	})
	if err != nil {
		// Headers are already sent, so report the failure in-stream.
		return writeEvent(&chatStreamEvent{Type: "error", Message: err.Error()})
	}
	return writeEvent(&chatStreamEvent{Type: "done", ID: reply.ID})
}
