// Package v1 exposes the REST API surface.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/acodeaday/acodeaday/internal/profile"
	"github.com/acodeaday/acodeaday/plugin/judge0"
	"github.com/acodeaday/acodeaday/plugin/llm"
	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/server/middleware"
	"github.com/acodeaday/acodeaday/server/service/chat"
	"github.com/acodeaday/acodeaday/server/service/execution"
	"github.com/acodeaday/acodeaday/server/service/review"
	"github.com/acodeaday/acodeaday/store"
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	ReviewService    *review.Service
	ExecutionService *execution.Service
	// ChatService is nil when the assistant is not configured; chat routes
	// then answer 503.
	ChatService *chat.Service

	// executionLimiter throttles judge-backed endpoints per user.
	executionLimiter *middleware.RateLimiter
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store) *APIV1Service {
	reviewService := review.NewService(store)

	judgeConfig := judge0.ConfigFromEnv()
	if profile.Judge0URL != "" {
		judgeConfig.BaseURL = profile.Judge0URL
	}
	judgeClient := judge0.NewClient(judgeConfig)
	executionService := execution.NewService(store, judgeClient, reviewService)

	service := &APIV1Service{
		Secret:           secret,
		Profile:          profile,
		Store:            store,
		ReviewService:    reviewService,
		ExecutionService: executionService,
		executionLimiter: middleware.NewRateLimiter(2*time.Second, 5),
	}

	if profile.IsAIEnabled() {
		llmConfig := llm.ConfigFromEnv()
		if profile.AIBaseURL != "" {
			llmConfig.BaseURL = profile.AIBaseURL
		}
		llmConfig.APIKey = profile.AIAPIKey
		if profile.AIChatModel != "" {
			llmConfig.ChatModel = profile.AIChatModel
		}
		provider, err := llm.NewProvider(llmConfig)
		if err != nil {
			slog.Warn("chat assistant disabled", "error", err)
		} else {
			service.ChatService = chat.NewService(store, provider)
		}
	}

	return service
}

// Register mounts all API routes on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.POST("/api/auth/login", s.Login)

	api := e.Group("/api", s.AuthMiddleware)

	api.GET("/problems", s.ListProblems)
	api.GET("/problems/:slug", s.GetProblem)
	api.POST("/problems/:problemID/rate", s.RateProblem)

	api.POST("/execution/run", s.RunCode)
	api.POST("/execution/submit", s.SubmitCode)
	api.GET("/submissions/:problemID", s.ListSubmissions)

	api.POST("/code/save", s.SaveCode)
	api.POST("/code/reset", s.ResetCode)

	api.GET("/today", s.GetToday)
	api.GET("/progress", s.GetProgress)
	api.GET("/mastered", s.GetMastered)
	api.POST("/mastered/:problemID/show-again", s.ShowAgain)

	api.GET("/chat/models", s.ListChatModels)
	api.POST("/chat/sessions", s.CreateChatSession)
	api.GET("/chat/sessions/:slug", s.ListChatSessions)
	api.GET("/chat/session/:sessionID", s.GetChatSession)
	api.PATCH("/chat/session/:sessionID", s.UpdateChatSession)
	api.DELETE("/chat/session/:sessionID", s.DeleteChatSession)
	api.POST("/chat/session/:sessionID/message", s.StreamChatMessage)
}

// timeNow is injectable so date-sensitive handlers are testable.
var timeNow = time.Now

// errorResponse translates a domain error into an HTTP response.
func errorResponse(c echo.Context, err error) error {
	code := apperrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeInvalidArgument, apperrors.ErrCodeInvalidRating, apperrors.ErrCodeNotMastered:
		status = http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	case apperrors.ErrCodeJudgeUnavailable, apperrors.ErrCodeLLMUnavailable:
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]string{
		"code":    string(code),
		"message": err.Error(),
	})
}
