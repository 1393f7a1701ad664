package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/acodeaday/acodeaday/server/internal/errors"
	"github.com/acodeaday/acodeaday/store"
)

type codeRequest struct {
	ProblemSlug string `json:"problem_slug"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

type codeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *APIV1Service) findProblemBySlug(c echo.Context, slug string) (*store.Problem, error) {
	problem, err := s.Store.GetProblem(c.Request().Context(), &store.FindProblem{Slug: &slug})
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, apperrors.NotFound("problem not found: " + slug)
	}
	return problem, nil
}

// SaveCode upserts the caller's editor draft for a problem. The frontend
// calls this on debounced keystrokes, so it stays cheap.
func (s *APIV1Service) SaveCode(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req codeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed save request"))
	}
	if req.Language == "" {
		req.Language = string(store.Python)
	}
	if !store.Language(req.Language).IsValid() {
		return errorResponse(c, apperrors.InvalidArgument("unsupported language: "+req.Language))
	}

	problem, err := s.findProblemBySlug(c, req.ProblemSlug)
	if err != nil {
		return errorResponse(c, err)
	}

	if _, err := s.Store.UpsertUserCode(ctx, &store.UpsertUserCode{
		UserID:    userID,
		ProblemID: problem.ID,
		Language:  req.Language,
		Code:      req.Code,
	}); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &codeResponse{Success: true, Message: "Code saved"})
}

// ResetCode deletes the caller's draft so the problem falls back to starter code.
func (s *APIV1Service) ResetCode(c echo.Context) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	var req codeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, apperrors.InvalidArgument("malformed reset request"))
	}
	if req.Language == "" {
		req.Language = string(store.Python)
	}

	problem, err := s.findProblemBySlug(c, req.ProblemSlug)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := s.Store.DeleteUserCode(ctx, &store.DeleteUserCode{
		UserID:    userID,
		ProblemID: problem.ID,
		Language:  req.Language,
	}); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, &codeResponse{Success: true, Message: "Code reset to starter code"})
}
