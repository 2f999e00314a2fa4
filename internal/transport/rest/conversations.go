package rest

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/service/retrieval"
)

type windowBody struct {
	Messages []core.Message `json:"messages"`
}

func (s *Server) getWindow(c echo.Context) error {
	msgs, err := s.memory.Load(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, windowBody{Messages: msgs})
}

func (s *Server) replaceWindow(c echo.Context) error {
	var body windowBody
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: malformed window: %w", core.ErrValidation, err)
	}
	if err := s.memory.Replace(c.Request().Context(), c.Param("id"), body.Messages); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type turnRequest struct {
	Message   core.Message `json:"message"`
	Extension string       `json:"extension,omitempty"`
}

type turnResponse struct {
	Message core.Message       `json:"message"`
	Outcome retrieval.Outcome  `json:"outcome"`
	Matches []core.SearchMatch `json:"matches,omitempty"`
	Window  []core.Message     `json:"window"`
}

// addTurn augments an incoming message with retrieved context and appends it
// to the conversation window.
func (s *Server) addTurn(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: malformed turn: %w", core.ErrValidation, err)
	}
	if req.Message.Role == "" {
		req.Message.Role = core.RoleUser
	}

	ctx := c.Request().Context()
	res := s.retriever.Augment(ctx, &req.Message, req.Extension)

	window, err := s.memory.Append(ctx, c.Param("id"), res.Message)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, turnResponse{
		Message: res.Message,
		Outcome: res.Outcome,
		Matches: res.Matches,
		Window:  window,
	})
}
