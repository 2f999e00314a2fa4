package rest

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sandevgo/tuskmem/internal/core"
)

const maxSearchResults = 50

type searchRequest struct {
	QueryMessage string `json:"queryMessage"`
	MaxResults   *int   `json:"maxResults,omitempty"`
	Extension    string `json:"extension,omitempty"`
}

type searchResponse struct {
	Matches []core.SearchMatch `json:"matches"`
}

func (s *Server) search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: malformed search request", core.ErrValidation)
	}

	k := s.opts.DefaultResults
	if req.MaxResults != nil {
		k = *req.MaxResults
	}
	if k <= 0 || k > maxSearchResults {
		return fmt.Errorf("%w: maxResults must be between 1 and %d", core.ErrValidation, maxSearchResults)
	}

	matches, err := s.retriever.Search(c.Request().Context(), req.QueryMessage, k, req.Extension)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchResponse{Matches: matches})
}
