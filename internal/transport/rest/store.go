package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sandevgo/tuskmem/internal/core"
)

func (s *Server) mostRecent(c echo.Context) error {
	conv, ok, err := s.catalog.MostRecent(c.Request().Context())
	if err != nil {
		return err
	}
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) getMessages(c echo.Context) error {
	conv, err := s.catalog.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, core.ErrNotFound) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteMessages(c echo.Context) error {
	if err := s.catalog.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listChats(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}

	summaries, err := s.catalog.List(c.Request().Context(), c.QueryParam("filter"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

func (s *Server) listIDs(c echo.Context) error {
	ids, err := s.catalog.IDs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ids)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) rename(c echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: malformed rename request", core.ErrValidation)
	}
	if err := s.catalog.Rename(c.Request().Context(), c.Param("id"), req.Name); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrValidation, name)
	}
	return n, nil
}
