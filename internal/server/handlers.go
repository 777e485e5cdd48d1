// Package server provides HTTP handlers and server setup for the sampling gateway.
package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"samplegate/internal/sampling"
)

// Handler holds the HTTP handlers
type Handler struct {
	service *sampling.Service
}

// NewHandler creates a new handler for the given sampling service
func NewHandler(service *sampling.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Sampling handles POST /v1/sampling. The body is a JSON-RPC 2.0 request;
// the reply is always HTTP 200 with a JSON-RPC response, errors included.
func (h *Handler) Sampling(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// BodyLimit reports oversized bodies through the reader
		return err
	}

	resp := h.service.HandleRPC(c.Request().Context(), body)
	return c.JSON(http.StatusOK, resp)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
