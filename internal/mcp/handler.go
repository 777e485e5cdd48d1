// Package mcp serves sampling/createMessage for in-process MCP clients built
// on github.com/viant/mcp-protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"samplegate/internal/core"
	"samplegate/internal/sampling"
)

// Handler answers MCP sampling requests through a sampling.Service.
type Handler struct {
	service *sampling.Service
}

// NewHandler creates a Handler.
func NewHandler(service *sampling.Service) *Handler {
	return &Handler{service: service}
}

// CreateMessage implements the client-side sampling operation of the
// mcp-protocol Operations interface.
func (h *Handler) CreateMessage(ctx context.Context, request *jsonrpc.TypedRequest[*schema.CreateMessageRequest]) (*schema.CreateMessageResult, *jsonrpc.Error) {
	if request == nil || request.Request == nil {
		return nil, jsonrpc.NewInvalidParamsError("params is nil", nil)
	}

	req, err := ToSamplingRequest(&request.Request.Params)
	if err != nil {
		return nil, jsonrpc.NewInvalidParamsError(err.Error(), nil)
	}

	result, err := h.service.CreateMessage(ctx, req)
	if err != nil {
		if se, ok := core.AsSamplingError(err); ok {
			return nil, &jsonrpc.Error{Code: se.Code, Message: se.Message}
		}
		return nil, jsonrpc.NewInternalError(err.Error(), nil)
	}

	out, err := FromSamplingResult(result)
	if err != nil {
		return nil, jsonrpc.NewInternalError(err.Error(), nil)
	}
	return out, nil
}

// ToSamplingRequest converts protocol params to the gateway request. Both
// types follow the MCP wire format, so the conversion goes through JSON.
func ToSamplingRequest(params *schema.CreateMessageRequestParams) (*core.SamplingRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is nil")
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sampling params: %w", err)
	}
	var req core.SamplingRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode sampling params: %w", err)
	}
	return &req, nil
}

// FromSamplingResult converts a gateway result to the protocol result.
func FromSamplingResult(result *core.SamplingResult) (*schema.CreateMessageResult, error) {
	if result == nil {
		return nil, fmt.Errorf("result is nil")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sampling result: %w", err)
	}
	var out schema.CreateMessageResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode sampling result: %w", err)
	}
	return &out, nil
}
