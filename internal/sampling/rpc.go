package sampling

import (
	"bytes"
	"context"
	"encoding/json"

	"samplegate/internal/core"
)

// HandleRPC decodes a JSON-RPC 2.0 sampling/createMessage request and
// dispatches it. Protocol failures are answered with the standard JSON-RPC
// codes; the returned response is never nil.
func (s *Service) HandleRPC(ctx context.Context, body []byte) *core.SamplingResponse {
	var rpc core.RPCRequest
	if err := json.Unmarshal(body, &rpc); err != nil {
		return core.NewErrorResponse(nil, core.CodeParseError, "Parse error: "+err.Error())
	}

	if rpc.JSONRPC != core.JSONRPCVersion || rpc.Method == "" {
		return core.NewErrorResponse(rpc.ID, core.CodeInvalidRequest, "Invalid Request: expected jsonrpc 2.0 with a method")
	}
	if rpc.Method != core.MethodSamplingCreateMessage {
		return core.NewErrorResponse(rpc.ID, core.CodeMethodNotFound, "Method not found: "+rpc.Method)
	}

	params := bytes.TrimSpace(rpc.Params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return core.NewErrorResponse(rpc.ID, core.CodeInvalidParams, "Invalid params: params are required")
	}

	var req core.SamplingRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return core.NewErrorResponse(rpc.ID, core.CodeInvalidParams, "Invalid params: "+err.Error())
	}

	return s.Handle(ctx, rpc.ID, &req)
}
