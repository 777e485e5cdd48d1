package core

import "encoding/json"

// JSONRPCVersion is the only protocol version accepted.
const JSONRPCVersion = "2.0"

// MethodSamplingCreateMessage is the MCP sampling method name.
const MethodSamplingCreateMessage = "sampling/createMessage"

// RPCRequest is an inbound JSON-RPC request.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SamplingResponse is the JSON-RPC envelope returned for sampling requests.
// Exactly one of Result and Error is set.
type SamplingResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *SamplingResult `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(id json.RawMessage, code int, message string) *SamplingResponse {
	return &SamplingResponse{
		JSONRPC: JSONRPCVersion,
		ID:      normalizeID(id),
		Error:   &RPCError{Code: code, Message: message},
	}
}

// NewResultResponse builds a success envelope.
func NewResultResponse(id json.RawMessage, result *SamplingResult) *SamplingResponse {
	return &SamplingResponse{
		JSONRPC: JSONRPCVersion,
		ID:      normalizeID(id),
		Result:  result,
	}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
