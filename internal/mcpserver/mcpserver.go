// Package mcpserver exposes the graph over a JSON-RPC-over-stdio protocol,
// adapted from the teacher's internal/mcp (Handler/StdioTransport dispatch
// shape, tools.JSONRPCRequest/Response wire types) but with the tool set
// replaced: `forge.extract_subgraph` wraps internal/graphquery.ExtractSubgraph
// and `forge.list_context_gaps` wraps internal/gapanalysis.Analyze, in
// place of the teacher's risk-product `get_risk_summary`.
package mcpserver

import "context"

// Tool is one callable MCP tool.
type Tool interface {
	Execute(ctx context.Context, args map[string]any) (any, error)
	Schema() map[string]any
}

// JSONRPCRequest is a JSON-RPC 2.0 request, the wire shape tools/stdio
// communicate with.
type JSONRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler dispatches JSON-RPC requests to registered tools.
type Handler struct {
	tools map[string]Tool
}

func NewHandler() *Handler {
	return &Handler{tools: make(map[string]Tool)}
}

func (h *Handler) RegisterTool(name string, tool Tool) {
	h.tools[name] = tool
}

// Handle processes one JSON-RPC request and returns its response.
func (h *Handler) Handle(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "tools/list":
		return h.handleToolsList(req)
	case "tools/call":
		return h.handleToolCall(ctx, req)
	default:
		return errorResponse(req.ID, -32601, "method not found: "+req.Method)
	}
}

func (h *Handler) handleInitialize(req *JSONRPCRequest) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"protocolVersion": "1.0",
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]string{
				"name":    "forge-mcp-server",
				"version": "0.1.0",
			},
		},
	}
}

func (h *Handler) handleToolsList(req *JSONRPCRequest) *JSONRPCResponse {
	list := make([]map[string]any, 0, len(h.tools))
	for name, tool := range h.tools {
		list = append(list, map[string]any{
			"name":   name,
			"schema": tool.Schema(),
		})
	}
	return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": list}}
}

func (h *Handler) handleToolCall(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	name, ok := req.Params["name"].(string)
	if !ok {
		return errorResponse(req.ID, -32602, "invalid params: 'name' is required")
	}

	tool, ok := h.tools[name]
	if !ok {
		return errorResponse(req.ID, -32602, "tool not found: "+name)
	}

	args, ok := req.Params["arguments"].(map[string]any)
	if !ok {
		args = map[string]any{}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return errorResponse(req.ID, -32603, "tool execution error: "+err.Error())
	}
	return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(id any, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}
