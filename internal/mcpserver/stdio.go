package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// StdioTransport reads one JSON-RPC request per line from in and writes one
// JSON-RPC response per line to out, grounded on the teacher's
// StdioTransport (bufio.Scanner over os.Stdin, fmt.Println per response).
type StdioTransport struct {
	scanner *bufio.Scanner
	out     io.Writer
	handler *Handler
}

func NewStdioTransport(in io.Reader, out io.Writer, handler *Handler) *StdioTransport {
	return &StdioTransport{
		scanner: bufio.NewScanner(in),
		out:     out,
		handler: handler,
	}
}

// Run blocks, serving requests until in is exhausted or ctx is cancelled.
func (t *StdioTransport) Run(ctx context.Context) error {
	for t.scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := t.scanner.Bytes()
		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			t.writeResponse(errorResponse(nil, -32700, "parse error"))
			continue
		}

		t.writeResponse(t.handler.Handle(ctx, &req))
	}
	return t.scanner.Err()
}

func (t *StdioTransport) writeResponse(resp *JSONRPCResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		fmt.Fprintf(t.out, `{"jsonrpc":"2.0","error":{"code":-32603,"message":%q}}`+"\n", err.Error())
		return
	}
	fmt.Fprintln(t.out, string(raw))
}
