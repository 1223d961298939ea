// Package mcp serves the research pipeline as tools over a stdio JSON-RPC loop,
// one request per line.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/researcher/models"
)

const (
	DefaultCallTimeout = 120 * time.Second
	maxLineBytes       = 4 << 20
	defaultSearchK     = 10
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeToolError      = -32000
)

type rpcReq struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResp struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolDesc describes a single tool, including its input schema.
type ToolDesc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Engine is the part of engine.Engine the tools call.
type Engine interface {
	Research(ctx context.Context, query string) (int64, error)
	Report(ctx context.Context, id int64) (models.Report, error)
	Find(ctx context.Context, q string, limit int) ([]models.ReportSummary, error)
}

type Server struct {
	Engine      Engine
	CallTimeout time.Duration
	Logger      *log.Logger
	tools       []ToolDesc
}

func NewServer(eng Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{Engine: eng, CallTimeout: DefaultCallTimeout, Logger: logger, tools: toolList()}
}

func toolList() []ToolDesc {
	return []ToolDesc{
		{
			Name:        "research.run",
			Description: "Search the web for a query, summarize the top sources and store a report.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []string{"query"},
			},
		},
		{
			Name:        "reports.get",
			Description: "Fetch a stored report by id.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"id": map[string]any{"type": "integer", "minimum": 1}},
				"required":   []string{"id"},
			},
		},
		{
			Name:        "reports.search",
			Description: "List stored reports, newest first, optionally filtered by text.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"q": map[string]any{"type": "string"},
					"k": map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
				},
			},
		},
	}
}

// Tools returns the advertised tool list.
func (s *Server) Tools() []ToolDesc { return s.tools }

func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "research.run":
		return s.tResearch(ctx, args)
	case "reports.get":
		return s.tGetReport(ctx, args)
	case "reports.search":
		return s.tSearchReports(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) tResearch(ctx context.Context, args map[string]any) (any, error) {
	q := strings.TrimSpace(str(args["query"]))
	if q == "" {
		return nil, errors.New("query is required")
	}
	id, err := s.Engine.Research(ctx, q)
	if err != nil {
		return nil, err
	}
	r, err := s.Engine.Report(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"id": r.ID, "title": r.Title, "status": r.Status, "url": fmt.Sprintf("/report/%d", r.ID)}, nil
}

func (s *Server) tGetReport(ctx context.Context, args map[string]any) (any, error) {
	id := asInt(args["id"])
	if id < 1 {
		return nil, errors.New("id is required")
	}
	return s.Engine.Report(ctx, int64(id))
}

func (s *Server) tSearchReports(ctx context.Context, args map[string]any) (any, error) {
	k := asInt(args["k"])
	if k < 1 || k > 100 {
		k = defaultSearchK
	}
	reports, err := s.Engine.Find(ctx, str(args["q"]), k)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.ReportSummary{}
	}
	return map[string]any{"reports": reports}, nil
}

// Serve answers requests read from in until EOF or ctx is cancelled.
// A malformed line gets a parse error response and the loop continues.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	enc := json.NewEncoder(out)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var req rpcReq
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			if werr := enc.Encode(errorResp(nil, codeParseError, "parse error: "+err.Error())); werr != nil {
				return werr
			}
			continue
		}
		if err := enc.Encode(s.handle(ctx, req)); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (s *Server) handle(ctx context.Context, req rpcReq) rpcResp {
	switch req.Method {
	case "tools/list":
		return rpcResp{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": s.tools}}
	case "tools/call":
		var p callParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return errorResp(req.ID, codeParseError, "bad params: "+err.Error())
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, s.timeout())
		defer cancel()
		start := time.Now()
		res, err := s.callTool(callCtx, p.Name, p.Arguments)
		s.Logger.Printf("tool %s took %s err=%v", p.Name, time.Since(start).Round(time.Millisecond), err)
		if err != nil {
			return errorResp(req.ID, codeToolError, err.Error())
		}
		return rpcResp{JSONRPC: "2.0", ID: req.ID, Result: res}
	default:
		return errorResp(req.ID, codeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *Server) timeout() time.Duration {
	if s.CallTimeout <= 0 {
		return DefaultCallTimeout
	}
	return s.CallTimeout
}

func errorResp(id any, code int, msg string) rpcResp {
	return rpcResp{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}

func str(v any) string { s, _ := v.(string); return s }

func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	default:
		return 0
	}
}
