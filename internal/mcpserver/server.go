// Package mcpserver exposes sample files to Model Context Protocol clients.
// Every tool call opens its own snapshot, so calls never share a cursor.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bft-labs/npss/internal/report"
	"github.com/bft-labs/npss/pkg/log"
	"github.com/bft-labs/npss/pkg/npss"
)

const defaultTop = 20

// Server holds what the tool handlers need.
type Server struct {
	logger log.Logger
	opts   []npss.Option
}

// New creates a Server. opts are passed to every npss.Open.
func New(logger log.Logger, opts ...npss.Option) *Server {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Server{logger: logger, opts: opts}
}

// MCPServer builds an MCP server with every tool registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("npss", version, server.WithLogging())

	srv.AddTool(mcp.NewTool("npss_info",
		mcp.WithDescription("Summarize a sampled CPU snapshot file: size, sample count and time span"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to the .npss file")),
	), s.handleInfo)

	srv.AddTool(mcp.NewTool("npss_timeline",
		mcp.WithDescription("List every sample with its timestamp and the stack depth of runnable threads"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to the .npss file")),
	), s.handleTimeline)

	srv.AddTool(mcp.NewTool("npss_thread_dump",
		mcp.WithDescription("Render the thread dump of one sample, with lock annotations"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to the .npss file")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero based sample index")),
	), s.handleThreadDump)

	srv.AddTool(mcp.NewTool("npss_hotspots",
		mcp.WithDescription("Aggregate a range of samples and list the methods with the most CPU self time"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to the .npss file")),
		mcp.WithNumber("start", mcp.Description("First sample index (default: 0)")),
		mcp.WithNumber("end", mcp.Description("Last sample index, inclusive (default: last sample)")),
		mcp.WithNumber("top", mcp.Description(fmt.Sprintf("Number of methods to list (default: %d)", defaultTop))),
	), s.handleHotspots)

	return srv
}

// ServeStdio serves MCP over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.MCPServer(version))
}

// open opens the file named by the "file" argument.
func (s *Server) open(request mcp.CallToolRequest) (*npss.SampledCPUSnapshot, *mcp.CallToolResult) {
	file, err := request.RequireString("file")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	snap, err := npss.Open(file, s.opts...)
	if err != nil {
		s.logger.Warn("open sample file", log.String("file", file), log.Err(err))
		return nil, mcp.NewToolResultError(fmt.Sprintf("open %s: %v", file, err))
	}
	return snap, nil
}

func (s *Server) handleInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, failed := s.open(request)
	if failed != nil {
		return failed, nil
	}
	defer snap.Close()

	var buf bytes.Buffer
	if err := report.WriteInfo(&buf, snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleTimeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, failed := s.open(request)
	if failed != nil {
		return failed, nil
	}
	defer snap.Close()

	var buf bytes.Buffer
	if err := report.WriteTimeline(&buf, snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleThreadDump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := request.RequireFloat("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, failed := s.open(request)
	if failed != nil {
		return failed, nil
	}
	defer snap.Close()

	dump, err := snap.ThreadDump(int(index))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(dump), nil
}

func (s *Server) handleHotspots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, failed := s.open(request)
	if failed != nil {
		return failed, nil
	}
	defer snap.Close()

	if snap.SampleCount() == 0 {
		return mcp.NewToolResultError("file has no samples"), nil
	}
	start := int(request.GetFloat("start", 0))
	end := int(request.GetFloat("end", float64(snap.SampleCount()-1)))
	top := int(request.GetFloat("top", defaultTop))

	loaded, err := snap.Snapshot(start, end)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := report.WriteHotspots(&buf, loaded.CPU, top); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
