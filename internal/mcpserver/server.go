// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes cluster tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/bignote/internal/editor"
	"github.com/starford/bignote/internal/noteservice"
	"github.com/starford/bignote/internal/spawn"
	"github.com/starford/bignote/internal/storage"
	"github.com/starford/bignote/internal/taxonomy"
)

// Server wraps the MCP server with cluster tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(store storage.Provider, svc *noteservice.Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"bignote",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_clusters",
		mcp.WithDescription("List every cluster: root folder, index note and category folders with their next note ID."),
	), s.listClusters)

	s.mcp.AddTool(mcp.NewTool("get_taxonomy",
		mcp.WithDescription("List the context types (Entry, HowTo, Idea, ...) in display order with folder names and codes."),
	), s.getTaxonomy)

	s.mcp.AddTool(mcp.NewTool("classify_path",
		mcp.WithDescription("Report the cluster roles of a vault folder or file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (e.g. Project/tasks)")),
	), s.classifyPath)

	s.mcp.AddTool(mcp.NewTool("resolve_index",
		mcp.WithDescription("Find the index note of the cluster a note belongs to."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative note path")),
	), s.resolveIndex)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. Project/Project.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("spawn_note",
		mcp.WithDescription("Create a peripheral note in a cluster and insert a forward reference into the origin note. "+
			"Read the contract first via get_cluster_contract or the "+ClusterContractURI+" resource."),
		mcp.WithString("origin", mcp.Required(), mcp.Description("Path of the note the spawn starts from")),
		mcp.WithString("context", mcp.Required(), mcp.Description("Context type heading, singular or plural"),
			mcp.Enum(append(taxonomy.Headings(), taxonomy.PluralHeadings()...)...)),
		mcp.WithString("name", mcp.Required(), mcp.Description("New note name without the NNN ID")),
		mcp.WithString("root", mcp.Description("Cluster root folder; required when the origin is not part of a cluster")),
		mcp.WithNumber("line", mcp.Description("Zero-based cursor line in the origin note; omit for end of note")),
		mcp.WithNumber("ch", mcp.Description("Zero-based cursor column")),
	), s.spawnNote)

	s.mcp.AddTool(mcp.NewTool("get_cluster_contract",
		mcp.WithDescription("Returns the cluster structure contract. "+
			"Call this before spawning notes to understand where they go."),
	), s.getClusterContract)

	s.mcp.AddResource(
		mcp.NewResource(ClusterContractURI, "Cluster Contract",
			mcp.WithResourceDescription("Cluster structure, context types and the spawned note format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readClusterContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listClusters(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clusters, err := s.svc.Clusters(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(clusters)
}

func (s *Server) getTaxonomy(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(taxonomy.All())
}

func (s *Server) classifyPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := s.svc.Classify(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) resolveIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) spawnNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	origin, err := req.RequireString("origin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	heading, err := req.RequireString("context")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cursor := editor.End
	if line := req.GetInt("line", -1); line >= 0 {
		cursor = editor.Cursor{Line: line, Ch: req.GetInt("ch", 0)}
	}

	res, err := s.svc.Spawn(ctx, spawn.Request{
		Origin:  origin,
		Root:    req.GetString("root", ""),
		Context: heading,
		Name:    name,
	}, cursor)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getClusterContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ClusterContract), nil
}

func (s *Server) readClusterContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ClusterContractURI,
			MIMEType: "text/markdown",
			Text:     ClusterContract,
		},
	}, nil
}
