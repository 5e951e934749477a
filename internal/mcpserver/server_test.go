package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/bignote/internal/index"
	"github.com/starford/bignote/internal/noteservice"
	"github.com/starford/bignote/internal/spawn"
	"github.com/starford/bignote/internal/storage"
	"github.com/starford/bignote/internal/testutil"
)

var fixture = map[string]string{
	"Project/Project.md":         "# Project\n",
	"Project/tasks/000 Setup.md": "---\nparent: \"[[Project]]\"\n---\n",
	"Loose/notes.md":             "scratch\n",
}

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t, fixture)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}
	svc := noteservice.NewService(store, db, logger,
		noteservice.WithSpawnOptions(spawn.WithHexSource(func() string { return "abcabc" })))

	srv := New(store, svc)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_clusters":
		result, err = srv.listClusters(ctx, req)
	case "get_taxonomy":
		result, err = srv.getTaxonomy(ctx, req)
	case "classify_path":
		result, err = srv.classifyPath(ctx, req)
	case "resolve_index":
		result, err = srv.resolveIndex(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "spawn_note":
		result, err = srv.spawnNote(ctx, req)
	case "get_cluster_contract":
		result, err = srv.getClusterContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListClusters(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_clusters", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var got []noteservice.ClusterSummary
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].IndexPath != "Project/Project.md" {
		t.Fatalf("clusters = %+v", got)
	}
	if len(got[0].Categories) != 1 || got[0].Categories[0].NextID != "001" {
		t.Errorf("categories = %+v", got[0].Categories)
	}
}

func TestGetTaxonomy(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_taxonomy", map[string]interface{}{}))
	if !strings.Contains(text, `"folder": "investigations"`) {
		t.Errorf("taxonomy = %s", text)
	}
}

func TestClassifyPath(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "classify_path", map[string]interface{}{"path": "Project/tasks"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"category_folder"`) {
		t.Errorf("report = %s", resultText(r))
	}

	r = callTool(t, srv, "classify_path", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without path")
	}
}

func TestResolveIndex(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "resolve_index", map[string]interface{}{"path": "Project/tasks/000 Setup.md"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"Project/Project.md"`) {
		t.Errorf("resolution = %s", resultText(r))
	}

	r = callTool(t, srv, "resolve_index", map[string]interface{}{"path": "Loose/notes.md"})
	if !r.IsError {
		t.Error("expected error for a note outside any cluster")
	}
}

func TestSpawnNote(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, "spawn_note", map[string]interface{}{
		"origin":  "Project/Project.md",
		"context": "Tasks",
		"name":    "Ship it",
		"line":    float64(0),
		"ch":      float64(9),
	})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var res spawn.Result
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Path != "Project/tasks/001 Ship it.md" {
		t.Errorf("path = %q", res.Path)
	}

	origin, err := store.Read("Project/Project.md")
	if err != nil {
		t.Fatal(err)
	}
	want := "# Project\nSpawn [[001 Ship it]] ^spawn-task-abcabc\n\n"
	if string(origin) != want {
		t.Errorf("origin = %q, want %q", origin, want)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"path": res.Path})
	if !strings.HasPrefix(resultText(r), "---\nparent: \"[[Project]]\"\n") {
		t.Errorf("spawned note = %q", resultText(r))
	}
}

func TestSpawnNoteOutsideWithRoot(t *testing.T) {
	srv, store := testServer(t)
	r := callTool(t, srv, "spawn_note", map[string]interface{}{
		"origin":  "Loose/notes.md",
		"root":    "Project",
		"context": "Idea",
		"name":    "Later",
	})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	origin, err := store.Read("Loose/notes.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(origin), "\nSpawn [[000 Later]] ^spawn-idea-abcabc\n") {
		t.Errorf("origin = %q", origin)
	}
}

func TestSpawnNoteErrors(t *testing.T) {
	srv, _ := testServer(t)
	cases := []map[string]interface{}{
		{"origin": "Loose/notes.md", "context": "Task", "name": "x"},
		{"origin": "Project/Project.md", "context": "Chore", "name": "x"},
		{"origin": "Project/Project.md", "context": "Task", "name": "a/b"},
		{"origin": "Project/Project.md", "context": "Task"},
	}
	for _, args := range cases {
		if r := callTool(t, srv, "spawn_note", args); !r.IsError {
			t.Errorf("args %v: expected error, got %s", args, resultText(r))
		}
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestClusterContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_cluster_contract", map[string]interface{}{}))
	for _, want := range []string{"| Investigation | Investigations | investigations | invst | yes |", "status: todo", "# Journal"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}

	contents, err := srv.readClusterContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != ClusterContractURI {
		t.Errorf("resource = %+v", contents)
	}
}
