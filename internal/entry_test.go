package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/bignote/internal/apperr"
	"github.com/starford/bignote/internal/editor"
	"github.com/starford/bignote/internal/prompt"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "bignote.db")

	files := map[string]string{
		"Project/Project.md":         "# Project\n",
		"Project/tasks/000 Setup.md": "---\nparent: \"[[Project]]\"\n---\n",
		"Loose/notes.md":             "scratch\n",
	}
	for p, content := range files {
		abs := filepath.Join(cfg.Vault.Path, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func cliOptions(cfg *Config, out io.Writer, extra ...Option) []Option {
	return append([]Option{
		WithConfig(cfg),
		WithIO(strings.NewReader(""), out),
		WithLogOutput(io.Discard),
	}, extra...)
}

func TestBootstrap_RequiresConfig(t *testing.T) {
	if _, err := bootstrap(nil, io.Discard); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestListClusters(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	if err := ListClusters(context.Background(), cliOptions(cfg, &out)...); err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Project", "Project/Project.md", "1 notes, next 001"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Loose") {
		t.Errorf("Loose is not a cluster:\n%s", text)
	}
}

func TestListClusters_DuplicateResolution(t *testing.T) {
	cfg := testConfig(t)
	for _, p := range []string{"x.md", "A/x.md"} {
		abs := filepath.Join(cfg.Vault.Path, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte("x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var out bytes.Buffer
	if err := ListClusters(context.Background(), cliOptions(cfg, &out)...); err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	if !strings.Contains(out.String(), `basename "x" is shared by 2 notes; links resolve to x.md`) {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestClassify(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	if err := Classify(context.Background(), "Project/tasks/000 Setup.md", cliOptions(cfg, &out)...); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !strings.Contains(out.String(), "peripheral_note") {
		t.Errorf("output:\n%s", out.String())
	}

	out.Reset()
	if err := Classify(context.Background(), "Nope.md", cliOptions(cfg, &out)...); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSpawnNote(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	p := prompt.NewScripted("Task", "Write docs")
	err := SpawnNote(context.Background(), "Project/Project.md", false, editor.End,
		cliOptions(cfg, &out, WithPrompt(p))...)
	if err != nil {
		t.Fatalf("SpawnNote: %v", err)
	}
	if !strings.Contains(out.String(), "Project/tasks/001 Write docs.md") {
		t.Errorf("output:\n%s", out.String())
	}

	data, err := os.ReadFile(filepath.Join(cfg.Vault.Path, "Project", "tasks", "001 Write docs.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "# Journal\n") {
		t.Errorf("note = %q", data)
	}
}

func TestSpawnNote_LiveMetadataAndHeading(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metadata.Source = "live"
	cfg.Spawn.JournalHeading = "Log"
	var out bytes.Buffer
	p := prompt.NewScripted("Idea", "Later")
	err := SpawnNote(context.Background(), "Project/tasks/000 Setup.md", false, editor.End,
		cliOptions(cfg, &out, WithPrompt(p))...)
	if err != nil {
		t.Fatalf("SpawnNote: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Vault.Path, "Project", "ideas", "000 Later.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "# Log\n") {
		t.Errorf("note = %q", data)
	}
}

func TestSpawnNote_OutsideCluster(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	p := prompt.NewScripted("Task", "x")
	err := SpawnNote(context.Background(), "Loose/notes.md", false, editor.End,
		cliOptions(cfg, &out, WithPrompt(p))...)
	if !errors.Is(err, apperr.ErrStructuralMismatch) && !errors.Is(err, apperr.ErrResolutionFailure) {
		t.Fatalf("err = %v, want a cluster error", err)
	}
	if len(p.Asked()) != 0 {
		t.Errorf("prompt asked %v before the cluster check", p.Asked())
	}
	if !strings.Contains(out.String(), "not part of a cluster") {
		t.Errorf("output:\n%s", out.String())
	}
}
