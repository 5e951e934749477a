package cluster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/starford/bignote/internal/apperr"
	"github.com/starford/bignote/internal/models"
	"github.com/starford/bignote/internal/testutil"
)

func TestFormatTripletID(t *testing.T) {
	cases := map[int]string{0: "000", 2: "002", 10: "010", 99: "099", 100: "100", 999: "999", 1000: "1000"}
	for n, want := range cases {
		if got := FormatTripletID(n); got != want {
			t.Errorf("FormatTripletID(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestNextTripletID(t *testing.T) {
	tree := testutil.Tree(
		"Project/Project.md",
		"Project/tasks/000 A.md",
		"Project/tasks/001 B.md",
		"Project/tasks/sub/nested.md",
		"Project/ideas/",
	)
	index := file(t, tree, "Project/Project.md")

	got, err := NextTripletID("ideas", index)
	if err != nil || got != "000" {
		t.Errorf("empty folder = %q, %v; want 000", got, err)
	}
	got, err = NextTripletID("tasks", index)
	if err != nil || got != "002" {
		t.Errorf("two files = %q, %v; want 002", got, err)
	}
	if _, err := NextTripletID("issues", index); !errors.Is(err, apperr.ErrStructuralMismatch) {
		t.Errorf("missing folder err = %v", err)
	}
	if _, err := NextTripletID("journal", index); !errors.Is(err, apperr.ErrInvalidSelection) {
		t.Errorf("unknown folder err = %v", err)
	}
	if _, err := NextTripletID("tasks", models.NewFile(nil, "x.md")); err == nil {
		t.Error("expected error for parentless index")
	}
}

func TestNextTripletID_PastNineNineNine(t *testing.T) {
	paths := []string{"Big/Big.md"}
	for i := 0; i < 1000; i++ {
		paths = append(paths, fmt.Sprintf("Big/tasks/%03d n.md", i))
	}
	tree := testutil.Tree(paths...)
	got, err := NextTripletID("tasks", file(t, tree, "Big/Big.md"))
	if err != nil || got != "1000" {
		t.Errorf("NextTripletID = %q, %v; want 1000", got, err)
	}
}
