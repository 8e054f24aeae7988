package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestResultsTableRender(t *testing.T) {
	tbl := NewResultsTable(NewDisplayContextWithWidth(100), []string{"rating", "album"})
	if got := tbl.Render(); got != "" {
		t.Fatalf("empty table rendered %q", got)
	}

	tbl.AddRow("photos/beach.jpg", "5", "Summer")
	tbl.AddRow("photos/dog.jpg", "", "")
	out := ansi.Strip(tbl.Render())

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and two rows, got %d lines:\n%s", len(lines), out)
	}
	for _, want := range []string{"#", "path", "rating", "album"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[2], "photos/beach.jpg") || !strings.Contains(lines[2], "Summer") {
		t.Errorf("first row = %q", lines[2])
	}
	if strings.Count(lines[3], NullCell) != 2 {
		t.Errorf("missing attributes should render as %q: %q", NullCell, lines[3])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[3]), "2") {
		t.Errorf("second row should be numbered 2: %q", lines[3])
	}
}

func TestResultsTableStartAt(t *testing.T) {
	tbl := NewResultsTable(NewDisplayContextWithWidth(80), nil).StartAt(10)
	tbl.AddRow("a.jpg")
	out := ansi.Strip(tbl.Render())
	if !strings.Contains(out, "10") {
		t.Errorf("expected row number 10 in:\n%s", out)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestResultsTableTruncatesLongPaths(t *testing.T) {
	long := strings.Repeat("deep/", 40) + "file.jpg"
	tbl := NewResultsTable(NewDisplayContextWithWidth(60), []string{"rating"})
	tbl.AddRow(long, "1")
	for _, line := range strings.Split(ansi.Strip(tbl.Render()), "\n") {
		if w := ansi.StringWidth(line); w > 80 {
			t.Errorf("line is %d cells wide: %q", w, line)
		}
	}
}

func TestRenderList(t *testing.T) {
	out := ansi.Strip(RenderList([][2]string{{"recent", "last week"}, {"best", ""}}))
	want := "  recent  last week\n  best\n"
	if out != want {
		t.Errorf("RenderList = %q, want %q", out, want)
	}
}
