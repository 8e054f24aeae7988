package cli

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/query"
	"github.com/aidanlsb/glance/internal/value"
)

func TestSplitColumns(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"single", []string{"rating"}, []string{"rating"}},
		{"comma list", []string{"rating,album"}, []string{"rating", "album"}},
		{"repeated flag", []string{"rating", "year(taken)"}, []string{"rating", "year(taken)"}},
		{"call arguments", []string{"ifnull(rating, 0),album"}, []string{"ifnull(rating, 0)", "album"}},
		{"string literal", []string{`concat(album, ", "),size`}, []string{`concat(album, ", ")`, "size"}},
		{"quoted identifier", []string{"`a,b`,c"}, []string{"`a,b`", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, splitColumns(tt.args)); diff != "" {
				t.Errorf("splitColumns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := map[string]string{
		"best":      "`best`",
		"this year": "`this year`",
		"a`b":       "`a``b`",
	}
	for in, want := range tests {
		if got := quoteIdent(in); got != want {
			t.Errorf("quoteIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQuotedViewNameParses(t *testing.T) {
	_, diags, err := query.Parse("select " + quoteIdent("odd`name"))
	if err != nil {
		t.Fatalf("Parse: %v (%v)", err, diags)
	}
}

func TestNormalizeFlagName(t *testing.T) {
	if got := normalizeFlagName(nil, "library_path"); got != "library-path" {
		t.Errorf("normalizeFlagName = %q", got)
	}
}

func TestNeedsLibrary(t *testing.T) {
	root := &cobra.Command{Use: "glance"}
	cfgCmd := &cobra.Command{Use: "config"}
	initCmd := &cobra.Command{Use: "init"}
	q := &cobra.Command{Use: "query"}
	cfgCmd.AddCommand(initCmd)
	root.AddCommand(cfgCmd, q)

	if needsLibrary(initCmd) {
		t.Error("config init should not need a library")
	}
	if !needsLibrary(q) {
		t.Error("query should need a library")
	}
}

func TestFunctionsMarkdown(t *testing.T) {
	md := functionsMarkdown([]*query.Function{
		{Name: "year", Params: []value.Type{value.TypeDateTime}, Returns: value.TypeInt, Help: "calendar year"},
		{Name: "now", Returns: value.TypeDateTime, Help: "current date/time"},
	})
	for _, want := range []string{
		"| `year(datetime) -> int` | calendar year |",
		"| `now() -> datetime` | current date/time |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("functions table missing %q:\n%s", want, md)
		}
	}
}

func TestGroupLabel(t *testing.T) {
	if got := groupLabel(nil); got != "(none)" {
		t.Errorf("groupLabel(nil) = %q", got)
	}
	if got := groupLabel(int64(2024)); got != "2024" {
		t.Errorf("groupLabel(2024) = %q", got)
	}
}
