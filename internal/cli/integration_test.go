//go:build integration

package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/glance/internal/testutil"
)

const photoAttributes = `
photos/beach.jpg:
  rating: 5
  taken: 2024-07-14
  album: Summer
photos/city.jpg:
  rating: 3
  taken: 2023-03-02
photos/blurry.jpg:
  rating: 1
notes/todo.txt:
  rating: 4
`

func photoLibrary(t *testing.T) *testutil.TestLibrary {
	t.Helper()
	lib := testutil.NewTestLibrary(t).
		WithFile("photos/beach.jpg", "").
		WithFile("photos/city.jpg", "").
		WithFile("photos/blurry.jpg", "").
		WithFile("photos/untagged.jpg", "").
		WithFile("notes/todo.txt", "").
		WithFile("attributes.yaml", photoAttributes).
		Build()
	lib.RunCLI("import", filepath.Join(lib.Path, "attributes.yaml")).MustSucceed(t)
	return lib
}

func TestIntegration_ImportAndQuery(t *testing.T) {
	lib := photoLibrary(t)

	lib.AssertQueryPaths(`select "photos/*.jpg" where rating >= 3`,
		"photos/beach.jpg", "photos/city.jpg")
	lib.AssertQueryPaths(`select "**/*" where year(taken) = 2024`, "photos/beach.jpg")
	lib.AssertQueryPaths(`select "photos/*.jpg" where not rating`, "photos/untagged.jpg")

	result := lib.RunCLI("query", `select "photos/*.jpg" order by rating desc`, "--limit", "2")
	result.MustSucceed(t)
	paths := result.ResultPaths()
	if len(paths) != 2 || paths[0] != "photos/beach.jpg" || paths[1] != "photos/city.jpg" {
		t.Errorf("ordered paths = %v", paths)
	}
}

func TestIntegration_QueryErrors(t *testing.T) {
	lib := photoLibrary(t)

	result := lib.RunCLI("query", `select "photos/*" where`)
	result.MustFail(t, "QUERY_INVALID")

	result = lib.RunCLI("query", `select "photos/*" where (`)
	result.MustFail(t, "QUERY_INVALID")

	// Unresolved calls are runtime errors: the query still runs.
	result = lib.RunCLI("query", `select "photos/*" where nosuchfunction(rating)`)
	result.MustSucceed(t)
	result.AssertHasWarning(t, "QUERY_RUNTIME_ERROR")
	result.AssertResultCount(t, "results", 0)
}

func TestIntegration_ViewsAndCycles(t *testing.T) {
	lib := photoLibrary(t)

	lib.RunCLI("view", "add", "best", `select "photos/*" where rating >= 4`).MustSucceed(t)
	lib.AssertFileContains("glance.yaml", "best")
	lib.AssertQueryPaths("best", "photos/beach.jpg")
	lib.AssertQueryPaths(`select best where album = "Summer"`, "photos/beach.jpg")

	lib.RunCLI("view", "add", "loop", "select loop").MustFail(t, "VIEW_INVALID")

	lib.RunCLI("check").MustSucceed(t)

	lib.RunCLI("view", "remove", "best").MustSucceed(t)
	lib.RunCLI("view", "show", "best").MustFail(t, "VIEW_NOT_FOUND")
}

func TestIntegration_AttrSetAndGet(t *testing.T) {
	lib := photoLibrary(t)

	lib.RunCLI("attr", "set", "photos/untagged.jpg", "rating=2", "album=Winter").MustSucceed(t)
	result := lib.RunCLI("attr", "get", "photos/untagged.jpg", "rating")
	result.MustSucceed(t)
	if got, ok := result.Data["value"].(float64); !ok || got != 2 {
		t.Errorf("rating = %v", result.Data["value"])
	}

	lib.RunCLI("attr", "set", "missing.jpg", "rating=1").MustFail(t, "FILE_NOT_FOUND")

	lib.RunCLI("attr", "unset", "photos/untagged.jpg", "album").MustSucceed(t)
	lib.AssertQueryPaths(`select "photos/*" where album = "Winter"`)
}

func TestIntegration_LastQuery(t *testing.T) {
	lib := photoLibrary(t)

	lib.RunCLI("last").MustFail(t, "NO_LAST_QUERY")

	lib.RunCLI("query", `select "photos/*.jpg" where rating order by rating desc`).MustSucceed(t)
	lib.AssertFileExists(".glance/last-query.json")

	result := lib.RunCLI("last", "1,3")
	result.MustSucceed(t)
	paths := result.ResultPaths()
	if len(paths) != 2 || paths[0] != "photos/beach.jpg" || paths[1] != "photos/blurry.jpg" {
		t.Errorf("selected paths = %v", paths)
	}

	lib.RunCLI("last", "9").MustFail(t, "INVALID_INPUT")
}

func TestIntegration_PruneAndStats(t *testing.T) {
	lib := photoLibrary(t)

	if err := os.Remove(filepath.Join(lib.Path, "photos", "blurry.jpg")); err != nil {
		t.Fatal(err)
	}
	result := lib.RunCLI("prune")
	result.MustSucceed(t)
	result.AssertResultCount(t, "pruned", 1)

	result = lib.RunCLI("stats")
	result.MustSucceed(t)
	if got := result.Data["entities"]; got != float64(3) {
		t.Errorf("entities = %v", got)
	}
}

func TestIntegration_ExportRoundTrip(t *testing.T) {
	lib := photoLibrary(t)
	out := filepath.Join(t.TempDir(), "export.yaml")
	lib.RunCLI("export", out).MustSucceed(t)

	other := testutil.NewTestLibrary(t).
		WithFile("photos/beach.jpg", "").
		Build()
	other.RunCLI("import", out).MustSucceed(t)
	other.AssertQueryPaths(`select "photos/*" where album = "Summer"`, "photos/beach.jpg")
}
