package query

import (
	"context"
	"iter"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/pattern"
	"github.com/aidanlsb/glance/internal/testutil"
	"github.com/aidanlsb/glance/internal/value"
)

// memorySource serves patterns over a fixed list of paths and counts how
// much of it is enumerated.
type memorySource struct {
	paths  []string
	starts int
	pulled int
}

func (s *memorySource) Pattern(text string) (pattern.Matcher, error) {
	p, err := pattern.Parse(text)
	if err != nil {
		return nil, err
	}
	return &memoryMatcher{src: s, p: p}, nil
}

type memoryMatcher struct {
	src *memorySource
	p   *pattern.Pattern
}

func (m *memoryMatcher) String() string             { return m.p.String() }
func (m *memoryMatcher) Match(e entity.Entity) bool { return m.p.Match(e.Path()) }

func (m *memoryMatcher) Entities(ctx context.Context) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		m.src.starts++
		for _, p := range m.src.paths {
			if ctx.Err() != nil {
				return
			}
			if !m.p.Match(p) {
				continue
			}
			m.src.pulled++
			if !yield(entity.New(p, nil, nil)) {
				return
			}
		}
	}
}

func TestExecuteIsLazy(t *testing.T) {
	src := &memorySource{paths: []string{"a/1", "a/2", "a/3", "b/1", "b/2"}}
	c := NewCompiler(src, nil, DefaultRuntime())
	q := mustCompile(t, c, `select "a/*" union select "b/*"`)

	seq := q.Execute(ExecutionOptions{})
	if src.starts != 0 {
		t.Fatalf("Execute enumerated %d sources before iteration", src.starts)
	}

	var got []string
	for e := range seq {
		got = append(got, e.Path())
		if len(got) == 2 {
			break
		}
	}
	if !cmp.Equal(got, []string{"a/1", "a/2"}) {
		t.Errorf("got %v", got)
	}
	if src.starts != 1 || src.pulled != 2 {
		t.Errorf("starts=%d pulled=%d, want 1 and 2", src.starts, src.pulled)
	}

	// Each execution re-enumerates.
	if n := len(Collect(q, ExecutionOptions{})); n != 5 {
		t.Errorf("second execution returned %d entities", n)
	}
}

func TestExecuteHonoursCancellation(t *testing.T) {
	src := &memorySource{paths: []string{"a/1", "a/2", "a/3"}}
	q := mustCompile(t, NewCompiler(src, nil, nil), `select "a/*" where name() != "x"`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := Collect(q, ExecutionOptions{Context: ctx}); len(got) != 0 {
		t.Errorf("cancelled execution returned %d entities", len(got))
	}
}

func TestLimit(t *testing.T) {
	src := &memorySource{paths: []string{"a/1", "a/2", "a/3", "a/4"}}
	q := mustCompile(t, NewCompiler(src, nil, nil), `select "a/*"`)

	var got []string
	for e := range Limit(q.Execute(ExecutionOptions{}), 2) {
		got = append(got, e.Path())
	}
	if !cmp.Equal(got, []string{"a/1", "a/2"}) {
		t.Errorf("Limit(2) = %v", got)
	}
	if src.pulled != 2 {
		t.Errorf("pulled %d entities, want 2", src.pulled)
	}
	if n := len(slicesOf(Limit(q.Execute(ExecutionOptions{}), 0))); n != 4 {
		t.Errorf("Limit(0) returned %d, want all 4", n)
	}
}

func slicesOf(seq iter.Seq[entity.Entity]) []entity.Entity {
	var out []entity.Entity
	for e := range seq {
		out = append(out, e)
	}
	return out
}

func TestSetOperationsUseNormalizedIdentity(t *testing.T) {
	src := &memorySource{paths: []string{"x/Photo.JPG", "y/photo.jpg", "x/other.jpg"}}
	c := NewCompiler(src, ViewMap{
		"upper": `select "x/*"`,
	}, nil)

	left := FromPattern(mustMatcher(t, src, "x/*"))
	right := &fixedPlan{paths: []string{"X/photo.jpg", "./x//OTHER.jpg"}}

	if got := pathsOf(UnionOf(left, right)); !cmp.Equal(got, []string{"x/Photo.JPG", "x/other.jpg"}) {
		t.Errorf("union = %v", got)
	}
	if got := pathsOf(IntersectOf(left, right)); !cmp.Equal(got, []string{"x/Photo.JPG", "x/other.jpg"}) {
		t.Errorf("intersect = %v", got)
	}
	if got := pathsOf(ExceptOf(left, right)); len(got) != 0 {
		t.Errorf("except = %v", got)
	}
	if got := runText(t, c, `select upper except select "y/*"`); len(got) != 2 {
		t.Errorf("view except = %v", got)
	}
}

// fixedPlan is an Executable over a fixed list of paths, defined outside the
// package's own node types.
type fixedPlan struct {
	paths []string
}

func (p *fixedPlan) Execute(ExecutionOptions) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		for _, path := range p.paths {
			if !yield(entity.New(path, nil, nil)) {
				return
			}
		}
	}
}

func (p *fixedPlan) Match(e entity.Entity) bool {
	for _, path := range p.paths {
		if entity.Key(path) == entity.Key(e.Path()) {
			return true
		}
	}
	return false
}

func (p *fixedPlan) Comparer() *Comparer { return IdentityComparer() }
func (p *fixedPlan) String() string      { return "fixed" }

func mustMatcher(t *testing.T, f pattern.Factory, text string) pattern.Matcher {
	t.Helper()
	m, err := f.Pattern(text)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func pathsOf(q Executable) []string {
	var out []string
	for e := range q.Execute(ExecutionOptions{}) {
		out = append(out, e.Path())
	}
	return out
}

func TestSetAlgebra(t *testing.T) {
	c := newScenarioCompiler(t, nil)
	a := `select "dir/**" where attr1`
	b := `select "dir/**" where attr2`
	setA := toSet(runText(t, c, a))
	setB := toSet(runText(t, c, b))

	union := runText(t, c, a+" union "+b)
	intersect := runText(t, c, a+" intersect "+b)
	except := runText(t, c, a+" except "+b)

	for _, p := range union {
		if !setA[p] && !setB[p] {
			t.Errorf("union contains %s from neither side", p)
		}
	}
	if len(union) != len(toSet(union)) {
		t.Errorf("union has duplicates: %v", union)
	}
	for p := range setA {
		if !toSet(union)[p] {
			t.Errorf("union misses %s", p)
		}
		if setB[p] != toSet(intersect)[p] {
			t.Errorf("intersect membership of %s wrong", p)
		}
		if setB[p] == toSet(except)[p] {
			t.Errorf("except membership of %s wrong", p)
		}
	}
	for p := range setB {
		if !toSet(union)[p] {
			t.Errorf("union misses %s", p)
		}
	}
}

func toSet(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}

func TestMatchAgreesWithExecute(t *testing.T) {
	lib := testutil.ScenarioLibrary(t)
	src := pattern.NewSource(lib.Path, lib.Loader())
	c := NewCompiler(src, ViewMap{"jpgs": `select "dir/*/*.jpg"`}, nil)
	universe := Collect(FromPattern(mustMatcher(t, src, "dir/**")), ExecutionOptions{})
	if len(universe) != 19 {
		t.Fatalf("universe has %d entities, want 19", len(universe))
	}

	queries := []string{
		`select "dir/**" where attr1`,
		`select "dir/a/*"`,
		`select "dir/*/*.jpg" where attr2 > 3 or not attr1`,
		`select jpgs union select "dir/*.txt"`,
		`select "dir/**" intersect select jpgs where attr1`,
		`select "dir/**" except select (select "dir/a/**" union select "dir/b/**")`,
		`select (select "dir/**" where attr2) except select "dir/c/*"`,
	}
	for _, text := range queries {
		t.Run(text, func(t *testing.T) {
			q := mustCompile(t, c, text)
			members := toSet(run(q))
			for _, e := range universe {
				if got, want := q.Match(e), members[e.Path()]; got != want {
					t.Errorf("Match(%s) = %v, membership %v", e.Path(), got, want)
				}
			}
		})
	}
}

func TestOrderByIsStable(t *testing.T) {
	c := newScenarioCompiler(t, nil)
	got := pathsOf(mustCompile(t, c, `select "dir/*/*.jpg" order by attr1`))
	want := []string{
		// attr1 is null: enumeration order is kept
		"dir/a/3.jpg", "dir/a/4.jpg", "dir/b/2.jpg", "dir/b/3.jpg",
		"dir/c/2.jpg", "dir/c/3.jpg", "dir/c/4.jpg",
		// attr1 = 1, in enumeration order
		"dir/a/1.jpg", "dir/a/2.jpg", "dir/c/1.jpg",
		// attr1 = "x": strings order after numbers
		"dir/b/1.jpg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderByKeysAndDirections(t *testing.T) {
	c := newScenarioCompiler(t, nil)
	got := pathsOf(mustCompile(t, c, `select "dir/*/*.jpg" where attr2 order by attr1 desc, attr2`))
	want := []string{"dir/b/1.jpg", "dir/a/2.jpg", "dir/a/3.jpg", "dir/c/4.jpg", "dir/b/2.jpg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestComparerNullsFirst(t *testing.T) {
	rt := DefaultRuntime()
	asc := NewComparer(NewSortKey(mustParseExpr(t, "n"), rt, Ascending))
	withN := entity.New("a", map[string]value.Value{"n": value.Int(0)}, nil)
	without := entity.New("b", nil, nil)
	if asc.Compare(without, withN) >= 0 {
		t.Error("null should sort before a defined value")
	}
	if asc.Compare(without, without) != 0 {
		t.Error("two nulls should compare equal")
	}
	if !IdentityComparer().IsIdentity() || IdentityComparer().Compare(withN, without) != 0 {
		t.Error("identity comparer should consider every pair equal")
	}
	if s := asc.Then(NewComparer(NewSortKey(mustParseExpr(t, "m"), rt, Descending))).String(); s != "n, m desc" {
		t.Errorf("String() = %q", s)
	}
}

func TestGroupBy(t *testing.T) {
	c := newScenarioCompiler(t, nil)
	q := mustCompile(t, c, `select "dir/*/*.jpg" order by attr2 desc group by dir()`)
	g, ok := GroupsOf(q)
	if !ok {
		t.Fatal("plan has no grouping")
	}

	type grp struct {
		Key     string
		Members []string
	}
	var got []grp
	for key, members := range g.Groups(ExecutionOptions{}) {
		got = append(got, grp{Key: key.Text(), Members: pathsOfEntities(members)})
	}
	want := []grp{
		{"dir/b", []string{"dir/b/2.jpg", "dir/b/1.jpg", "dir/b/3.jpg"}},
		{"dir/c", []string{"dir/c/4.jpg", "dir/c/1.jpg", "dir/c/2.jpg", "dir/c/3.jpg"}},
		{"dir/a", []string{"dir/a/2.jpg", "dir/a/3.jpg", "dir/a/1.jpg", "dir/a/4.jpg"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if q.Comparer().IsIdentity() {
		t.Error("grouping should keep the ordering of its input")
	}
	if n := len(pathsOf(q)); n != 11 {
		t.Errorf("flattened groups returned %d entities, want 11", n)
	}
}

func pathsOfEntities(es []entity.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Path()
	}
	return out
}

func TestExplain(t *testing.T) {
	c := newScenarioCompiler(t, ViewMap{"jpgs": `select "dir/*/*.jpg"`})
	q := mustCompile(t, c, `select jpgs where attr1 union select "dir/*.txt" order by name()`)
	want := strings.Join([]string{
		"union",
		"  where attr1",
		"    view jpgs",
		`      "dir/*/*.jpg"`,
		"  order by name()",
		`    "dir/*.txt"`,
		"",
	}, "\n")
	if diff := cmp.Diff(want, Explain(q)); diff != "" {
		t.Errorf("Explain mismatch (-want +got):\n%s", diff)
	}
}
