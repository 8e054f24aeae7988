package query

import (
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/pattern"
	"github.com/aidanlsb/glance/internal/value"
)

// ExecutionOptions controls one execution of a plan.
type ExecutionOptions struct {
	// Context cancels enumeration. Nil means context.Background().
	Context context.Context
}

func (o ExecutionOptions) context() context.Context {
	if o.Context != nil {
		return o.Context
	}
	return context.Background()
}

// Executable is a compiled query plan. Plans are immutable; Execute may be
// called any number of times and nothing is enumerated until the returned
// sequence is consumed.
type Executable interface {
	Execute(opts ExecutionOptions) iter.Seq[entity.Entity]
	// Match re-tests one entity against the whole plan without enumerating.
	Match(e entity.Entity) bool
	// Comparer is the ordering the results are sorted by.
	Comparer() *Comparer
	String() string
}

// Grouping is implemented by plans ending in a group by clause.
type Grouping interface {
	Groups(opts ExecutionOptions) iter.Seq2[value.Value, []entity.Entity]
}

// Collect executes q and gathers every result.
func Collect(q Executable, opts ExecutionOptions) []entity.Entity {
	return slices.Collect(q.Execute(opts))
}

// Limit yields at most n results of seq. n <= 0 means no limit.
func Limit(seq iter.Seq[entity.Entity], n int) iter.Seq[entity.Entity] {
	if n <= 0 {
		return seq
	}
	return func(yield func(entity.Entity) bool) {
		count := 0
		for e := range seq {
			if !yield(e) {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}

// GroupsOf returns the grouping of q, looking through named views.
func GroupsOf(q Executable) (Grouping, bool) {
	for {
		switch n := q.(type) {
		case Grouping:
			return n, true
		case *viewNode:
			q = n.query
		default:
			return nil, false
		}
	}
}

// Rendering levels: a clause can be appended to a query whose level is
// lower than the clause's, otherwise the query is wrapped as a subquery.
const (
	levelSource = iota
	levelFilter
	levelSort
	levelGroup
	levelIntersect
	levelUnion
)

type planNode interface {
	Executable
	level() int
	label() string
	inputs() []Executable
}

func levelOf(q Executable) int {
	if n, ok := q.(planNode); ok {
		return n.level()
	}
	return levelUnion + 1
}

func subquery(q Executable) string { return "select (" + q.String() + ")" }

func withClause(child Executable, lvl int, clause string) string {
	if levelOf(child) < lvl {
		return child.String() + " " + clause
	}
	return subquery(child) + " " + clause
}

// FromPattern creates a plan enumerating the matches of m.
func FromPattern(m pattern.Matcher) Executable { return &patternNode{matcher: m} }

type patternNode struct {
	matcher pattern.Matcher
}

func (n *patternNode) Execute(opts ExecutionOptions) iter.Seq[entity.Entity] {
	return n.matcher.Entities(opts.context())
}

func (n *patternNode) Match(e entity.Entity) bool { return n.matcher.Match(e) }
func (n *patternNode) Comparer() *Comparer        { return IdentityComparer() }
func (n *patternNode) String() string             { return "select " + n.label() }
func (n *patternNode) level() int                 { return levelSource }
func (n *patternNode) inputs() []Executable       { return nil }

func (n *patternNode) label() string {
	return quoteBounded(n.matcher.String(), '"')
}

// Named wraps q as the expansion of a view.
func Named(name string, q Executable) Executable { return &viewNode{name: name, query: q} }

type viewNode struct {
	name  string
	query Executable
}

func (n *viewNode) Execute(opts ExecutionOptions) iter.Seq[entity.Entity] {
	return n.query.Execute(opts)
}

func (n *viewNode) Match(e entity.Entity) bool { return n.query.Match(e) }
func (n *viewNode) Comparer() *Comparer        { return n.query.Comparer() }
func (n *viewNode) String() string             { return "select " + formatIdent(n.name) }
func (n *viewNode) level() int                 { return levelSource }
func (n *viewNode) label() string              { return "view " + formatIdent(n.name) }
func (n *viewNode) inputs() []Executable       { return []Executable{n.query} }

// Where keeps the results of q satisfying pred.
func Where(q Executable, pred Expression, rt *Runtime) Executable {
	return &filterNode{child: q, pred: pred, test: CompilePredicate(pred, rt)}
}

type filterNode struct {
	child Executable
	pred  Expression
	test  Predicate
}

func (n *filterNode) Execute(opts ExecutionOptions) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		for e := range n.child.Execute(opts) {
			if n.test(e) && !yield(e) {
				return
			}
		}
	}
}

func (n *filterNode) Match(e entity.Entity) bool { return n.child.Match(e) && n.test(e) }
func (n *filterNode) Comparer() *Comparer        { return n.child.Comparer() }
func (n *filterNode) level() int                 { return levelFilter }
func (n *filterNode) label() string              { return "where " + n.pred.String() }
func (n *filterNode) inputs() []Executable       { return []Executable{n.child} }

func (n *filterNode) String() string { return withClause(n.child, levelFilter, n.label()) }

// OrderBy sorts the results of q by c. The sort is stable.
func OrderBy(q Executable, c *Comparer) Executable {
	return &sortNode{child: q, cmp: c}
}

type sortNode struct {
	child Executable
	cmp   *Comparer
}

func (n *sortNode) Execute(opts ExecutionOptions) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		items := slices.Collect(n.child.Execute(opts))
		slices.SortStableFunc(items, n.cmp.Compare)
		for _, e := range items {
			if !yield(e) {
				return
			}
		}
	}
}

func (n *sortNode) Match(e entity.Entity) bool { return n.child.Match(e) }
func (n *sortNode) Comparer() *Comparer        { return n.cmp }
func (n *sortNode) level() int                 { return levelSort }
func (n *sortNode) label() string              { return "order by " + n.cmp.String() }
func (n *sortNode) inputs() []Executable       { return []Executable{n.child} }

func (n *sortNode) String() string { return withClause(n.child, levelSort, n.label()) }

// GroupBy partitions the results of q by the value of key. Groups appear in
// order of their first member; members keep their relative order.
func GroupBy(q Executable, key Expression, rt *Runtime) Executable {
	return &groupNode{child: q, key: key, get: key.CompileFunction(rt)}
}

type groupNode struct {
	child Executable
	key   Expression
	get   Func
}

type group struct {
	key     value.Value
	members []entity.Entity
}

func (n *groupNode) Groups(opts ExecutionOptions) iter.Seq2[value.Value, []entity.Entity] {
	return func(yield func(value.Value, []entity.Entity) bool) {
		var order []*group
		byKey := make(map[string]*group)
		for e := range n.child.Execute(opts) {
			k := n.get(e)
			g, ok := byKey[k.Key()]
			if !ok {
				g = &group{key: k}
				byKey[k.Key()] = g
				order = append(order, g)
			}
			g.members = append(g.members, e)
		}
		for _, g := range order {
			if !yield(g.key, g.members) {
				return
			}
		}
	}
}

func (n *groupNode) Execute(opts ExecutionOptions) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		for _, members := range n.Groups(opts) {
			for _, e := range members {
				if !yield(e) {
					return
				}
			}
		}
	}
}

func (n *groupNode) Match(e entity.Entity) bool { return n.child.Match(e) }
func (n *groupNode) Comparer() *Comparer        { return n.child.Comparer() }
func (n *groupNode) level() int                 { return levelGroup }
func (n *groupNode) label() string              { return "group by " + n.key.String() }
func (n *groupNode) inputs() []Executable       { return []Executable{n.child} }

func (n *groupNode) String() string { return withClause(n.child, levelGroup, n.label()) }

// Explain renders q as an indented plan tree.
func Explain(q Executable) string {
	var sb strings.Builder
	explain(&sb, q, 0)
	return sb.String()
}

func explain(sb *strings.Builder, q Executable, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	n, ok := q.(planNode)
	if !ok {
		sb.WriteString(q.String())
		sb.WriteByte('\n')
		return
	}
	sb.WriteString(n.label())
	sb.WriteByte('\n')
	for _, in := range n.inputs() {
		explain(sb, in, depth+1)
	}
}
