package index

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/glance/internal/value"
)

// ImportStats summarizes an import.
type ImportStats struct {
	Paths      int `json:"paths"`
	Attributes int `json:"attributes"`
	Removed    int `json:"removed"`
}

// ImportYAML reads a document mapping paths to attribute maps and stores
// every attribute in one transaction:
//
//	photos/2024/beach.jpg:
//	  rating: 5
//	  taken: 2024-07-14
//	  album: Summer
//
// Null values remove the attribute.
func (d *Database) ImportYAML(r io.Reader) (*ImportStats, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &ImportStats{}, nil
		}
		return nil, fmt.Errorf("failed to parse attributes: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of paths to attributes", root.Line)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats := &ImportStats{}
	now := time.Now().Unix()
	for i := 0; i+1 < len(root.Content); i += 2 {
		pathNode, attrsNode := root.Content[i], root.Content[i+1]
		if attrsNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: attributes of %s must be a mapping", attrsNode.Line, pathNode.Value)
		}
		stats.Paths++
		for j := 0; j+1 < len(attrsNode.Content); j += 2 {
			nameNode, valueNode := attrsNode.Content[j], attrsNode.Content[j+1]
			v, err := nodeValue(valueNode)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s.%s: %w", valueNode.Line, pathNode.Value, nameNode.Value, err)
			}
			if err := setAttribute(tx, pathNode.Value, nameNode.Value, v, now); err != nil {
				return nil, fmt.Errorf("line %d: %w", nameNode.Line, err)
			}
			if v.IsNull() {
				stats.Removed++
			} else {
				stats.Attributes++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stats, nil
}

// nodeValue converts a YAML scalar using its resolved tag.
func nodeValue(n *yaml.Node) (value.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return value.Missing, fmt.Errorf("expected a scalar value")
	}
	switch n.ShortTag() {
	case "!!null":
		return value.Missing, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return value.Missing, err
		}
		return value.Int(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64)
		if err != nil {
			var out float64
			if derr := n.Decode(&out); derr != nil {
				return value.Missing, derr
			}
			f = out
		}
		return value.Real(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.Missing, err
		}
		return value.Bool(b), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return value.Missing, err
		}
		return value.DateTime(t), nil
	}
	return value.String(n.Value), nil
}

// ExportYAML writes every stored attribute in the format ImportYAML reads.
func (d *Database) ExportYAML(w io.Writer) error {
	paths, err := d.Paths()
	if err != nil {
		return err
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range paths {
		attrs, err := d.Attributes(p)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)

		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range names {
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, valueNode(attrs[name]))
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p}, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to write attributes: %w", err)
	}
	return enc.Close()
}

func valueNode(v value.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: v.Text()}
	switch v.Type() {
	case value.TypeInt:
		n.Tag = "!!int"
	case value.TypeReal:
		n.Tag = "!!float"
		if f, ok := v.Real(); ok {
			n.Value = strconv.FormatFloat(f, 'f', -1, 64)
			if !strings.ContainsAny(n.Value, ".eE") {
				n.Value += ".0"
			}
		}
	case value.TypeDateTime:
		n.Tag = "!!timestamp"
		if t, ok := v.Time(); ok {
			n.Value = t.UTC().Format(time.RFC3339Nano)
		}
	default:
		n.Tag = "!!str"
	}
	return n
}
