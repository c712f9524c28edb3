package mapfile

import (
	"github.com/yegor-usoltsev/chownmap/internal/idmap"
	"github.com/yegor-usoltsev/chownmap/internal/schema"

	"gopkg.in/yaml.v3"
)

// parseYAML reads the YAML format:
//
//	$schema: https://chownmap.usoltsev.xyz/v0.json
//	uid:
//	  1000: 300000
//	gid:
//	  80000: 20044
//
// Structural problems are reported with line numbers. Only a structurally
// valid document is checked against the embedded schema.
func parseYAML(data []byte) *document {
	doc := &document{}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		doc.addf(0, ErrSyntax, "parse yaml: %v", err)
		return doc
	}
	if root.Kind == 0 {
		// Empty input: both tables are reported missing by the caller.
		return doc
	}
	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		doc.addf(top.Line, ErrSyntax, "top level must be a mapping")
		return doc
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], resolveAlias(top.Content[i+1])
		switch key.Value {
		case "$schema":
			continue
		case "uid", "gid":
			axis := idmap.User
			if key.Value == "gid" {
				axis = idmap.Group
			}
			if (axis == idmap.User && doc.hasUsers) || (axis == idmap.Group && doc.hasGroups) {
				doc.addf(key.Line, ErrDuplicate, "table %s", axis)
				continue
			}
			t := doc.table(axis)
			if isNull(val) {
				continue
			}
			if val.Kind != yaml.MappingNode {
				doc.addf(val.Line, ErrBadEntry, "%s must be a mapping of source: target", axis)
				continue
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				k, v := val.Content[j], resolveAlias(val.Content[j+1])
				if v.Kind != yaml.ScalarNode {
					doc.addf(v.Line, ErrBadEntry, "%s value for %q must be a scalar", axis, k.Value)
					continue
				}
				doc.put(t, axis, k.Line, k.Value, v.Value)
			}
		default:
			doc.addf(key.Line, ErrUnknownTable, "%q", key.Value)
		}
	}

	if len(doc.problems) == 0 && doc.hasUsers && doc.hasGroups {
		if err := schema.Check(toJSONValue(top)); err != nil {
			doc.addf(0, ErrSchema, "%v", err)
		}
	}
	return doc
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

// toJSONValue converts a YAML node tree to JSON-compatible values. Mapping
// keys are kept as their literal text, so numeric identifiers stay strings.
func toJSONValue(n *yaml.Node) any {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return toJSONValue(n.Content[0])
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = toJSONValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, toJSONValue(c))
		}
		return out
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return n.Value
		}
		return v
	}
}
