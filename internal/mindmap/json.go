package mindmap

import (
	"slices"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
)

// Field names probed, in order, by FromJSON.
var (
	topicFields   = []string{"topic", "name", "title", "label", "key", "id"}
	summaryFields = []string{"summary", "description", "content", "detail", "info", "text"}
	skillFields   = []string{"skills", "tags", "categories", "keywords", "attributes"}
	childFields   = []string{"children", "items", "nodes", "subitems", "elements", "branches"}
)

// Fallback topics.
const (
	InvalidTopic   = "Invalid Data"
	InvalidSummary = "Unable to process data"
	UnnamedTopic   = "Unnamed Node"
)

// FromJSON builds a node tree from a loosely structured JSON object by
// probing well-known field names. Non-object input yields an InvalidTopic node.
func FromJSON(doc any) Node {
	if !isObject(doc) {
		return Node{Topic: InvalidTopic, Summary: InvalidSummary}
	}

	n := Node{
		Topic:   topicOf(doc),
		Summary: firstString(doc, summaryFields),
		Skills:  skillsOf(doc),
	}

	for _, child := range childrenOf(doc) {
		n.Children = append(n.Children, FromJSON(child))
	}

	return n
}

func isObject(v any) bool {
	kind, ok := analyze.KindOf(v)
	return ok && kind == analyze.KindObject
}

func field(obj any, key string) (any, bool) {
	return analyze.Lookup(obj, key)
}

func firstString(obj any, keys []string) string {
	for _, key := range keys {
		if v, ok := field(obj, key); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}

	return ""
}

func topicOf(obj any) string {
	if s := firstString(obj, topicFields); s != "" {
		return s
	}

	if keys := keysOf(obj); len(keys) > 0 {
		return keys[0]
	}

	return UnnamedTopic
}

func keysOf(obj any) []string {
	switch t := obj.(type) {
	case *analyze.Object:
		return t.Keys()
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		return keys
	default:
		return nil
	}
}

func skillsOf(obj any) []string {
	for _, key := range skillFields {
		v, ok := field(obj, key)
		if !ok {
			continue
		}

		items, ok := v.([]any)
		if !ok {
			continue
		}

		skills := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				skills = append(skills, s)
			}
		}

		return skills
	}

	return nil
}

func childrenOf(obj any) []any {
	for _, key := range childFields {
		if v, ok := field(obj, key); ok {
			if items, ok := v.([]any); ok {
				return items
			}
		}
	}

	return nil
}
