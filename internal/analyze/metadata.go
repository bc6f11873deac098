package analyze

import "strings"

// timeTokens mark a field as carrying a timestamp.
var timeTokens = []string{"timestamp", "date", "time", "created_at", "updated_at"}

// Metadata summarises a sample document.
type Metadata struct {
	// Fields lists every key path, intermediate objects included, in document order.
	Fields []string `json:"fields" yaml:"fields"`
	// Types maps each entry of Fields to its kind name.
	Types map[string]string `json:"types" yaml:"types"`
	// IsTimeSeries is set when some field name looks like a timestamp.
	IsTimeSeries bool `json:"isTimeSeries" yaml:"is_time_series"`
	// TimeField is the first timestamp-like field.
	TimeField string `json:"timeField,omitempty" yaml:"time_field,omitempty"`
	// QualityScore is the share of leaves holding a non-null value.
	QualityScore float64 `json:"qualityScore" yaml:"quality_score"`
}

// Schema maps leaf paths to kind names.
type Schema map[string]string

// DeriveSchema returns the leaf schema of a document.
func DeriveSchema(value any) Schema {
	leaves := ExtractFields(value)
	schema := make(Schema, len(leaves))

	for _, leaf := range leaves {
		schema[leaf.Path] = leaf.Kind.String()
	}

	return schema
}

// DeriveMetadata computes Metadata for a document.
func DeriveMetadata(value any) Metadata {
	md := Metadata{Types: make(map[string]string)}

	collectFields(&md, "", value, make(map[uintptr]struct{}))

	for _, f := range md.Fields {
		if IsTimeField(f) {
			md.IsTimeSeries = true
			md.TimeField = f

			break
		}
	}

	leaves := ExtractFields(value)
	if len(leaves) > 0 {
		filled := 0

		for _, leaf := range leaves {
			if leaf.Kind != KindNull {
				filled++
			}
		}

		md.QualityScore = float64(filled) / float64(len(leaves))
	}

	return md
}

func collectFields(md *Metadata, path string, value any, ancestors map[uintptr]struct{}) {
	kind, ok := KindOf(value)
	if !ok || kind != KindObject {
		return
	}

	id := identity(value)
	if _, seen := ancestors[id]; seen {
		return
	}

	ancestors[id] = struct{}{}
	defer delete(ancestors, id)

	eachEntry(value, func(key string, child any) {
		childPath := JoinPath(path, key)
		childKind, _ := KindOf(child)

		md.Fields = append(md.Fields, childPath)
		md.Types[childPath] = childKind.String()

		collectFields(md, childPath, child, ancestors)
	})
}

// IsTimeField reports whether a field path names a timestamp.
func IsTimeField(path string) bool {
	lower := strings.ToLower(path)
	for _, token := range timeTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}

	return false
}
