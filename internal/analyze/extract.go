package analyze

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// CircularMarker is the value of the terminal leaf emitted when a document
// refers back to one of its own ancestors.
const CircularMarker = "[circular]"

// PathSeparator joins the keys of nested objects in a leaf path.
const PathSeparator = "."

// ErrCircular is reported by Validate for self-referencing documents.
var ErrCircular = errors.New("circular reference")

// LeafRecord is one terminal field of a flattened document.
type LeafRecord struct {
	// Path is the dotted key path; "" for a primitive or array root.
	Path string
	// Value is the normalised value (numbers are float64).
	Value any
	// Kind is the JSON type of Value.
	Kind Kind
}

// String returns a debug representation.
func (l LeafRecord) String() string {
	return fmt.Sprintf("%s(%s)=%v", l.Path, l.Kind, l.Value)
}

// JoinPath appends key to a dotted parent path.
func JoinPath(parent, key string) string {
	if parent == "" {
		return key
	}

	return parent + PathSeparator + key
}

// ExtractFields flattens value into leaf records.
//
// Objects are descended with dotted paths, *Object in insertion order and
// plain maps in sorted key order. Arrays are leaves. A non-object, non-null
// root yields a single leaf with an empty path; a null root yields nothing.
// Values without a JSON representation are skipped (see Validate).
func ExtractFields(value any) []LeafRecord {
	if value == nil {
		return nil
	}

	x := &extractor{ancestors: make(map[uintptr]struct{})}
	x.walk("", value, true)

	return x.leaves
}

type extractor struct {
	leaves    []LeafRecord
	ancestors map[uintptr]struct{}
}

func (x *extractor) walk(path string, value any, root bool) {
	kind, ok := KindOf(value)
	if !ok {
		return
	}

	if kind != KindObject {
		if root && kind == KindNull {
			return
		}

		x.leaves = append(x.leaves, LeafRecord{Path: path, Value: normalizeLeaf(value, kind), Kind: kind})

		return
	}

	id := identity(value)
	if _, seen := x.ancestors[id]; seen {
		x.leaves = append(x.leaves, LeafRecord{Path: path, Value: CircularMarker, Kind: KindObject})
		return
	}

	x.ancestors[id] = struct{}{}
	defer delete(x.ancestors, id)

	eachEntry(value, func(key string, child any) {
		x.walk(JoinPath(path, key), child, false)
	})
}

// eachEntry visits the entries of an object-kinded value in deterministic order.
func eachEntry(value any, fn func(key string, child any)) {
	switch obj := value.(type) {
	case *Object:
		for _, k := range obj.keys {
			fn(k, obj.values[k])
		}
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(obj)) {
			fn(k, obj[k])
		}
	default:
		rv := reflect.Indirect(reflect.ValueOf(value))
		if rv.Kind() != reflect.Map {
			return
		}

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}

		slices.Sort(keys)

		for _, k := range keys {
			fn(k, rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
		}
	}
}

// identity returns the address backing an object-kinded value.
func identity(value any) uintptr {
	return reflect.ValueOf(value).Pointer()
}

func normalizeLeaf(value any, kind Kind) any {
	switch kind {
	case KindNumber:
		f, _ := NormalizeNumber(value)
		return f
	case KindNull:
		return nil
	default:
		return value
	}
}

// Validate reports whether value is a JSON-representable document without
// cycles along any object or array path.
func Validate(value any) error {
	return validate("", value, make(map[uintptr]struct{}))
}

func validate(path string, value any, ancestors map[uintptr]struct{}) error {
	kind, ok := KindOf(value)
	if !ok {
		return fmt.Errorf("field %q: unsupported value of type %T", displayPath(path), value)
	}

	switch kind {
	case KindObject:
		id := identity(value)
		if _, seen := ancestors[id]; seen {
			return fmt.Errorf("field %q: %w", displayPath(path), ErrCircular)
		}

		ancestors[id] = struct{}{}
		defer delete(ancestors, id)

		var err error

		eachEntry(value, func(key string, child any) {
			if err == nil {
				err = validate(JoinPath(path, key), child, ancestors)
			}
		})

		return err
	case KindArray:
		rv := reflect.Indirect(reflect.ValueOf(value))

		if rv.Kind() == reflect.Slice && rv.Len() > 0 {
			id := rv.Pointer()
			if _, seen := ancestors[id]; seen {
				return fmt.Errorf("field %q: %w", displayPath(path), ErrCircular)
			}

			ancestors[id] = struct{}{}
			defer delete(ancestors, id)
		}

		for i := range rv.Len() {
			if err := validate(fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface(), ancestors); err != nil {
				return err
			}
		}

		return nil
	default:
		return nil
	}
}

func displayPath(path string) string {
	if path == "" {
		return "$"
	}

	return path
}

// Lookup resolves a dotted path inside a document. The empty path returns
// the document itself.
func Lookup(doc any, path string) (any, bool) {
	if path == "" {
		return doc, doc != nil
	}

	cur := doc

	for key := range strings.SplitSeq(path, PathSeparator) {
		switch obj := cur.(type) {
		case *Object:
			v, ok := obj.Get(key)
			if !ok {
				return nil, false
			}

			cur = v
		case map[string]any:
			v, ok := obj[key]
			if !ok {
				return nil, false
			}

			cur = v
		default:
			return nil, false
		}
	}

	return cur, true
}

// SetPath writes value at a dotted path inside dst, creating intermediate
// maps as needed. An intermediate non-map value is replaced.
func SetPath(dst map[string]any, path string, value any) {
	keys := strings.Split(path, PathSeparator)
	cur := dst

	for _, key := range keys[:len(keys)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[key] = next
		}

		cur = next
	}

	cur[keys[len(keys)-1]] = value
}
