package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"text/template"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/common"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// Format selects the language of exported code.
type Format string

const (
	FormatGo Format = "go"
	FormatJS Format = "js"
)

// ParseFormat validates a format name. The empty string means Go.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatGo:
		return FormatGo, nil
	case FormatJS, "javascript":
		return FormatJS, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want go or js)", s)
	}
}

// ExportConfig holds configuration for code export.
type ExportConfig struct {
	Format Format
	// PackageName is the package clause of Go output.
	PackageName string
	// OutputDir receives an unformatted sidecar when Go formatting fails.
	OutputDir string
}

// DefaultExportConfig returns the default export configuration.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{Format: FormatGo, PackageName: "transforms"}
}

// GeneratedFile represents an exported source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "user-profile_transform.go").
	Filename string
	// Content is the source code.
	Content []byte
}

// exportData holds all data needed for the export templates.
type exportData struct {
	PackageName string
	Name        string
	FuncName    string
	Prefix      string
	Steps       []exportStep
}

type exportStep struct {
	Comment string
	Body    string
}

// ExportCode renders rules as a standalone function named after the
// pipeline. The output is independent of the in-memory TransformFunc.
func ExportCode(name string, rules []mapping.TransformationRule, config ExportConfig) (*GeneratedFile, error) {
	if config.PackageName == "" {
		config.PackageName = DefaultExportConfig().PackageName
	}

	ident := common.GoIdent(name)
	data := &exportData{
		PackageName: config.PackageName,
		Name:        name,
		FuncName:    "Transform" + ident,
		Prefix:      "transform" + ident,
	}

	switch config.Format {
	case "", FormatGo:
		for _, r := range rules {
			data.Steps = append(data.Steps, exportStep{Comment: r.Describe(), Body: goStep(data.Prefix, r)})
		}

		return renderGo(data, config)
	case FormatJS:
		data.FuncName = data.Prefix

		for _, r := range rules {
			data.Steps = append(data.Steps, exportStep{Comment: r.Describe(), Body: jsStep(r)})
		}

		var buf bytes.Buffer
		if err := jsTemplate.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("executing template: %w", err)
		}

		return &GeneratedFile{Filename: common.Slug(name) + "-transform.js", Content: buf.Bytes()}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", config.Format)
	}
}

func renderGo(data *exportData, config ExportConfig) (*GeneratedFile, error) {
	filename := strings.ReplaceAll(common.Slug(data.Name), "-", "_") + "_transform.go"

	var buf bytes.Buffer
	if err := goTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		if config.OutputDir != "" {
			_ = writeDebugUnformatted(config.OutputDir, filename, buf.Bytes())
		}

		return &GeneratedFile{Filename: filename, Content: buf.Bytes()}, fmt.Errorf("formatting code: %w", err)
	}

	return &GeneratedFile{Filename: filename, Content: formatted}, nil
}

func goStep(p string, r mapping.TransformationRule) string {
	src, dst := strconv.Quote(r.SourceField), strconv.Quote(r.TargetField)

	switch r.Type {
	case mapping.TransformConcat:
		if len(r.Parts) == 0 {
			return fmt.Sprintf("%sSet(result, %s, %sStr(data, %s))", p, dst, p, src)
		}

		exprs := make([]string, 0, len(r.Parts))
		for _, part := range r.Parts {
			if part.IsField() {
				exprs = append(exprs, fmt.Sprintf("%sStr(data, %s)", p, strconv.Quote(part.Field)))
			} else {
				exprs = append(exprs, strconv.Quote(part.Literal))
			}
		}

		return fmt.Sprintf("%sSet(result, %s, %s)", p, dst, strings.Join(exprs, "+"))
	case mapping.TransformComparison:
		op, threshold := comparisonParams(r)

		return fmt.Sprintf("{\nn, ok := %sNumberAt(data, %s)\n%sSet(result, %s, ok && n %s %s)\n}",
			p, src, p, dst, op, strconv.FormatFloat(threshold, 'f', -1, 64))
	case mapping.TransformTypecast:
		switch r.TargetKind {
		case analyze.KindString.String():
			return fmt.Sprintf("if v, ok := %sLookup(data, %s); ok && v != nil {\n%sSet(result, %s, %sString(v))\n}",
				p, src, p, dst, p)
		case analyze.KindNumber.String():
			return fmt.Sprintf("if n, ok := %sNumberAt(data, %s); ok {\n%sSet(result, %s, n)\n}", p, src, p, dst)
		case analyze.KindBoolean.String():
			return fmt.Sprintf("if v, ok := %sLookup(data, %s); ok {\nif b, ok := %sBool(v); ok {\n%sSet(result, %s, b)\n}\n}",
				p, src, p, p, dst)
		}
	case mapping.TransformMap, mapping.TransformCustom:
	}

	return fmt.Sprintf("if v, ok := %sLookup(data, %s); ok {\n%sSet(result, %s, v)\n}", p, src, p, dst)
}

func jsStep(r mapping.TransformationRule) string {
	src, dst := strconv.Quote(r.SourceField), strconv.Quote(r.TargetField)

	switch r.Type {
	case mapping.TransformConcat:
		if len(r.Parts) == 0 {
			return fmt.Sprintf("set(result, %s, str(get(data, %s)));", dst, src)
		}

		exprs := make([]string, 0, len(r.Parts))
		for _, part := range r.Parts {
			if part.IsField() {
				exprs = append(exprs, fmt.Sprintf("str(get(data, %s))", strconv.Quote(part.Field)))
			} else {
				exprs = append(exprs, strconv.Quote(part.Literal))
			}
		}

		return fmt.Sprintf("set(result, %s, %s);", dst, strings.Join(exprs, " + "))
	case mapping.TransformComparison:
		op, threshold := comparisonParams(r)

		return fmt.Sprintf("{ const n = num(get(data, %s)); set(result, %s, n !== undefined && n %s %s); }",
			src, dst, op, strconv.FormatFloat(threshold, 'f', -1, 64))
	case mapping.TransformTypecast:
		switch r.TargetKind {
		case analyze.KindString.String():
			return fmt.Sprintf("{ const v = get(data, %s); if (v != null) set(result, %s, String(v)); }", src, dst)
		case analyze.KindNumber.String():
			return fmt.Sprintf("{ const n = num(get(data, %s)); if (n !== undefined) set(result, %s, n); }", src, dst)
		case analyze.KindBoolean.String():
			return fmt.Sprintf("{ const v = get(data, %s); if (v != null) set(result, %s, bool(v)); }", src, dst)
		}
	case mapping.TransformMap, mapping.TransformCustom:
	}

	return fmt.Sprintf("{ const v = get(data, %s); if (v !== undefined) set(result, %s, v); }", src, dst)
}

var goTemplate = template.Must(template.New("go").Parse(`// Code generated by nodeq-mindmap. DO NOT EDIT.

package {{.PackageName}}

import (
	"fmt"
	"strconv"
	"strings"
)

// {{.FuncName}} applies the rules of pipeline {{printf "%q" .Name}}.
func {{.FuncName}}(data map[string]any) map[string]any {
	result := make(map[string]any)
{{range .Steps}}
	// {{.Comment}}
	{{.Body}}
{{end}}
	return result
}

func {{.Prefix}}Lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return data, true
	}

	var cur any = data

	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}

	return cur, true
}

func {{.Prefix}}Set(result map[string]any, path string, value any) {
	keys := strings.Split(path, ".")

	for _, key := range keys[:len(keys)-1] {
		next, ok := result[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			result[key] = next
		}

		result = next
	}

	result[keys[len(keys)-1]] = value
}

func {{.Prefix}}String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func {{.Prefix}}Str(data map[string]any, path string) string {
	v, _ := {{.Prefix}}Lookup(data, path)
	return {{.Prefix}}String(v)
}

func {{.Prefix}}NumberAt(data map[string]any, path string) (float64, bool) {
	v, ok := {{.Prefix}}Lookup(data, path)
	if !ok {
		return 0, false
	}

	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}

func {{.Prefix}}Bool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b, true
		}

		return t != "", true
	default:
		return false, false
	}
}
`))

var jsTemplate = template.Must(template.New("js").Parse(`// Generated by nodeq-mindmap from pipeline {{printf "%q" .Name}}.
function {{.FuncName}}(data) {
  const get = (obj, path) => path === '' ? obj : path.split('.').reduce((cur, key) => (cur == null ? undefined : cur[key]), obj);
  const set = (obj, path, value) => {
    const keys = path.split('.');
    const last = keys.pop();
    for (const key of keys) {
      if (typeof obj[key] !== 'object' || obj[key] === null) obj[key] = {};
      obj = obj[key];
    }
    obj[last] = value;
  };
  const str = (v) => (v == null ? '' : String(v));
  const num = (v) => {
    if (typeof v === 'number') return v;
    if (typeof v === 'boolean') return v ? 1 : 0;
    if (typeof v === 'string' && v.trim() !== '' && !isNaN(Number(v))) return Number(v);
    return undefined;
  };
  const bool = (v) => {
    if (typeof v === 'string') {
      const t = v.trim().toLowerCase();
      if (t === 'true' || t === '1') return true;
      if (t === 'false' || t === '0') return false;
      return v !== '';
    }
    return Boolean(v);
  };

  const result = {};
{{range .Steps}}  // {{.Comment}}
  {{.Body}}
{{end}}  return result;
}
`))
