package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/gen"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/plan"
)

// Data-quality defaults of generated ETL configs.
const (
	completenessThreshold = 0.95
	consistencyThreshold  = 1.0
	maxStringLength       = 1000
	maxArrayItems         = 1000
)

// sampleAnalysis is what the store derives from one sample.
type sampleAnalysis struct {
	sample mapping.DataSample
	leaves []analyze.LeafRecord
}

// analysis is the full result of analysing a sample pair.
type analysis struct {
	input      sampleAnalysis
	output     sampleAnalysis
	resolution *plan.Resolution
	rules      []mapping.TransformationRule
	accuracy   float64
	transform  gen.TransformFunc
}

// checkSample rejects documents that cannot be represented as JSON.
func checkSample(name string, s mapping.DataSample) error {
	if err := analyze.Validate(s.Data); err != nil {
		return &MalformedSampleError{Sample: name, Reason: err.Error(), Err: err}
	}

	return nil
}

// describe derives schema and metadata for a sample and extracts its leaves.
func describe(s mapping.DataSample) sampleAnalysis {
	out := s.Clone()
	if out.Format == "" {
		out.Format = "json"
	}

	md := analyze.DeriveMetadata(out.Data)
	out.Metadata = &md
	out.Schema = analyze.DeriveSchema(out.Data)

	return sampleAnalysis{sample: out, leaves: analyze.ExtractFields(out.Data)}
}

// analyze runs extraction, resolution, compilation and assembly.
func (s *Store) analyze(
	ctx context.Context,
	in, out mapping.DataSample,
	model mapping.ModelConfig,
	policy mapping.ErrorPolicy,
) (*analysis, error) {
	if err := checkSample("input", in); err != nil {
		return nil, err
	}

	if err := checkSample("output", out); err != nil {
		return nil, err
	}

	a := &analysis{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.input = describe(in)
		return gctx.Err()
	})
	g.Go(func() error {
		a.output = describe(out)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolver := plan.NewResolver(s.scorerFor(model), s.opts.Resolution, s.logger)

	res, err := resolver.Resolve(ctx, a.input.leaves, a.output.leaves)
	if err != nil {
		return nil, err
	}

	a.resolution = res
	a.rules = gen.CompileRules(res.Mappings, a.input.leaves, s.opts.Compile)
	a.accuracy = accuracy(a.rules)

	a.transform, err = gen.Assemble(a.rules, policy, s.logger)
	if err != nil {
		return nil, fmt.Errorf("assembling rules: %w", err)
	}

	return a, nil
}

// accuracy is the mean rule confidence, or the default without rules.
func accuracy(rules []mapping.TransformationRule) float64 {
	if len(rules) == 0 {
		return mapping.DefaultAccuracy
	}

	var sum float64
	for _, r := range rules {
		sum += r.Confidence
	}

	return sum / float64(len(rules))
}

// reuseRuleIDs keeps the id of every rule that survived a re-analysis
// unchanged in shape, so repeated updates yield identical rules.
func reuseRuleIDs(prev, next []mapping.TransformationRule) {
	for i := range next {
		for _, p := range prev {
			if p.TargetField == next[i].TargetField && p.SourceField == next[i].SourceField && p.Type == next[i].Type {
				next[i].ID = p.ID
				break
			}
		}
	}
}

// bumpPatch increments the patch component of a major.minor.patch version.
func bumpPatch(version string) (string, error) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("version %q is not major.minor.patch", version)
	}

	patch, err := strconv.Atoi(parts[2])
	if err != nil || patch < 0 {
		return "", fmt.Errorf("version %q has an invalid patch number", version)
	}

	parts[2] = strconv.Itoa(patch + 1)

	return strings.Join(parts, "."), nil
}

// parseVersion splits a major.minor.patch version into its numbers.
func parseVersion(version string) ([3]int, error) {
	var out [3]int

	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return out, fmt.Errorf("version %q is not major.minor.patch", version)
	}

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, fmt.Errorf("version %q has an invalid component %q", version, p)
		}

		out[i] = n
	}

	return out, nil
}

// compareVersions returns -1, 0 or 1 as a is older than, equal to or newer than b.
func compareVersions(a, b string) (int, error) {
	va, err := parseVersion(a)
	if err != nil {
		return 0, err
	}

	vb, err := parseVersion(b)
	if err != nil {
		return 0, err
	}

	for i := range va {
		switch {
		case va[i] < vb[i]:
			return -1, nil
		case va[i] > vb[i]:
			return 1, nil
		}
	}

	return 0, nil
}

// etlSettings are the user-chosen parts of an ETL config.
type etlSettings struct {
	errorHandling      mapping.ErrorPolicy
	parallelProcessing bool
	checkpointInterval int
}

func settingsOf(etl *mapping.ETLConfig) etlSettings {
	if etl == nil {
		return etlSettings{
			errorHandling:      mapping.ErrorPolicyLog,
			parallelProcessing: true,
			checkpointInterval: mapping.DefaultCheckpointInterval,
		}
	}

	return etlSettings{
		errorHandling:      etl.ErrorHandling.OrDefault(),
		parallelProcessing: etl.ParallelProcessing,
		checkpointInterval: etl.CheckpointInterval,
	}
}

// buildETLConfig derives extraction and validation rules from the input sample.
func buildETLConfig(input mapping.DataSample, settings etlSettings) *mapping.ETLConfig {
	etl := &mapping.ETLConfig{
		ExtractionRules:    []mapping.ExtractionRule{},
		ErrorHandling:      settings.errorHandling,
		ParallelProcessing: settings.parallelProcessing,
		CheckpointInterval: settings.checkpointInterval,
	}

	if etl.CheckpointInterval <= 0 {
		etl.CheckpointInterval = mapping.DefaultCheckpointInterval
	}

	md := input.Metadata
	if md != nil {
		for _, field := range md.Fields {
			kind := md.Types[field]
			etl.ExtractionRules = append(etl.ExtractionRules, mapping.ExtractionRule{
				Field:      field,
				Type:       kind,
				Required:   true,
				Validation: fieldValidation(kind),
			})
		}
	}

	completeness, consistency := completenessThreshold, consistencyThreshold
	etl.ValidationRules = []mapping.ValidationRule{
		{
			Type:        mapping.ValidationCompleteness,
			Description: "Check for missing required fields",
			Threshold:   &completeness,
		},
		{
			Type:        mapping.ValidationConsistency,
			Description: "Validate data type consistency",
			Threshold:   &consistency,
		},
	}

	if md != nil && md.IsTimeSeries {
		etl.ValidationRules = append(etl.ValidationRules, mapping.ValidationRule{
			Type:        mapping.ValidationTemporalOrder,
			Description: "Ensure temporal ordering",
			Field:       md.TimeField,
		})
	}

	return etl
}

func fieldValidation(kind string) mapping.FieldValidation {
	bound := func(n int) *int { return &n }

	switch kind {
	case analyze.KindString.String():
		return mapping.FieldValidation{MinLength: bound(1), MaxLength: bound(maxStringLength)}
	case analyze.KindBoolean.String():
		return mapping.FieldValidation{Values: []bool{true, false}}
	case analyze.KindArray.String():
		return mapping.FieldValidation{MinItems: bound(0), MaxItems: bound(maxArrayItems)}
	default:
		return mapping.FieldValidation{}
	}
}
