package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/workflow-builder/nodeq-mindmap/internal/diagnostic"
	"github.com/workflow-builder/nodeq-mindmap/internal/gen"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
	"github.com/workflow-builder/nodeq-mindmap/internal/plan"
	"github.com/workflow-builder/nodeq-mindmap/internal/predict"
	"github.com/workflow-builder/nodeq-mindmap/internal/source"
)

// IDPrefix starts every generated pipeline id.
const IDPrefix = "pipeline_"

// Repository persists pipeline configs. Implementations must be safe for
// concurrent use.
type Repository interface {
	Save(ctx context.Context, cfg *mapping.PipelineConfig) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*mapping.PipelineConfig, error)
}

// Options configures a Store.
type Options struct {
	Resolution plan.ResolutionConfig
	Compile    gen.CompileOptions
	// Model is used by Create when the caller supplies no model config.
	Model mapping.ModelConfig
	// ErrorHandling is the policy of new pipelines.
	ErrorHandling mapping.ErrorPolicy
	// Repository, when set, receives every committed config.
	Repository Repository
	// Now returns the current time.
	Now func() time.Time
}

// DefaultOptions returns in-memory options with rule-based scoring.
func DefaultOptions() Options {
	return Options{
		Resolution:    plan.DefaultConfig(),
		Compile:       gen.DefaultCompileOptions(),
		Model:         mapping.ModelConfig{Type: predict.TypeBuiltIn},
		ErrorHandling: mapping.ErrorPolicyLog,
		Now:           time.Now,
	}
}

// CreateOptions carries the optional settings of a new pipeline.
type CreateOptions struct {
	ModelConfig        *mapping.ModelConfig
	DataSources        []mapping.DataSourceConfig
	ErrorHandling      mapping.ErrorPolicy
	ParallelProcessing *bool
	CheckpointInterval int
}

// CompiledPipeline is the executable form of a pipeline config.
type CompiledPipeline struct {
	ID         string
	Version    string
	Transform  gen.TransformFunc
	CompiledAt time.Time
}

// snapshot pairs a config with the transform compiled from its rules.
type snapshot struct {
	config   mapping.PipelineConfig
	compiled *CompiledPipeline
}

type entry struct {
	// update serialises Create/Update/Restore of one id.
	update  sync.Mutex
	current atomic.Pointer[snapshot]
	perf    performance
}

// Store owns all pipelines of a process. It is safe for concurrent use.
type Store struct {
	opts   Options
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	scorers sync.Map // mapping.ModelConfig -> *predict.Scorer
}

// NewStore creates an empty Store.
func NewStore(opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultOptions()
	if opts.Resolution.Floor <= 0 {
		opts.Resolution.Floor = def.Resolution.Floor
	}

	if opts.Compile.ComparisonThreshold == 0 && opts.Compile.NewID == nil {
		opts.Compile = def.Compile
	}

	if opts.Model.Type == "" {
		opts.Model = def.Model
	}

	opts.ErrorHandling = opts.ErrorHandling.OrDefault()

	if opts.Now == nil {
		opts.Now = def.Now
	}

	return &Store{
		opts:    opts,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

func (s *Store) scorerFor(model mapping.ModelConfig) *predict.Scorer {
	if v, ok := s.scorers.Load(model); ok {
		return v.(*predict.Scorer)
	}

	v, _ := s.scorers.LoadOrStore(model, predict.New(model, s.logger))

	return v.(*predict.Scorer)
}

// Create analyses a sample pair and registers a new pipeline.
func (s *Store) Create(ctx context.Context, name string, in, out mapping.DataSample, opts CreateOptions) (mapping.PipelineConfig, error) {
	model := s.opts.Model
	if opts.ModelConfig != nil {
		model = *opts.ModelConfig
	}

	settings := etlSettings{
		errorHandling:      s.opts.ErrorHandling,
		parallelProcessing: true,
		checkpointInterval: opts.CheckpointInterval,
	}

	if opts.ErrorHandling != "" {
		if !opts.ErrorHandling.Valid() {
			return mapping.PipelineConfig{}, fmt.Errorf("unknown error handling policy %q", opts.ErrorHandling)
		}

		settings.errorHandling = opts.ErrorHandling
	}

	if opts.ParallelProcessing != nil {
		settings.parallelProcessing = *opts.ParallelProcessing
	}

	if err := s.checkSources(ctx, opts.DataSources); err != nil {
		return mapping.PipelineConfig{}, err
	}

	a, err := s.analyze(ctx, in, out, model, settings.errorHandling)
	if err != nil {
		return mapping.PipelineConfig{}, err
	}

	now := s.opts.Now()
	cfg := mapping.PipelineConfig{
		ID:                  IDPrefix + uuid.NewString(),
		Name:                name,
		InputSample:         a.input.sample,
		OutputSample:        a.output.sample,
		TransformationRules: a.rules,
		Accuracy:            a.accuracy,
		Version:             mapping.InitialVersion,
		CreatedAt:           now,
		UpdatedAt:           now,
		ModelConfig:         model,
		DataSources:         opts.DataSources,
		ETLConfig:           buildETLConfig(a.input.sample, settings),
	}

	if err := ctx.Err(); err != nil {
		return mapping.PipelineConfig{}, err
	}

	if err := s.persist(ctx, &cfg); err != nil {
		return mapping.PipelineConfig{}, err
	}

	e := &entry{}
	e.current.Store(s.newSnapshot(cfg, a.transform))

	s.mu.Lock()
	s.entries[cfg.ID] = e
	s.order = append(s.order, cfg.ID)
	s.mu.Unlock()

	s.review("pipeline.create", &cfg, a.resolution, "name", cfg.Name)

	return cfg.Clone(), nil
}

// checkSources connects every configured source once and closes it again,
// so a pipeline is never registered with an unreachable source.
func (s *Store) checkSources(ctx context.Context, configs []mapping.DataSourceConfig) error {
	if len(configs) == 0 {
		return nil
	}

	connectors, err := source.Open(ctx, configs, s.logger)
	if err != nil {
		return fmt.Errorf("checking data sources: %w", err)
	}

	source.CloseAll(connectors, s.logger)

	s.logger.Debug("pipeline.sources_checked", "sources", len(connectors))

	return nil
}

// Update re-analyses a pipeline. A nil sample keeps the stored one.
func (s *Store) Update(ctx context.Context, id string, in, out *mapping.DataSample) (mapping.PipelineConfig, error) {
	e, err := s.entry(id)
	if err != nil {
		return mapping.PipelineConfig{}, err
	}

	e.update.Lock()
	defer e.update.Unlock()

	prev := e.current.Load().config

	input, output := prev.InputSample, prev.OutputSample
	if in != nil {
		input = *in
	}

	if out != nil {
		output = *out
	}

	settings := settingsOf(prev.ETLConfig)

	a, err := s.analyze(ctx, input, output, prev.ModelConfig, settings.errorHandling)
	if err != nil {
		return mapping.PipelineConfig{}, err
	}

	reuseRuleIDs(prev.TransformationRules, a.rules)

	version, err := bumpPatch(prev.Version)
	if err != nil {
		return mapping.PipelineConfig{}, err
	}

	cfg := prev.Clone()
	cfg.InputSample = a.input.sample
	cfg.OutputSample = a.output.sample
	cfg.TransformationRules = a.rules
	cfg.Accuracy = a.accuracy
	cfg.Version = version
	cfg.UpdatedAt = s.opts.Now()
	cfg.ETLConfig = buildETLConfig(a.input.sample, settings)

	if err := ctx.Err(); err != nil {
		return mapping.PipelineConfig{}, err
	}

	// A concurrent Remove wins over this update.
	if _, err := s.entry(id); err != nil {
		return mapping.PipelineConfig{}, err
	}

	if err := s.persist(ctx, &cfg); err != nil {
		return mapping.PipelineConfig{}, err
	}

	e.current.Store(s.newSnapshot(cfg, a.transform))

	s.review("pipeline.update", &cfg, a.resolution, "version", cfg.Version)

	return cfg.Clone(), nil
}

// review merges the resolver's diagnostics with a validation of the
// committed config and logs the outcome under event.
func (s *Store) review(event string, cfg *mapping.PipelineConfig, res *plan.Resolution, attrs ...any) diagnostic.Diagnostics {
	var diags diagnostic.Diagnostics

	diags.Merge(res.Diagnostics)
	diags.Merge(*mapping.Validate(cfg))

	for _, d := range diags.Errors {
		s.logger.Warn(event+".invalid", "id", cfg.ID, "diagnostic", d.String())
	}

	for _, d := range diags.Warnings {
		s.logger.Debug(event+".warning", "id", cfg.ID, "diagnostic", d.String())
	}

	s.logger.Info(event, append([]any{
		"id", cfg.ID,
		"rules", len(cfg.TransformationRules),
		"unmapped", len(diags.WithCode(plan.CodeUnmappedField)),
		"warnings", len(diags.Warnings),
		"accuracy", cfg.Accuracy,
	}, attrs...)...)

	return diags
}

// Execute runs the compiled transform of a pipeline on one record.
func (s *Store) Execute(id string, record any) (map[string]any, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	snap := e.current.Load()
	start := s.opts.Now()

	out, warnings, err := snap.compiled.Transform(record)

	e.perf.record(s.opts.Now().Sub(start), len(warnings), err != nil, start)

	if err != nil {
		return nil, fmt.Errorf("executing pipeline %s: %w", id, err)
	}

	return out, nil
}

// Get returns a copy of the config of id.
func (s *Store) Get(id string) (mapping.PipelineConfig, bool) {
	e, err := s.entry(id)
	if err != nil {
		return mapping.PipelineConfig{}, false
	}

	return e.current.Load().config.Clone(), true
}

// GetStrict is Get with a NotFoundError for unknown ids.
func (s *Store) GetStrict(id string) (mapping.PipelineConfig, error) {
	cfg, ok := s.Get(id)
	if !ok {
		return mapping.PipelineConfig{}, &NotFoundError{ID: id}
	}

	return cfg, nil
}

// Compiled returns the compiled form of id.
func (s *Store) Compiled(id string) (*CompiledPipeline, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	return e.current.Load().compiled, nil
}

// All returns every config in insertion order.
func (s *Store) All() []mapping.PipelineConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]mapping.PipelineConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].current.Load().config.Clone())
	}

	return out
}

// Len returns the number of pipelines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Remove deletes a pipeline from the store and its repository.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()

	if _, ok := s.entries[id]; !ok {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}

	delete(s.entries, id)

	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.mu.Unlock()

	if s.opts.Repository != nil {
		if err := s.opts.Repository.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting pipeline %s: %w", id, err)
		}
	}

	s.logger.Info("pipeline.remove", "id", id)

	return nil
}

// Restore registers a persisted config without re-analysing its samples.
// An existing entry with the same id is replaced unless the restored
// version is older, which fails with ErrStaleVersion.
func (s *Store) Restore(cfg mapping.PipelineConfig) error {
	cfg = cfg.Clone()

	if diags := mapping.Validate(&cfg); diags.HasErrors() {
		return fmt.Errorf("restoring pipeline %s: %w", cfg.ID, diags.Error())
	}

	policy := settingsOf(cfg.ETLConfig).errorHandling

	transform, err := gen.Assemble(cfg.TransformationRules, policy, s.logger)
	if err != nil {
		return fmt.Errorf("restoring pipeline %s: %w", cfg.ID, err)
	}

	snap := s.newSnapshot(cfg, transform)

	s.mu.Lock()

	e, ok := s.entries[cfg.ID]
	if !ok {
		e = &entry{}
		e.current.Store(snap)
		s.entries[cfg.ID] = e
		s.order = append(s.order, cfg.ID)
		s.mu.Unlock()

		s.logger.Debug("pipeline.restore", "id", cfg.ID, "version", cfg.Version)

		return nil
	}

	s.mu.Unlock()

	e.update.Lock()
	defer e.update.Unlock()

	current := e.current.Load().config.Version

	cmp, err := compareVersions(cfg.Version, current)
	if err != nil {
		return fmt.Errorf("restoring pipeline %s: %w", cfg.ID, err)
	}

	if cmp < 0 {
		return fmt.Errorf("restoring pipeline %s: version %s is older than %s: %w",
			cfg.ID, cfg.Version, current, ErrStaleVersion)
	}

	e.current.Store(snap)

	s.logger.Debug("pipeline.restore", "id", cfg.ID, "version", cfg.Version, "replaced", true)

	return nil
}

// Load restores every config held by the repository. Configs that fail to
// restore are logged and skipped; the number restored is returned.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.opts.Repository == nil {
		return 0, nil
	}

	configs, err := s.opts.Repository.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pipelines: %w", err)
	}

	n := 0

	for _, cfg := range configs {
		if err := s.Restore(*cfg); err != nil {
			s.logger.Warn("pipeline.restore_failed", "id", cfg.ID, "error", err)
			continue
		}

		n++
	}

	return n, nil
}

// Preview runs the analysis Create would run and reports the resolved and
// unmapped fields. Nothing is registered or persisted.
func (s *Store) Preview(ctx context.Context, in, out mapping.DataSample) (*plan.Report, error) {
	a, err := s.analyze(ctx, in, out, s.opts.Model, s.opts.ErrorHandling.OrDefault())
	if err != nil {
		return nil, err
	}

	return plan.GenerateReport(a.resolution), nil
}

// GenerateCode exports the rules of id as standalone source.
func (s *Store) GenerateCode(id string, config gen.ExportConfig) (*gen.GeneratedFile, error) {
	cfg, err := s.GetStrict(id)
	if err != nil {
		return nil, err
	}

	return gen.ExportCode(cfg.Name, cfg.TransformationRules, config)
}

// Stats reports rule scores and execution metrics of id.
func (s *Store) Stats(id string) (Stats, error) {
	e, err := s.entry(id)
	if err != nil {
		return Stats{}, err
	}

	return newStats(e.current.Load(), e.perf.snapshot()), nil
}

func (s *Store) entry(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	return e, nil
}

func (s *Store) newSnapshot(cfg mapping.PipelineConfig, transform gen.TransformFunc) *snapshot {
	return &snapshot{
		config: cfg,
		compiled: &CompiledPipeline{
			ID:         cfg.ID,
			Version:    cfg.Version,
			Transform:  transform,
			CompiledAt: s.opts.Now(),
		},
	}
}

func (s *Store) persist(ctx context.Context, cfg *mapping.PipelineConfig) error {
	if s.opts.Repository == nil {
		return nil
	}

	if err := s.opts.Repository.Save(ctx, cfg); err != nil {
		return fmt.Errorf("saving pipeline %s: %w", cfg.ID, err)
	}

	return nil
}
