package pipeline

import (
	"sync"
	"time"

	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

// emaWeight is the weight of the previous value in every moving average.
const emaWeight = 0.9

// Performance tracks execution metrics of one pipeline.
type Performance struct {
	// Throughput counts executed records.
	Throughput int64 `json:"throughput" yaml:"throughput"`
	// Latency is the moving average execution time.
	Latency time.Duration `json:"latency" yaml:"latency"`
	// ErrorRate is the moving average share of failed executions.
	ErrorRate float64 `json:"errorRate" yaml:"error_rate"`
	// Warnings counts field-level fallbacks across all executions.
	Warnings int64 `json:"warnings" yaml:"warnings"`
	// LastRun is the time of the latest execution.
	LastRun time.Time `json:"lastRun,omitzero" yaml:"last_run,omitempty"`
}

// performance is the mutable, lock-guarded form of Performance.
type performance struct {
	mu  sync.Mutex
	cur Performance
}

func (p *performance) record(latency time.Duration, warnings int, failed bool, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur.Throughput == 0 {
		p.cur.Latency = latency
	} else {
		p.cur.Latency = time.Duration(emaWeight*float64(p.cur.Latency) + (1-emaWeight)*float64(latency))
	}

	p.cur.ErrorRate *= emaWeight
	if failed {
		p.cur.ErrorRate += 1 - emaWeight
	}

	p.cur.Throughput++
	p.cur.Warnings += int64(warnings)
	p.cur.LastRun = at
}

func (p *performance) snapshot() Performance {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cur
}

// RuleStats summarises one rule of a pipeline.
type RuleStats struct {
	RuleID     string                `json:"ruleId" yaml:"rule_id"`
	Type       mapping.TransformKind `json:"type" yaml:"type"`
	Target     string                `json:"target" yaml:"target"`
	Prediction float64               `json:"mlScore" yaml:"ml_score"`
	Confidence float64               `json:"confidence" yaml:"confidence"`
}

// Stats is the report returned by Store.Stats.
type Stats struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Version     string      `json:"version" yaml:"version"`
	Accuracy    float64     `json:"accuracy" yaml:"accuracy"`
	Rules       []RuleStats `json:"rules" yaml:"rules"`
	Performance Performance `json:"performance" yaml:"performance"`
	CompiledAt  time.Time   `json:"compiledAt" yaml:"compiled_at"`
}

func newStats(snap *snapshot, perf Performance) Stats {
	cfg := snap.config

	rules := make([]RuleStats, 0, len(cfg.TransformationRules))
	for _, r := range cfg.TransformationRules {
		rules = append(rules, RuleStats{
			RuleID:     r.ID,
			Type:       r.Type,
			Target:     r.TargetField,
			Prediction: r.Prediction,
			Confidence: r.Confidence,
		})
	}

	return Stats{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Version:     cfg.Version,
		Accuracy:    cfg.Accuracy,
		Rules:       rules,
		Performance: perf,
		CompiledAt:  snap.compiled.CompiledAt,
	}
}
