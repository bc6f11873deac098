// Package pipeline owns named pipelines and their compiled transforms.
//
// A Store keeps, per pipeline id, the persisted PipelineConfig and the
// CompiledPipeline built from its rules. Both are published together through
// one atomic pointer, so readers never observe a config next to a stale
// transform.
//
// Lifecycle of an id:
//
//	nonexistent -> created -> (executing | updating)* -> created
//
// Create and Update run the full analysis (extract, resolve, compile,
// assemble) and commit all or nothing. Execute only calls the cached
// transform: no inference, no I/O.
package pipeline
