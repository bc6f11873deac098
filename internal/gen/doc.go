// Package gen turns resolved field mappings into executable rules.
//
// Three stages:
//   - CompileRules: one TransformationRule per mapping, with the parameters
//     (concat template, comparison threshold, typecast kind) inferred from
//     the samples and a readable Logic expression
//   - Assemble: builds a TransformFunc once from the rules; executing it does
//     no I/O and no scoring
//   - ExportCode: renders the rules as standalone Go or JavaScript source with
//     text/template, Go output formatted by go/format
//
// A rule whose source field is missing at execution time affects only its own
// target field. The ErrorPolicy decides whether that is logged, ignored or
// returned as an error.
package gen
