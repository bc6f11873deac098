// Package analyze flattens JSON documents into leaf records.
//
// It builds a canonical in-memory view of a sample document that the
// rest of the engine pattern-matches on instead of probing dynamic values.
//
// Key types:
//   - Kind: tagged union tag over null/string/number/boolean/array/object
//   - LeafRecord: dotted path, normalised value and kind of one terminal field
//   - Object: JSON object that keeps key insertion order
//   - Metadata: field list, type map and time-series hints of a sample
package analyze
