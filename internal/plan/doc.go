// Package plan decides which input leaf feeds each output leaf.
//
// Resolution pipeline:
//  1. Extract leaves from both samples (package analyze)
//  2. For every output leaf, scan all input leaves:
//     - classify the pair (map, concat, comparison, typecast, custom)
//     - blend the raw similarity with the scorer's prediction
//  3. Keep the strictly best candidate above the confidence floor
//  4. Report the remaining output leaves as unmapped, with suggestions
//
// Matching is greedy per output leaf. Two outputs may share one input and
// some inputs may stay unused.
package plan
