// Package match scores how well an input leaf corresponds to an output leaf.
//
// Key functions:
//   - Levenshtein / NameSimilarity: edit-distance similarity of leaf paths
//   - KindCompatibility: conversion score for a pair of JSON kinds
//   - ValueSimilarity: value-pattern score (containment, numeric ratio)
//   - Score: weighted blend of the three
//   - NormalizeIdent / TokenizeIdent: identifier normalization for ranking
//   - RankCandidates: ranks input leaves for an output leaf
package match
