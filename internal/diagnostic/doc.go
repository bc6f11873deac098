// Package diagnostic provides structured warnings, errors, and
// explanations collected while a pipeline is analysed or validated.
//
// Key capabilities:
//   - Unmapped output field warnings with ranked candidates
//   - Scoring backend degradation notices
//   - Structural validation errors of persisted configs
package diagnostic
