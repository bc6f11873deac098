// Package predict estimates how likely an inferred field mapping is correct.
//
// The estimate is an auxiliary signal blended with raw similarity when the
// resolver ranks candidates. A Scorer always answers: the rule-based
// estimate is built in, and optional backends (a linear model loaded from
// YAML weights, or a remote HTTP scorer) are consulted first when
// configured. Backend failures, timeouts and out-of-range answers degrade
// to the rule-based estimate and are only logged.
package predict
