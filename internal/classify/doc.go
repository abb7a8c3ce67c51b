// Package classify scores a profile record against a fixed set of
// heuristics for automated or fake accounts.
//
// Classification is a pure function of the record and the evaluation
// instant. Verdicts are recomputed on every resolution and never stored.
package classify
