// Package pipeline resolves athlete ids into classified profiles and drives
// the two scan entry points.
//
// A resolution consults the profile cache first and only fetches on a miss.
// Fetched records are written back best-effort, then every record (cached
// or not) is classified again.
//
// Two drivers share that step:
//   - Pipeline resolves an ordered id list one at a time and waits a fixed
//     interval after each live fetch. Suspicious verdicts reach the Notifier
//     as soon as they are known.
//   - BatchProcessor resolves a list of profile URLs concurrently with
//     errgroup and keeps results in input order.
//
// Orchestrator wires the crawler, both drivers, the viewer lookup and the
// scan history into the "scan my followers" and "scan these profiles"
// operations. Each run is bracketed by a Session, which is created when
// the scan starts and turned into a model.ScanSummary when it ends.
package pipeline
