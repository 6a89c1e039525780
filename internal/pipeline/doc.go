// Package pipeline is the execution engine: it binds a validated
// definition to plugin implementations and runs sources, aggregators and
// sinks over one bundle, producing a journal entry per run.
//
// Concurrency contract for concurrent stages (sources, sinks): launch all,
// join all, then decide. A non-optional failure never abandons in-flight
// siblings; every component reaches a terminal state and is recorded
// before the stage outcome is computed.
package pipeline
