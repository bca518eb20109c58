// Package harness provides a conformance testing framework for the
// merge engine.
//
// Scenarios are YAML files describing seed users, batches of
// operations, and assertions over the final snapshot. Every run is
// fully deterministic: a frozen clock, a sequential id generator, and a
// scripted roulette roller replace the production sources of
// nondeterminism, so the same scenario always produces byte-identical
// results. That determinism is what makes golden-file comparison of the
// final snapshot meaningful.
//
// Unlike per-handler unit tests, scenarios exercise the full pipeline:
// batch ordering, dedup, conflict recording, and retention all run
// exactly as in production.
package harness
