// Package orchestrator drives end-to-end ranking runs for a session.
//
// A run sequences six stages (initialization, classification, vector
// generation, storage, matching, result generation), fans matching out over
// a batch executor, and reports progress to the session's tracker and event
// bus. Sessions live in an explicitly owned Registry.
package orchestrator
