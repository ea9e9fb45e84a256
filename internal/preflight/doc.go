// Package preflight provides readiness checks for the filesystem paths and
// recognition prerequisites transcribr depends on.
//
// These checks run in two contexts:
//   - `transcribr transcribe` calls RunAll before a batch and refuses to start
//     when a required check fails.
//   - `transcribr check` renders every result alongside the dependency report.
package preflight
