// Package build runs named pipeline operations against a loaded configuration.
//
// An Executor owns the collaborators (linter, bundler, style compiler) and
// serializes runs: concurrent callers queue on a run lock, so two runs never
// touch the output tree at the same time. Each run gets a fresh RunState and
// RunReport; stages are executed by stages.RunStages, which stops at the
// first fatal stage error.
package build
