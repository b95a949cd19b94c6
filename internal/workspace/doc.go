// Package workspace models the output tree and the staging directory contract.
//
// The staging directory holds the generated entry artifact together with the
// staged modular sources. Every modular file lands at a path derived only from
// its logical identity, so the generated entry can reference it by relative
// module path on every run. Both trees are owned by the run that is currently
// executing and are recreated by each full build.
package workspace
