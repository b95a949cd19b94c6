// Package git reads source-tree metadata (the checked out commit) that runs
// stamp into their report and bundle banner.
package git
