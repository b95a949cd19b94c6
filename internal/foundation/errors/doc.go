// Package errors classifies assetbuilder failures.
//
// A ClassifiedError carries a category, which selects the issue code and the
// process exit code, a severity, a retry strategy and structured context such
// as the source location, the reporting tool and the lint rule. Errors are
// assembled with ErrorBuilder:
//
//	err := errors.BundleError(`Could not resolve "./a"`).
//		WithLocation("output/generated/index.js", 3, 9).
//		Build()
//
// CLIErrorAdapter renders errors for the terminal and maps them to exit codes.
package errors
