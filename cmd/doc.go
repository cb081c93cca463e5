// Package cmd provides the command-line interface for mimic.
//
// This package implements all CLI commands using the Cobra framework.
//
// # Available Commands
//
//   - run: propagate templates into target files (also the default)
//   - list: list templates and the files carrying their tags
//   - tags: print the tag pair of a template name
//   - watch: re-run propagation when templates change
//   - version: print build information
//
// # Command Examples
//
//	// Update the workspace in place
//	mimic --input templates --in-place
//
//	// Write updated copies to dist/ and print a JSON report
//	mimic run --input templates --output dist -f json
//
//	// Commit and push whatever changed (GitHub Actions)
//	INPUT_INPUT_FOLDER=templates INPUT_OVERWRITE_ORIGINAL=yes mimic --commit
//
// # Exit Status
//
// Configuration errors and a missing template folder stop the run before
// any file is touched and exit non-zero with a one-line message. Files
// that cannot be read or written are logged and skipped; they do not
// change the exit status.
package cmd
