// Package internal contains the implementation packages of the mimic CLI.
//
// # Package Organization
//
//   - config: configuration loading (viper) and validation
//   - errors: structured errors and error collection
//   - logging: structured logging over log/slog
//   - tags: template name to start/end tag pair
//   - region: replacement of a tagged region inside target content
//   - selector: lazy directory walks with extension and exclusion rules
//   - mirror: copy of the workspace's target files into an output tree
//   - propagate: the per-template propagation loop and the run pipeline
//   - vcs: staging, committing and pushing modified files with git
//   - watcher: fsnotify based re-runs when templates change
//   - version: build information
//
// # Run Pipeline
//
// A run loads the templates of the input folder, mirrors the workspace
// into the output folder when not writing in place, and then applies the
// templates one after another. Each template re-walks the target tree, so
// it sees the writes of the templates before it.
package internal
