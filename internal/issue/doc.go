// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error context for the build pipeline.
//
// Two layers live here:
//
//   - ActionableError / ErrorContext: structured errors carrying the failed
//     operation, the resource involved, and fix suggestions, built fluently
//     at the point of failure and rendered by the CLI layer.
//   - Issue: markdown "known issue" pages for recurring failures (missing
//     plugins root, malformed descriptor, frontend tool not installed,
//     unreachable reload server), rendered with glamour for the terminal.
package issue
