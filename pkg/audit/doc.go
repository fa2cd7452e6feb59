// Package audit normalizes the free-text output of "npm audit".
//
// The report format belongs to npm and is not versioned, so parsing is a
// tagged-line classifier feeding a two-state machine rather than a single
// regular expression. Each line is classified by [Markers] and then handled
// by the first matching rule:
//
//  1. header: dropped
//  2. severity-count summary: recorded, parsing stops
//  3. blank: kept as a separator inside an open finding, otherwise dropped
//  4. noise (fix and install notices, node_modules paths): dropped
//  5. unindented line with an internal double space: opens a new [Finding]
//  6. advisory link: appended to the open finding
//  7. severity line: sets the open finding's severity
//  8. anything else: appended to the open finding's details
//
// Unrecognised input produces fewer findings, never an error.
// [Summary.Format] renders the filtered report written to audit-report.txt.
package audit
