// Package pkg provides the libraries behind vulnpack, which audits the
// JavaScript libraries detected on a website for known vulnerabilities.
//
// # Overview
//
// vulnpack takes a technology-detection report (a JSON list of technologies
// with versions, confidences and categories), keeps the JavaScript libraries
// and UI frameworks whose declared version is actually published on npm,
// writes them into a synthetic package.json and audits that manifest with
// npm. The resulting audit output is normalized into one block per
// vulnerable package.
//
// # Architecture
//
// The typical data flow:
//
//	technology report (JSON)
//	         ↓
//	    [techreport] package (decode, keep confidence 100)
//	         ↓
//	    [resolve] package (sanitize names, validate versions on npm)
//	         ↓
//	    [manifest] package (package.json)
//	         ↓
//	    [npmcli] package (lock file, install, audit)
//	         ↓
//	    [audit] package (normalized findings)
//
// [pipeline] ties these stages together and is what the CLI calls.
//
// # Quick Start
//
//	reg := npm.NewClient("", 10*time.Second)
//	tools := func(dir string) pipeline.Toolchain {
//	    return npmcli.New(dir, 5*time.Minute, logger)
//	}
//	runner := pipeline.NewRunner(reg, tools, logger)
//
//	result, err := runner.Execute(ctx, pipeline.Options{InputPath: "site.json"})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(result.Audit.Format())
//
// # Main Packages
//
// [techreport] - Decoding of technology-detection reports.
//
// [resolve] - Category filtering, npm name sanitization and version
// validation against a [resolve.Registry].
//
// [integrations/npm] - HTTP client for the npm registry. The default
// [resolve.Registry] backend.
//
// [npmcli] - Subprocess wrapper around the npm command. Runs the lock file,
// install and audit steps and can also serve as a registry backend.
//
// [manifest] - The synthetic package.json.
//
// [audit] - Line classifier and state machine that normalizes npm audit
// text output.
//
// [config] - TOML configuration with defaults.
//
// ## Supporting Packages
//
// [errors] - Structured error codes shared by all packages.
//
// [httputil] - Retry with exponential backoff.
//
// [fsutil] - Atomic file writes.
//
// [observability] - Hooks for pipeline and registry HTTP events.
//
// [buildinfo] - Version information set via ldflags.
package pkg
