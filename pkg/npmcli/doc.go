// Package npmcli wraps the npm command line as black-box subprocess
// contracts.
//
// [Run] executes a process and captures its output. [NPM] builds on it to
// generate a lock file, install, audit and query the registry. Exit-code
// semantics follow npm: a failed lock-file generation is fatal, a failed
// install is a warning and a non-zero audit exit only means vulnerabilities
// were found.
//
// [NPM] also satisfies [resolve.Registry] through "npm info" and
// "npm view <name> versions --json", so a run can validate candidates with
// the same npm configuration the install will use.
package npmcli
