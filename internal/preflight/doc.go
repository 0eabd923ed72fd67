// Package preflight provides readiness checks for the programs, paths and
// storage gale8 depends on.
//
// These checks run in two contexts:
//   - "gale8 doctor" runs RunAll and prints every result.
//   - detect and assemble run RunAll before starting and refuse to continue
//     when a required check fails, rather than failing on every recording.
package preflight
