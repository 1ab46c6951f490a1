// Package preflight provides readiness checks for the external tools,
// directories and services crosstalk depends on.
//
// `crosstalk check` prints every result as a table. The run command calls
// RunAll with SkipLLM when commentary comes from a saved JSON file, and
// aborts before any paid API call when a required check fails.
package preflight
