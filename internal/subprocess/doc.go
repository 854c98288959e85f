// Package subprocess provides the default transport, which runs the claude
// CLI as a child process and speaks newline-delimited JSON over its stdin and
// stdout.
package subprocess
