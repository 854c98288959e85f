// Package cli locates the Claude Code CLI binary and builds its command line.
//
// Discovery searches in the following order:
//  1. Config.CliPath, exclusively, when set
//  2. $PATH
//  3. Common install locations (/usr/local/bin, /usr/bin, npm and yarn
//     global bins under the home directory)
//
// A found binary is run with -v and a version below MinimumVersion is
// logged. Set CLAUDE_CODE_SDK_SKIP_VERSION_CHECK to skip the check.
package cli
