//go:build integration

// Package integration runs the SDK against a real claude CLI. Tests skip
// when the CLI is not installed.
package integration

import (
	"errors"
	"strings"
	"testing"

	claudecode "github.com/codegen-sh/claude-code-sdk-go"
)

func skipIfCLINotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*claudecode.CLINotFoundError](err); ok {
		t.Skip("Claude CLI not installed")
	}
}

// contains4 checks for the answer to 2+2 in the usual spellings.
func contains4(s string) bool {
	lower := strings.ToLower(s)

	return strings.Contains(lower, "4") || strings.Contains(lower, "four")
}
