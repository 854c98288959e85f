package claudecode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		is   error
	}{
		{name: "not found", err: &CLINotFoundError{SearchedPaths: []string{"$PATH"}}, is: ErrCLINotFound},
		{name: "connection", err: &CLIConnectionError{Err: ErrTransportClosed}, is: ErrTransportClosed},
		{name: "json decode", err: &CLIJSONDecodeError{RawData: "{", Err: errors.New("eof")}, is: ErrDecode},
		{name: "message parse", err: &MessageParseError{Message: "unknown"}, is: ErrDecode},
		{name: "sdk", err: &SDKError{Message: "validate options", Err: ErrInvalidOptions}, is: ErrInvalidOptions},
		{name: "process", err: &ProcessError{ExitCode: 1, Stderr: "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("query: %w", tt.err)

			sdkErr, ok := errors.AsType[ClaudeSDKError](wrapped)
			require.True(t, ok)
			require.True(t, sdkErr.IsClaudeSDKError())

			if tt.is != nil {
				require.ErrorIs(t, wrapped, tt.is)
			}
		})
	}
}

func TestProcessError_ExitCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("receive: %w", &ProcessError{ExitCode: 2, Stderr: "fatal: bad flag"})

	procErr, ok := errors.AsType[*ProcessError](err)
	require.True(t, ok)
	require.Equal(t, 2, procErr.ExitCode)
	require.Contains(t, err.Error(), "fatal: bad flag")
}
