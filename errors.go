package claudecode

import "github.com/codegen-sh/claude-code-sdk-go/internal/errors"

// ClaudeSDKError is implemented by every error type the SDK defines.
type ClaudeSDKError = errors.ClaudeSDKError

// SDKError is the generic SDK failure, such as invalid options.
type SDKError = errors.SDKError

// CLIConnectionError reports that the transport could not be used: the peer
// could not be reached, or a call was made out of lifecycle order.
type CLIConnectionError = errors.CLIConnectionError

// CLINotFoundError reports that no claude executable was found. It unwraps to
// a CLIConnectionError, so connection-error handling also catches it.
type CLINotFoundError = errors.CLINotFoundError

// ProcessError reports that the peer process exited with a failure.
type ProcessError = errors.ProcessError

// CLIJSONDecodeError reports an inbound line that is not valid JSON.
type CLIJSONDecodeError = errors.CLIJSONDecodeError

// MessageParseError reports a well-formed record that is not a known message.
type MessageParseError = errors.MessageParseError

var (
	// ErrDecode matches both CLIJSONDecodeError and MessageParseError.
	ErrDecode = errors.ErrDecode

	// ErrInvalidOptions is wrapped by option validation failures.
	ErrInvalidOptions = errors.ErrInvalidOptions

	// ErrCLINotFound is wrapped by CLINotFoundError.
	ErrCLINotFound = errors.ErrCLINotFound

	ErrNotConfigured         = errors.ErrNotConfigured
	ErrAlreadyConfigured     = errors.ErrAlreadyConfigured
	ErrAlreadyConnected      = errors.ErrAlreadyConnected
	ErrTransportNotConnected = errors.ErrTransportNotConnected
	ErrTransportClosed       = errors.ErrTransportClosed

	// ErrClientNotConnected is returned by Client methods before Connect.
	ErrClientNotConnected = errors.ErrClientNotConnected

	// ErrClientAlreadyConnected is returned by a second Connect.
	ErrClientAlreadyConnected = errors.ErrClientAlreadyConnected

	// ErrClientClosed is returned by Connect after Close.
	ErrClientClosed = errors.ErrClientClosed

	// ErrRequestTimeout is wrapped when a control request gets no reply in time.
	ErrRequestTimeout = errors.ErrRequestTimeout
)
