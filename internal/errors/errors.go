package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// InstallHint tells users how to get the Claude Code CLI onto their machine.
const InstallHint = "install it with: npm install -g @anthropic-ai/claude-code, " +
	"or point the SDK at an existing binary with WithCliPath"

// ClaudeSDKError is the base interface for all SDK errors.
type ClaudeSDKError interface {
	error
	IsClaudeSDKError() bool
}

// Compile-time verification that all error types implement ClaudeSDKError.
var (
	_ ClaudeSDKError = (*SDKError)(nil)
	_ ClaudeSDKError = (*CLINotFoundError)(nil)
	_ ClaudeSDKError = (*CLIConnectionError)(nil)
	_ ClaudeSDKError = (*ProcessError)(nil)
	_ ClaudeSDKError = (*MessageParseError)(nil)
	_ ClaudeSDKError = (*CLIJSONDecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotConfigured indicates Connect was called before Configure.
	ErrNotConfigured = errors.New("transport not configured")

	// ErrAlreadyConfigured indicates Configure was called more than once.
	ErrAlreadyConfigured = errors.New("transport already configured")

	// ErrAlreadyConnected indicates Connect was called on a connected transport.
	ErrAlreadyConnected = errors.New("transport already connected")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrTransportClosed indicates the transport was disconnected and cannot be reused.
	ErrTransportClosed = errors.New("transport closed: transports are single-use")

	// ErrStdinClosed indicates the input side of the transport was already closed,
	// for example after the single request of a one-shot session.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrCLINotFound is wrapped by CLINotFoundError.
	ErrCLINotFound = errors.New("claude CLI not found")

	// ErrDecode matches both decode error kinds (CLIJSONDecodeError and MessageParseError).
	ErrDecode = errors.New("decode failure")

	// ErrUnknownMessageType indicates the record discriminator is not a known message type.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrUnknownContentBlock indicates a content block discriminator is not recognized.
	ErrUnknownContentBlock = errors.New("unknown content block type")

	// ErrInvalidOptions indicates the options failed validation.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.New("client not connected")

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with NewClient()")

	// ErrRequestTimeout indicates a control request timed out.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrControllerStopped indicates the protocol controller has stopped.
	ErrControllerStopped = errors.New("protocol controller stopped")
)

// SDKError is the generic SDK error for failures that fit no narrower kind.
type SDKError struct {
	Message string
	Err     error
}

func (e *SDKError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Err
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *SDKError) IsClaudeSDKError() bool { return true }

// CLIConnectionError indicates the transport could not be established or was
// used out of lifecycle order.
type CLIConnectionError struct {
	Err error
}

func (e *CLIConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to CLI: %v", e.Err)
}

func (e *CLIConnectionError) Unwrap() error {
	return e.Err
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *CLIConnectionError) IsClaudeSDKError() bool { return true }

// CLINotFoundError indicates the Claude CLI binary was not found.
//
// It is a specialization of CLIConnectionError: errors.AsType[*CLIConnectionError]
// matches it, and errors.Is(err, ErrCLINotFound) reports true.
type CLINotFoundError struct {
	SearchedPaths []string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("claude CLI not found in: %v; %s", e.SearchedPaths, InstallHint)
}

func (e *CLINotFoundError) Unwrap() error {
	return &CLIConnectionError{Err: ErrCLINotFound}
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *CLINotFoundError) IsClaudeSDKError() bool { return true }

// ProcessError indicates the CLI process terminated abnormally.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("CLI process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("CLI process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *ProcessError) IsClaudeSDKError() bool { return true }

// MessageParseError indicates a well-formed record could not be decoded into a
// typed message, for example because its discriminator is unknown.
type MessageParseError struct {
	Message string
	Err     error
	Data    map[string]any
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("failed to parse message: %v", e.Err)
}

func (e *MessageParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *MessageParseError) Is(target error) bool {
	return target == ErrDecode
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *MessageParseError) IsClaudeSDKError() bool { return true }

// CLIJSONDecodeError indicates a frame from the peer was not valid JSON.
// RawData preserves the offending text. Line is the 1-based frame number and
// Offset the byte offset of the syntax error within the frame, when known.
type CLIJSONDecodeError struct {
	RawData string
	Line    int
	Offset  int64
	Err     error
}

func (e *CLIJSONDecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from CLI (line %d, offset %d): %v: %q",
		e.Line, e.Offset, e.Err, truncate(e.RawData, 200))
}

func (e *CLIJSONDecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *CLIJSONDecodeError) Is(target error) bool {
	return target == ErrDecode
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *CLIJSONDecodeError) IsClaudeSDKError() bool { return true }

// NewJSONDecodeError builds a CLIJSONDecodeError for a frame, extracting the
// syntax error offset when the decoder reported one.
func NewJSONDecodeError(raw []byte, line int, err error) *CLIJSONDecodeError {
	decodeErr := &CLIJSONDecodeError{
		RawData: string(raw),
		Line:    line,
		Err:     err,
	}

	if syntaxErr, ok := errors.AsType[*json.SyntaxError](err); ok {
		decodeErr.Offset = syntaxErr.Offset
	}

	return decodeErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
