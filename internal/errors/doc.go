// Package errors defines error types for the Claude Code SDK.
//
// Every failure surfaced by a transport or session belongs to one kind:
// connection (including the not-found specialization), process, decode
// (JSON framing or message parsing), or the generic SDKError. All error
// types support unwrapping and can be checked using errors.Is and
// errors.AsType.
package errors
