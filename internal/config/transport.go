// Package config provides configuration types for the Claude Code SDK.
package config

import (
	"context"
	"iter"
)

// Transport is the channel a session uses to talk to the peer.
//
// The lifecycle is strictly Configure, Connect, then any number of
// SendRequest and ReceiveMessages calls, then Disconnect. Calls out of that
// order fail with a CLIConnectionError. A disconnected transport cannot be
// reused.
//
// The default implementation spawns the claude CLI. Custom transports can be
// supplied via Options.Transport.
type Transport interface {
	// Configure records the prompt and options for the session. It performs no
	// I/O. A non-empty prompt marks a one-shot session.
	Configure(prompt string, options *Options) error

	// Connect establishes the channel. The identity tags the peer with the
	// caller's entrypoint and version.
	Connect(ctx context.Context, id Identity) error

	// SendRequest transmits a batch of outbound records together with the
	// flattened options bag.
	SendRequest(ctx context.Context, messages []map[string]any, options map[string]any) error

	// ReceiveMessages yields inbound records in arrival order. An error is
	// yielded at most once and ends the sequence.
	ReceiveMessages(ctx context.Context) iter.Seq2[map[string]any, error]

	// Disconnect releases the channel. It is safe to call more than once.
	Disconnect() error

	// IsConnected reports whether the channel is open.
	IsConnected() bool
}

// Identity tags every connection with the SDK's entrypoint and version.
type Identity struct {
	Entrypoint string
	Version    string
}

const (
	// EnvEntrypoint names the environment variable carrying Identity.Entrypoint.
	EnvEntrypoint = "CLAUDE_CODE_ENTRYPOINT"
	// EnvSDKVersion names the environment variable carrying Identity.Version.
	EnvSDKVersion = "CLAUDE_CODE_SDK_VERSION"
)

// Environ renders the identity as KEY=value pairs. Empty fields are omitted.
func (id Identity) Environ() []string {
	env := make([]string, 0, 2)

	if id.Entrypoint != "" {
		env = append(env, EnvEntrypoint+"="+id.Entrypoint)
	}

	if id.Version != "" {
		env = append(env, EnvSDKVersion+"="+id.Version)
	}

	return env
}
