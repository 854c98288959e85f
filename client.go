package claudecode

import (
	"context"
	"iter"
)

// Client is a multi-turn session. Unlike Query, it keeps the peer running
// between turns and carries the control channel, so it can interrupt a turn,
// switch the model or permission mode, and serve in-process MCP tools.
//
// A client is single-use: after Disconnect, create a new one.
//
//	c := claudecode.NewClient()
//	if err := c.Connect(ctx, claudecode.WithModel("claude-sonnet-4-5")); err != nil {
//	    return err
//	}
//	defer c.Disconnect()
//
//	if err := c.Query(ctx, "Summarize README.md"); err != nil {
//	    return err
//	}
//
//	for msg, err := range c.ReceiveResponse(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    // handle msg
//	}
type Client interface {
	// Connect starts the peer and performs the initialize handshake. ctx
	// bounds the handshake only; the session lasts until Disconnect.
	Connect(ctx context.Context, opts ...Option) error

	// Query sends one user turn. The session ID defaults to "default".
	Query(ctx context.Context, prompt string, sessionID ...string) error

	// ReceiveMessages yields messages until the session ends. It does not
	// stop at a ResultMessage.
	ReceiveMessages(ctx context.Context) iter.Seq2[Message, error]

	// ReceiveResponse yields messages up to and including the next
	// ResultMessage.
	ReceiveResponse(ctx context.Context) iter.Seq2[Message, error]

	// Interrupt asks the peer to stop the current turn.
	Interrupt(ctx context.Context) error

	// SetPermissionMode changes the permission mode mid-session.
	SetPermissionMode(ctx context.Context, mode PermissionMode) error

	// SetModel switches the model. An empty name restores the default.
	SetModel(ctx context.Context, model string) error

	// GetServerInfo returns the peer's initialize reply, or nil before
	// Connect.
	GetServerInfo() map[string]any

	// GetMCPStatus reports the connection state of every MCP server.
	GetMCPStatus(ctx context.Context) (*MCPStatus, error)

	// IsConnected reports whether the session is open.
	IsConnected() bool

	// Disconnect ends the session. It is safe to call more than once.
	Disconnect() error
}

// NewClient creates an unconnected client.
func NewClient() Client {
	return newClientImpl()
}
