package claudecode

import (
	"context"
	"iter"

	"github.com/codegen-sh/claude-code-sdk-go/internal/client"
)

// clientWrapper adapts internal/client to the public Client interface.
type clientWrapper struct {
	impl *client.Client
}

var _ Client = (*clientWrapper)(nil)

func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

// Connect implements Client.
func (c *clientWrapper) Connect(ctx context.Context, opts ...Option) error {
	return c.impl.Connect(ctx, applyOptions(opts), identity())
}

// Query implements Client.
func (c *clientWrapper) Query(ctx context.Context, prompt string, sessionID ...string) error {
	return c.impl.Query(ctx, prompt, sessionID...)
}

// ReceiveMessages implements Client.
func (c *clientWrapper) ReceiveMessages(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveMessages(ctx)
}

// ReceiveResponse implements Client.
func (c *clientWrapper) ReceiveResponse(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveResponse(ctx)
}

// Interrupt implements Client.
func (c *clientWrapper) Interrupt(ctx context.Context) error {
	return c.impl.Interrupt(ctx)
}

// SetPermissionMode implements Client.
func (c *clientWrapper) SetPermissionMode(ctx context.Context, mode PermissionMode) error {
	return c.impl.SetPermissionMode(ctx, mode)
}

// SetModel implements Client.
func (c *clientWrapper) SetModel(ctx context.Context, model string) error {
	return c.impl.SetModel(ctx, model)
}

// GetServerInfo implements Client.
func (c *clientWrapper) GetServerInfo() map[string]any {
	return c.impl.GetServerInfo()
}

// GetMCPStatus implements Client.
func (c *clientWrapper) GetMCPStatus(ctx context.Context) (*MCPStatus, error) {
	return c.impl.GetMCPStatus(ctx)
}

// IsConnected implements Client.
func (c *clientWrapper) IsConnected() bool {
	return c.impl.IsConnected()
}

// Disconnect implements Client. It closes the underlying session.
func (c *clientWrapper) Disconnect() error {
	return c.impl.Close()
}
