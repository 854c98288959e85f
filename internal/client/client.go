package client

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
	"github.com/codegen-sh/claude-code-sdk-go/internal/message"
	"github.com/codegen-sh/claude-code-sdk-go/internal/protocol"
	"github.com/codegen-sh/claude-code-sdk-go/internal/subprocess"
)

const (
	messageBufferSize = 10

	// DefaultSessionID is used by Query when no session ID is given.
	DefaultSessionID = "default"

	controlTimeout   = 5 * time.Second
	mcpStatusTimeout = 10 * time.Second
)

// Client is a long-lived, multi-turn session with the peer.
type Client struct {
	log        *slog.Logger
	transport  config.Transport
	controller *protocol.Controller
	session    *protocol.Session
	options    *config.Options

	messages chan message.Message

	errMu    sync.RWMutex
	fatalErr error

	eg *errgroup.Group

	mu         sync.Mutex
	done       chan struct{}
	connecting bool
	connected  bool
	closed     bool
	closeOnce  sync.Once
}

// New creates a client. It is not connected until Connect succeeds.
func New() *Client {
	return &Client{
		messages: make(chan message.Message, messageBufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Client) setFatalError(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}
}

func (c *Client) fatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// IsConnected reports whether Connect succeeded and Close has not run.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

// Connect opens the transport in client mode, starts the control channel and
// performs the initialize handshake. The session outlives ctx; only the
// handshake is bound to it. The client lock is not held during the
// handshake, so IsConnected and GetServerInfo answer while it runs.
func (c *Client) Connect(ctx context.Context, options *config.Options, id config.Identity) error {
	c.mu.Lock()

	switch {
	case c.closed:
		c.mu.Unlock()

		return errors.ErrClientClosed
	case c.connected:
		c.mu.Unlock()

		return errors.ErrClientAlreadyConnected
	case c.connecting:
		c.mu.Unlock()

		return fmt.Errorf("%w: connect in progress", errors.ErrClientAlreadyConnected)
	}

	c.connecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	clientLog := log.With("component", "client")

	transport := options.Transport
	if transport == nil {
		transport = subprocess.NewCLITransport(log)
	}

	if err := options.Validate(); err != nil {
		release(clientLog, transport)

		return err
	}

	if err := transport.Configure("", options); err != nil {
		release(clientLog, transport)

		return err
	}

	if err := transport.Connect(ctx, id); err != nil {
		release(clientLog, transport)

		return err
	}

	controller := protocol.NewController(log, transport)
	session := protocol.NewSession(log, controller, options)
	session.RegisterHandlers()

	background := context.WithoutCancel(ctx)
	controller.Start(background)

	if err := session.Initialize(ctx); err != nil {
		controller.Stop()
		release(clientLog, transport)

		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		controller.Stop()
		release(clientLog, transport)

		return errors.ErrClientClosed
	}

	c.log = clientLog
	c.options = options
	c.transport = transport
	c.controller = controller
	c.session = session

	var egCtx context.Context

	c.eg, egCtx = errgroup.WithContext(background)
	c.eg.Go(func() error { return c.readLoop(egCtx) })

	c.connected = true
	c.log.Info("Client connected")

	return nil
}

// release disconnects a transport whose setup failed. The setup error takes
// precedence, so a disconnect failure is only logged.
func release(log *slog.Logger, transport config.Transport) {
	if err := transport.Disconnect(); err != nil {
		log.Warn("Disconnect after failed connect", "error", err)
	}
}

// readLoop parses the controller's conversation records. A record that fails
// to parse ends the session, as does a transport failure.
func (c *Client) readLoop(ctx context.Context) error {
	defer close(c.messages)

	for record := range c.controller.Messages() {
		msg, err := message.Parse(c.log, record)
		if err != nil {
			c.log.Warn("Failed to parse message", "error", err)
			c.setFatalError(err)

			return err
		}

		select {
		case c.messages <- msg:
		case <-c.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := c.controller.FatalError(); err != nil {
		c.log.Error("Transport failed", "error", err)
		c.setFatalError(err)

		return err
	}

	return nil
}

// Query sends one user turn. Responses arrive on ReceiveMessages or
// ReceiveResponse. The session ID defaults to DefaultSessionID.
func (c *Client) Query(ctx context.Context, prompt string, sessionID ...string) error {
	if !c.IsConnected() {
		return errors.ErrClientNotConnected
	}

	sid := DefaultSessionID
	if len(sessionID) > 0 && sessionID[0] != "" {
		sid = sessionID[0]
	}

	c.log.Debug("Sending query", "prompt_len", len(prompt), "session_id", sid)

	turn := message.NewUserTurn(prompt, sid)

	return c.controller.Write(ctx, []map[string]any{turn}, c.options.RequestOptions())
}

// receive returns the next message, or io.EOF once the stream ends cleanly.
func (c *Client) receive(ctx context.Context) (message.Message, error) {
	if err := c.fatalError(); err != nil {
		return nil, err
	}

	select {
	case msg, ok := <-c.messages:
		if ok {
			return msg, nil
		}

		if err := c.eg.Wait(); err != nil {
			return nil, err
		}

		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReceiveMessages yields every message until the stream ends, an error
// occurs, or ctx is cancelled. It does not stop at a ResultMessage.
func (c *Client) ReceiveMessages(ctx context.Context) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		if !c.IsConnected() {
			yield(nil, errors.ErrClientNotConnected)

			return
		}

		for {
			msg, err := c.receive(ctx)
			if err == io.EOF {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(msg, nil) {
				return
			}
		}
	}
}

// ReceiveResponse yields messages up to and including the next ResultMessage.
func (c *Client) ReceiveResponse(ctx context.Context) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		for msg, err := range c.ReceiveMessages(ctx) {
			if !yield(msg, err) || err != nil {
				return
			}

			if _, ok := msg.(*message.ResultMessage); ok {
				return
			}
		}
	}
}

// Interrupt asks the peer to stop the current turn.
func (c *Client) Interrupt(ctx context.Context) error {
	if !c.IsConnected() {
		return errors.ErrClientNotConnected
	}

	c.log.Info("Sending interrupt")

	if _, err := c.controller.Request(ctx, "interrupt", nil, controlTimeout); err != nil {
		return fmt.Errorf("interrupt: %w", err)
	}

	return nil
}

// SetPermissionMode changes the permission mode mid-session.
func (c *Client) SetPermissionMode(ctx context.Context, mode config.PermissionMode) error {
	if !c.IsConnected() {
		return errors.ErrClientNotConnected
	}

	if !mode.Valid() {
		return fmt.Errorf("%w: unknown permission mode %q", errors.ErrInvalidOptions, mode)
	}

	mode = config.NormalizePermissionMode(mode)
	c.log.Info("Setting permission mode", "mode", mode)

	payload := map[string]any{"mode": string(mode)}

	if _, err := c.controller.Request(ctx, "set_permission_mode", payload, controlTimeout); err != nil {
		return fmt.Errorf("set permission mode %q: %w", mode, err)
	}

	return nil
}

// SetModel switches the model mid-session. An empty name restores the
// default model.
func (c *Client) SetModel(ctx context.Context, model string) error {
	if !c.IsConnected() {
		return errors.ErrClientNotConnected
	}

	c.log.Info("Setting model", "model", model)

	payload := map[string]any{"model": nil}
	if model != "" {
		payload["model"] = model
	}

	if _, err := c.controller.Request(ctx, "set_model", payload, controlTimeout); err != nil {
		return fmt.Errorf("set model: %w", err)
	}

	return nil
}

// GetMCPStatus reports the peer's MCP servers followed by the in-process
// servers, which are always connected.
func (c *Client) GetMCPStatus(ctx context.Context) (*mcp.Status, error) {
	if !c.IsConnected() {
		return nil, errors.ErrClientNotConnected
	}

	payload, err := c.controller.Request(ctx, "mcp_status", nil, mcpStatusTimeout)
	if err != nil {
		return nil, fmt.Errorf("get mcp status: %w", err)
	}

	status, err := mcp.ParseStatus(payload)
	if err != nil {
		return nil, fmt.Errorf("decode mcp status: %w", err)
	}

	for _, name := range c.session.SDKServerNames() {
		status.MCPServers = append(status.MCPServers, mcp.ServerStatus{Name: name, Status: "connected"})
	}

	return status, nil
}

// GetServerInfo returns the peer's initialize reply, or nil when not
// connected.
func (c *Client) GetServerInfo() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}

	return c.session.InitializationResult()
}

// Close ends the session and releases the transport. A closed client cannot
// be reconnected. Close is safe to call more than once.
func (c *Client) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		wasConnected := c.connected
		c.connected = false
		c.mu.Unlock()

		if !wasConnected {
			return
		}

		c.log.Info("Closing client")

		close(c.done)
		c.controller.Stop()

		closeErr = c.transport.Disconnect()

		if err := c.eg.Wait(); err != nil && closeErr == nil {
			closeErr = err
		}
	})

	return closeErr
}
