package claudecode

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/codegen-sh/claude-code-sdk-go/internal/client"
	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
	"github.com/codegen-sh/claude-code-sdk-go/internal/message"
	"github.com/codegen-sh/claude-code-sdk-go/internal/subprocess"
)

// Query runs one prompt and yields the peer's messages in arrival order.
//
// The sequence is lazy: nothing happens until it is ranged over. It ends
// after the peer closes the stream, normally right after a *ResultMessage.
// A failure is yielded once as the error and ends the sequence; messages
// yielded before it remain valid. The transport is disconnected exactly once
// on every exit path, including a break out of the range loop.
//
//	for msg, err := range claudecode.Query(ctx, "What is 2+2?",
//	    claudecode.WithMaxTurns(1),
//	) {
//	    if err != nil {
//	        return err
//	    }
//
//	    if m, ok := msg.(*claudecode.AssistantMessage); ok {
//	        fmt.Println(m.Text())
//	    }
//	}
//
// Options with in-process MCP servers run the prompt through a Client, since
// those servers are reached over the control channel.
func Query(ctx context.Context, prompt string, opts ...Option) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		options := applyOptions(opts)

		base := options.Logger
		if base == nil {
			base = NopLogger()
		}

		log := base.With("component", "query")

		if len(mcp.SDKServers(options.MCPServers)) > 0 {
			queryWithClient(ctx, log, prompt, options, yield)

			return
		}

		transport := options.Transport
		if transport == nil {
			transport = subprocess.NewCLITransport(base)
		}

		completed := false

		defer func() {
			err := transport.Disconnect()
			if err == nil {
				return
			}

			if completed {
				yield(nil, fmt.Errorf("disconnect: %w", err))

				return
			}

			log.Warn("Disconnect failed during teardown", "error", err)
		}()

		completed = runQuery(ctx, log, transport, prompt, options, yield)
	}
}

// runQuery drives one session over transport. It reports whether the stream
// ended cleanly with every message delivered.
func runQuery(
	ctx context.Context,
	log *slog.Logger,
	transport Transport,
	prompt string,
	options *ClaudeCodeOptions,
	yield func(Message, error) bool,
) bool {
	if err := options.Validate(); err != nil {
		yield(nil, err)

		return false
	}

	if err := transport.Configure(prompt, options); err != nil {
		yield(nil, err)

		return false
	}

	if err := transport.Connect(ctx, identity()); err != nil {
		log.Debug("Connect failed", "error", err)
		yield(nil, err)

		return false
	}

	log.Info("Connected")

	turn := message.NewUserTurn(prompt, client.DefaultSessionID)

	if err := transport.SendRequest(ctx, []map[string]any{turn}, options.RequestOptions()); err != nil {
		yield(nil, err)

		return false
	}

	for record, err := range transport.ReceiveMessages(ctx) {
		if err != nil {
			yield(nil, err)

			return false
		}

		msg, err := message.Parse(log, record)
		if err != nil {
			yield(nil, err)

			return false
		}

		if !yield(msg, nil) {
			log.Debug("Consumer stopped iteration")

			return false
		}
	}

	if err := ctx.Err(); err != nil {
		yield(nil, err)

		return false
	}

	log.Debug("Stream ended")

	return true
}

func queryWithClient(
	ctx context.Context,
	log *slog.Logger,
	prompt string,
	options *ClaudeCodeOptions,
	yield func(Message, error) bool,
) {
	c := client.New()
	if err := c.Connect(ctx, options, identity()); err != nil {
		yield(nil, err)

		return
	}

	completed := false

	defer func() {
		err := c.Close()
		if err == nil {
			return
		}

		if completed {
			yield(nil, fmt.Errorf("disconnect: %w", err))

			return
		}

		log.Warn("Disconnect failed during teardown", "error", err)
	}()

	if err := c.Query(ctx, prompt); err != nil {
		yield(nil, err)

		return
	}

	for msg, err := range c.ReceiveResponse(ctx) {
		if !yield(msg, err) || err != nil {
			return
		}
	}

	completed = true
}
